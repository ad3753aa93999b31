package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/leoqin/mediabot/internal/adapter"
	"github.com/leoqin/mediabot/internal/service"
	"github.com/leoqin/mediabot/models"
)

// recorderSender captures outgoing messages instead of talking to Telegram.
type recorderSender struct {
	mu         sync.Mutex
	sent       []string
	keyboards  []tgbotapi.InlineKeyboardMarkup
	requests   int
	requestErr error
}

func (r *recorderSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		r.sent = append(r.sent, msg.Text)
		if kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
			r.keyboards = append(r.keyboards, kb)
		}
	}
	return tgbotapi.Message{}, nil
}

func (r *recorderSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests++
	if r.requestErr != nil {
		return nil, r.requestErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (r *recorderSender) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sent) == 0 {
		return ""
	}
	return r.sent[len(r.sent)-1]
}

type stubUsers struct {
	users         map[int64]models.User
	setAdminCalls int
}

func (s *stubUsers) Register(_ context.Context, tgID, chatID int64, username string) (models.User, error) {
	user := models.User{UserID: tgID, TgID: tgID, ChatID: chatID, Username: username, Role: models.RoleUser}
	s.users[tgID] = user
	return user, nil
}

func (s *stubUsers) ResolveUser(_ context.Context, tgID int64) (models.User, error) {
	user, ok := s.users[tgID]
	if !ok {
		return models.User{}, service.ErrNotRegistered
	}
	return user, nil
}

func (s *stubUsers) SetAdmins(_ context.Context, _ models.User, tgIDs []int64) ([]models.User, error) {
	s.setAdminCalls++

	var promoted []models.User
	for _, id := range tgIDs {
		if user, ok := s.users[id]; ok && user.Role == models.RoleUser {
			user.Role = models.RoleAdmin
			s.users[id] = user
			promoted = append(promoted, user)
		}
	}
	return promoted, nil
}

func (s *stubUsers) UpdateSettings(_ context.Context, user models.User, settings models.UserSettings) (models.User, error) {
	user.Settings = settings
	s.users[user.TgID] = user
	return user, nil
}

func (s *stubUsers) MyInfo(_ context.Context, user models.User) (service.AccountInfo, error) {
	return service.AccountInfo{User: user}, nil
}

// stubConfigs records upserts and serves canned configs.
type stubConfigs struct {
	embyUpserts []models.EmbyConfigUpdate
	qasUpserts  []models.QASConfigUpdate
	qas         models.QASConfig
}

func (s *stubConfigs) GetEmby(context.Context, models.User) (models.EmbyConfig, error) {
	return models.EmbyConfig{}, nil
}

func (s *stubConfigs) UpsertEmby(_ context.Context, _ models.User, update models.EmbyConfigUpdate) (models.EmbyConfig, error) {
	s.embyUpserts = append(s.embyUpserts, update)
	return models.EmbyConfig{}, nil
}

func (s *stubConfigs) GetQAS(context.Context, models.User) (models.QASConfig, error) {
	return s.qas, nil
}

func (s *stubConfigs) UpsertQAS(_ context.Context, _ models.User, update models.QASConfigUpdate) (models.QASConfig, error) {
	s.qasUpserts = append(s.qasUpserts, update)
	return s.qas, nil
}

func (s *stubConfigs) ListAIProviders(context.Context, models.User) ([]models.AIProviderConfig, error) {
	return nil, nil
}

func (s *stubConfigs) UpsertAIProvider(_ context.Context, _ models.User, provider string, _ models.AIProviderConfigUpdate) (models.AIProviderConfig, error) {
	return models.AIProviderConfig{ProviderName: provider}, nil
}

func (s *stubConfigs) DeleteAIProvider(context.Context, models.User, string) error { return nil }

func (s *stubConfigs) SetDefaultAIProvider(context.Context, models.User, string) error { return nil }

func (s *stubConfigs) EmbyConnection(context.Context, models.User) (adapter.EmbyConnection, service.EmbyCredentials, error) {
	return adapter.EmbyConnection{}, service.EmbyCredentials{}, nil
}

func (s *stubConfigs) QASConnection(context.Context, models.User) (adapter.QASConnection, models.QASConfig, error) {
	return adapter.QASConnection{}, s.qas, nil
}

func (s *stubConfigs) DefaultAIConnection(context.Context, models.User) (adapter.AIConnection, error) {
	return adapter.AIConnection{}, nil
}

type stubReminders struct {
	deleteErr   error
	deleted     []string
	remindCalls int
}

func (s *stubReminders) Remind(context.Context, models.User, string) (service.ReminderReceipt, error) {
	s.remindCalls++
	return service.ReminderReceipt{}, nil
}

func (s *stubReminders) ListJobs(context.Context, models.User, int) (service.ReminderPage, error) {
	return service.ReminderPage{Page: 1, TotalPages: 1}, nil
}

func (s *stubReminders) DeleteJob(_ context.Context, _ models.User, jobID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, jobID)
	return nil
}

type stubMedia struct {
	tvResults []adapter.TMDBResult
}

func (s *stubMedia) EmbySeries(context.Context, models.User, string) ([]service.SeriesInfo, error) {
	return nil, nil
}

func (s *stubMedia) RefreshEmbyItem(context.Context, models.User, string) error { return nil }

func (s *stubMedia) ListEmbyNotifications(context.Context, models.User) ([]adapter.EmbyNotification, error) {
	return nil, nil
}

func (s *stubMedia) ToggleEmbyNotification(context.Context, models.User, string, string, bool) error {
	return nil
}

func (s *stubMedia) SearchTMDBTV(context.Context, models.User, string) ([]adapter.TMDBResult, error) {
	return s.tvResults, nil
}

func (s *stubMedia) SearchTMDBMovie(context.Context, models.User, string) ([]adapter.TMDBResult, error) {
	return s.tvResults, nil
}

type stubQAS struct {
	tasks   []adapter.QASTask
	tree    map[string][]adapter.ShareFile
	pattern string
	replace string

	added   []adapter.QASTask
	patches map[int]service.QASTaskPatch
}

func (s *stubQAS) Tasks(context.Context, models.User) ([]adapter.QASTask, error) {
	return s.tasks, nil
}

func (s *stubQAS) AddTask(_ context.Context, _ models.User, task adapter.QASTask) error {
	s.added = append(s.added, task)
	return nil
}

func (s *stubQAS) UpdateTask(_ context.Context, _ models.User, index int, patch service.QASTaskPatch) (adapter.QASTask, error) {
	if index < 0 || index >= len(s.tasks) {
		return adapter.QASTask{}, service.ErrTaskNotFound
	}
	if s.patches == nil {
		s.patches = make(map[int]service.QASTaskPatch)
	}
	s.patches[index] = patch
	return s.tasks[index], nil
}

func (s *stubQAS) DeleteTask(_ context.Context, _ models.User, index int) error {
	if index < 0 || index >= len(s.tasks) {
		return service.ErrTaskNotFound
	}
	s.tasks = append(s.tasks[:index], s.tasks[index+1:]...)
	return nil
}

func (s *stubQAS) RunScript(context.Context, models.User, []int) (string, error) {
	return "", nil
}

func (s *stubQAS) PreviewPattern(context.Context, models.User, adapter.QASTask) ([]service.SharePreviewEntry, error) {
	return nil, nil
}

func (s *stubQAS) ShareTree(_ context.Context, shareURL string) (map[string][]adapter.ShareFile, error) {
	if s.tree == nil {
		return nil, fmt.Errorf("no share at %s", shareURL)
	}
	return s.tree, nil
}

func (s *stubQAS) GeneratePattern(context.Context, models.User, string) (string, string, error) {
	return s.pattern, s.replace, nil
}

func (s *stubQAS) TagStartFiles(context.Context, models.User) (int, error) {
	return len(s.tasks), nil
}

type stubSearch struct {
	chunks []string
}

func (s *stubSearch) Search(context.Context, models.User, string) ([]string, error) {
	return s.chunks, nil
}
