package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/leoqin/mediabot/internal/adapter"
	"github.com/leoqin/mediabot/internal/scheduler"
	"github.com/leoqin/mediabot/internal/store"
	"github.com/leoqin/mediabot/models"
)

// In-memory repositories backing the service tests. Merge semantics mirror
// the SQL implementations: nil update fields keep stored values.

type memUserRepo struct {
	nextID int64
	byTg   map[int64]models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byTg: make(map[int64]models.User)}
}

func (r *memUserRepo) CreateUser(_ context.Context, user models.User) (models.User, error) {
	if _, ok := r.byTg[user.TgID]; ok {
		return models.User{}, store.ErrUserAlreadyExists
	}
	r.nextID++
	user.UserID = r.nextID
	r.byTg[user.TgID] = user
	return user, nil
}

func (r *memUserRepo) FindUserByTgID(_ context.Context, tgID int64) (models.User, error) {
	user, ok := r.byTg[tgID]
	if !ok {
		return models.User{}, store.ErrNoUserWasFound
	}
	return user, nil
}

func (r *memUserRepo) CountUsers(_ context.Context) (int64, error) {
	return int64(len(r.byTg)), nil
}

func (r *memUserRepo) ListUsersByTgIDs(_ context.Context, tgIDs []int64) ([]models.User, error) {
	var users []models.User
	for _, id := range tgIDs {
		if user, ok := r.byTg[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *memUserRepo) UpdateUserRole(_ context.Context, tgID int64, role models.RoleName) error {
	user, ok := r.byTg[tgID]
	if !ok {
		return store.ErrNoUserWasFound
	}
	user.Role = role
	r.byTg[tgID] = user
	return nil
}

func (r *memUserRepo) UpdateUserSettings(_ context.Context, userID int64, settings models.UserSettings) error {
	for tgID, user := range r.byTg {
		if user.UserID == userID {
			user.Settings = settings
			r.byTg[tgID] = user
			return nil
		}
	}
	return store.ErrNoUserWasFound
}

type memEmbyRepo struct {
	byUser map[int64]models.EmbyConfig
}

func newMemEmbyRepo() *memEmbyRepo {
	return &memEmbyRepo{byUser: make(map[int64]models.EmbyConfig)}
}

func (r *memEmbyRepo) GetByUserID(_ context.Context, userID int64) (models.EmbyConfig, error) {
	cfg, ok := r.byUser[userID]
	if !ok {
		return models.EmbyConfig{}, store.ErrConfigNotFound
	}
	return cfg, nil
}

func (r *memEmbyRepo) Upsert(_ context.Context, userID int64, update models.EmbyConfigUpdate) (models.EmbyConfig, error) {
	cfg := r.byUser[userID]
	cfg.UserID = userID
	if update.Host != nil {
		cfg.Host = *update.Host
	}
	if update.APIToken != nil {
		cfg.APIToken = *update.APIToken
	}
	if update.Username != nil {
		cfg.Username = *update.Username
	}
	if update.Password != nil {
		cfg.Password = *update.Password
	}
	r.byUser[userID] = cfg
	return cfg, nil
}

type memQASRepo struct {
	byUser map[int64]models.QASConfig
}

func newMemQASRepo() *memQASRepo {
	return &memQASRepo{byUser: make(map[int64]models.QASConfig)}
}

func (r *memQASRepo) GetByUserID(_ context.Context, userID int64) (models.QASConfig, error) {
	cfg, ok := r.byUser[userID]
	if !ok {
		return models.QASConfig{}, store.ErrConfigNotFound
	}
	return cfg, nil
}

func (r *memQASRepo) Upsert(_ context.Context, userID int64, update models.QASConfigUpdate) (models.QASConfig, error) {
	cfg, ok := r.byUser[userID]
	if !ok {
		cfg = models.QASConfig{
			UserID:              userID,
			SavePathPrefix:      models.DefaultQASSavePathPrefix,
			MovieSavePathPrefix: models.DefaultQASSavePathPrefix,
			Pattern:             models.DefaultQASPattern,
			Replace:             models.DefaultQASReplace,
		}
	}
	if update.Host != nil {
		cfg.Host = *update.Host
	}
	if update.APIToken != nil {
		cfg.APIToken = *update.APIToken
	}
	if update.SavePathPrefix != nil {
		cfg.SavePathPrefix = *update.SavePathPrefix
	}
	if update.MovieSavePathPrefix != nil {
		cfg.MovieSavePathPrefix = *update.MovieSavePathPrefix
	}
	if update.Pattern != nil {
		cfg.Pattern = *update.Pattern
	}
	if update.Replace != nil {
		cfg.Replace = *update.Replace
	}
	r.byUser[userID] = cfg
	return cfg, nil
}

type memAIRepo struct {
	configs map[string]models.AIProviderConfig
}

func newMemAIRepo() *memAIRepo {
	return &memAIRepo{configs: make(map[string]models.AIProviderConfig)}
}

func aiKey(userID int64, provider string) string {
	return fmt.Sprintf("%d/%s", userID, provider)
}

func (r *memAIRepo) Get(_ context.Context, userID int64, provider string) (models.AIProviderConfig, error) {
	cfg, ok := r.configs[aiKey(userID, provider)]
	if !ok {
		return models.AIProviderConfig{}, store.ErrConfigNotFound
	}
	return cfg, nil
}

func (r *memAIRepo) GetDefault(_ context.Context, userID int64) (models.AIProviderConfig, error) {
	for _, cfg := range r.configs {
		if cfg.UserID == userID && cfg.IsDefault {
			return cfg, nil
		}
	}
	return models.AIProviderConfig{}, store.ErrConfigNotFound
}

func (r *memAIRepo) ListByUser(_ context.Context, userID int64) ([]models.AIProviderConfig, error) {
	var configs []models.AIProviderConfig
	for _, cfg := range r.configs {
		if cfg.UserID == userID {
			configs = append(configs, cfg)
		}
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].ProviderName < configs[j].ProviderName })
	return configs, nil
}

func (r *memAIRepo) Upsert(_ context.Context, userID int64, provider string, update models.AIProviderConfigUpdate) (models.AIProviderConfig, error) {
	key := aiKey(userID, provider)
	cfg, ok := r.configs[key]
	if !ok {
		cfg = models.AIProviderConfig{UserID: userID, ProviderName: provider}
	}
	if update.APIKey != nil {
		cfg.APIKey = *update.APIKey
	}
	if update.Host != nil {
		cfg.Host = *update.Host
	}
	if update.Model != nil {
		cfg.Model = *update.Model
	}
	if update.IsDefault != nil {
		cfg.IsDefault = *update.IsDefault
	}
	r.configs[key] = cfg
	return cfg, nil
}

func (r *memAIRepo) Delete(_ context.Context, userID int64, provider string) error {
	key := aiKey(userID, provider)
	if _, ok := r.configs[key]; !ok {
		return store.ErrConfigNotFound
	}
	delete(r.configs, key)
	return nil
}

func (r *memAIRepo) SetDefault(_ context.Context, userID int64, provider string) error {
	if _, ok := r.configs[aiKey(userID, provider)]; !ok {
		return store.ErrConfigNotFound
	}
	for key, cfg := range r.configs {
		if cfg.UserID == userID {
			cfg.IsDefault = cfg.ProviderName == provider
			r.configs[key] = cfg
		}
	}
	return nil
}

type memReminderRepo struct {
	jobs       map[string]models.ReminderJob
	links      map[string]models.ReminderLink
	linkOrder  []string
	nextLinkID int64
}

func newMemReminderRepo() *memReminderRepo {
	return &memReminderRepo{
		jobs:  make(map[string]models.ReminderJob),
		links: make(map[string]models.ReminderLink),
	}
}

func (r *memReminderRepo) CreateJob(_ context.Context, job models.ReminderJob) error {
	r.jobs[job.JobID] = job
	return nil
}

func (r *memReminderRepo) GetJob(_ context.Context, jobID string) (models.ReminderJob, error) {
	job, ok := r.jobs[jobID]
	if !ok {
		return models.ReminderJob{}, store.ErrJobNotFound
	}
	return job, nil
}

func (r *memReminderRepo) DeleteJob(_ context.Context, jobID string) error {
	if _, ok := r.jobs[jobID]; !ok {
		return store.ErrJobNotFound
	}
	delete(r.jobs, jobID)
	return nil
}

func (r *memReminderRepo) ListDueJobs(_ context.Context, now time.Time) ([]models.ReminderJob, error) {
	var due []models.ReminderJob
	for _, job := range r.jobs {
		if !job.NextFire.After(now) {
			due = append(due, job)
		}
	}
	return due, nil
}

func (r *memReminderRepo) UpdateNextFire(_ context.Context, jobID string, next time.Time) error {
	job, ok := r.jobs[jobID]
	if !ok {
		return store.ErrJobNotFound
	}
	job.NextFire = next
	r.jobs[jobID] = job
	return nil
}

func (r *memReminderRepo) CreateLink(_ context.Context, link models.ReminderLink) (models.ReminderLink, error) {
	r.nextLinkID++
	link.LinkID = r.nextLinkID
	r.links[link.JobID] = link
	r.linkOrder = append(r.linkOrder, link.JobID)
	return link, nil
}

func (r *memReminderRepo) GetLink(_ context.Context, jobID string) (models.ReminderLink, error) {
	link, ok := r.links[jobID]
	if !ok || link.DeletedAt != nil {
		return models.ReminderLink{}, store.ErrLinkNotFound
	}
	return link, nil
}

func (r *memReminderRepo) ListUserLinks(_ context.Context, userID int64, offset, limit int) ([]models.ReminderLink, int64, error) {
	var live []models.ReminderLink
	for _, jobID := range r.linkOrder {
		link := r.links[jobID]
		if link.UserID == userID && link.DeletedAt == nil {
			live = append(live, link)
		}
	}

	total := int64(len(live))
	if offset >= len(live) {
		return nil, total, nil
	}
	end := min(offset+limit, len(live))
	return live[offset:end], total, nil
}

func (r *memReminderRepo) SoftDeleteLink(_ context.Context, jobID string) error {
	link, ok := r.links[jobID]
	if !ok || link.DeletedAt != nil {
		return store.ErrLinkNotFound
	}
	now := time.Now()
	link.DeletedAt = &now
	r.links[jobID] = link
	return nil
}

func (r *memReminderRepo) TombstoneOrphanLinks(_ context.Context, now time.Time) (int64, error) {
	var affected int64
	for jobID, link := range r.links {
		if link.DeletedAt != nil {
			continue
		}
		if _, ok := r.jobs[jobID]; !ok {
			link.DeletedAt = &now
			r.links[jobID] = link
			affected++
		}
	}
	return affected, nil
}

type memOplogRepo struct {
	entries []models.OperationLog
}

func (r *memOplogRepo) Append(_ context.Context, entry models.OperationLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func newTestRepos() (*store.Repositories, *memOplogRepo) {
	oplog := &memOplogRepo{}
	return &store.Repositories{
		Users:        newMemUserRepo(),
		EmbyConfigs:  newMemEmbyRepo(),
		QASConfigs:   newMemQASRepo(),
		AIConfigs:    newMemAIRepo(),
		Reminders:    newMemReminderRepo(),
		OperationLog: oplog,
	}, oplog
}

// stubScheduler hands out sequential job ids without running anything.
type stubScheduler struct {
	nextID    int
	scheduled map[string]models.ReminderJob
}

func newStubScheduler() *stubScheduler {
	return &stubScheduler{scheduled: make(map[string]models.ReminderJob)}
}

var _ scheduler.Scheduler = (*stubScheduler)(nil)

func (s *stubScheduler) ScheduleDate(_ context.Context, userID, chatID int64, content string, runAt time.Time) (models.ReminderJob, error) {
	if runAt.Before(time.Now()) {
		return models.ReminderJob{}, scheduler.ErrPastRunTime
	}
	s.nextID++
	job := models.ReminderJob{
		JobID:    fmt.Sprintf("job-%d", s.nextID),
		UserID:   userID,
		ChatID:   chatID,
		Content:  content,
		Trigger:  models.TriggerDate,
		RunAt:    &runAt,
		NextFire: runAt,
	}
	s.scheduled[job.JobID] = job
	return job, nil
}

func (s *stubScheduler) ScheduleCron(_ context.Context, userID, chatID int64, content, spec string) (models.ReminderJob, error) {
	s.nextID++
	job := models.ReminderJob{
		JobID:    fmt.Sprintf("job-%d", s.nextID),
		UserID:   userID,
		ChatID:   chatID,
		Content:  content,
		Trigger:  models.TriggerCron,
		CronSpec: spec,
	}
	s.scheduled[job.JobID] = job
	return job, nil
}

func (s *stubScheduler) Cancel(_ context.Context, jobID string) error {
	if _, ok := s.scheduled[jobID]; !ok {
		return store.ErrJobNotFound
	}
	delete(s.scheduled, jobID)
	return nil
}

func (s *stubScheduler) Start(context.Context) {}

func (s *stubScheduler) Stop() {}

// stubChatClient returns a canned reply and records the last exchange.
type stubChatClient struct {
	reply string
	err   error

	lastSystem string
	lastPrompt string
}

func (c *stubChatClient) Chat(_ context.Context, _ adapter.AIConnection, system, prompt string) (string, error) {
	c.lastSystem = system
	c.lastPrompt = prompt
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}
