// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

// Package service implements the bot's use cases on top of the repositories,
// the credential codec, the scheduler and the external clients. Handlers in
// internal/bot call services and format their results; services own
// persistence, encryption of secrets and the audit trail.
package service

import (
	"context"
	"time"

	"github.com/leoqin/mediabot/internal/adapter"
	"github.com/leoqin/mediabot/models"
)

// AccountInfo is the my_info card: the account plus which integrations the
// user has configured.
type AccountInfo struct {
	User models.User

	HasEmby bool
	HasQAS  bool

	// AIProviders lists the configured provider names; DefaultAIProvider
	// is empty when none is marked default.
	AIProviders       []string
	DefaultAIProvider string
}

// UserService manages accounts and per-user settings.
type UserService interface {
	// Register creates an account for the Telegram user. The first
	// registrant becomes owner, everyone after that a regular user.
	// Returns [store.ErrUserAlreadyExists] on repeat registration.
	Register(ctx context.Context, tgID, chatID int64, username string) (models.User, error)

	// ResolveUser looks up the account behind a Telegram id. Returns
	// [ErrNotRegistered] for unknown ids.
	ResolveUser(ctx context.Context, tgID int64) (models.User, error)

	// SetAdmins promotes the listed Telegram ids to admin and returns the
	// promoted accounts. Unknown ids are skipped.
	SetAdmins(ctx context.Context, actor models.User, tgIDs []int64) ([]models.User, error)

	// UpdateSettings replaces the user's preference blob.
	UpdateSettings(ctx context.Context, user models.User, settings models.UserSettings) (models.User, error)

	// MyInfo assembles the account card.
	MyInfo(ctx context.Context, user models.User) (AccountInfo, error)
}

// ConfigService manages per-user integration configs. Secrets are encrypted
// before they reach the repositories and decrypted only to build adapter
// connections.
type ConfigService interface {
	GetEmby(ctx context.Context, user models.User) (models.EmbyConfig, error)
	UpsertEmby(ctx context.Context, user models.User, update models.EmbyConfigUpdate) (models.EmbyConfig, error)

	GetQAS(ctx context.Context, user models.User) (models.QASConfig, error)
	UpsertQAS(ctx context.Context, user models.User, update models.QASConfigUpdate) (models.QASConfig, error)

	ListAIProviders(ctx context.Context, user models.User) ([]models.AIProviderConfig, error)
	UpsertAIProvider(ctx context.Context, user models.User, provider string, update models.AIProviderConfigUpdate) (models.AIProviderConfig, error)
	DeleteAIProvider(ctx context.Context, user models.User, provider string) error
	// SetDefaultAIProvider marks provider as the user's default. The
	// provider must be complete (api key, host, model all set); returns
	// [ErrIncompleteProviderConfig] otherwise.
	SetDefaultAIProvider(ctx context.Context, user models.User, provider string) error

	// EmbyConnection returns the user's Emby connection with the API token
	// decrypted, plus the decrypted sign-in credentials for flows that need
	// a session token.
	EmbyConnection(ctx context.Context, user models.User) (adapter.EmbyConnection, EmbyCredentials, error)

	// QASConnection returns the user's quark-auto-save connection with the
	// API token decrypted.
	QASConnection(ctx context.Context, user models.User) (adapter.QASConnection, models.QASConfig, error)

	// DefaultAIConnection returns the user's default AI provider as a chat
	// connection, API key decrypted. Returns [ErrNoDefaultProvider] when
	// none is configured.
	DefaultAIConnection(ctx context.Context, user models.User) (adapter.AIConnection, error)
}

// EmbyCredentials are the decrypted Emby sign-in credentials.
type EmbyCredentials struct {
	Username string
	Password string
}

// ReminderReceipt describes a freshly scheduled reminder for the reply
// message.
type ReminderReceipt struct {
	JobID    string
	Content  string
	Trigger  models.TriggerKind
	RunAt    time.Time
	CronSpec string
	NextFire time.Time
}

// ReminderPage is one page of a user's reminder list.
type ReminderPage struct {
	Links      []models.ReminderLink
	Page       int
	TotalPages int
	Total      int64
}

// ReminderService turns free-form reminder requests into scheduled jobs.
type ReminderService interface {
	// Remind asks the user's default AI provider to interpret text as a
	// one-shot or cron reminder and schedules it. Returns
	// [ErrReminderUnparseable] when the AI reply is not usable.
	Remind(ctx context.Context, user models.User, text string) (ReminderReceipt, error)

	// ListJobs returns one page of the user's live reminders. Pages are
	// 1-based.
	ListJobs(ctx context.Context, user models.User, page int) (ReminderPage, error)

	// DeleteJob cancels a reminder. Regular users may only delete their
	// own jobs; admins and the owner may delete any.
	DeleteJob(ctx context.Context, user models.User, jobID string) error
}

// SearchService aggregates resource search backends.
type SearchService interface {
	// Search fans out the keyword to every backend, probes Quark links for
	// liveness and returns ready-to-send HTML message chunks bucketed by
	// cloud type.
	Search(ctx context.Context, user models.User, keyword string) ([]string, error)
}

// SeriesInfo is one Emby series hit with its poster, when one exists.
type SeriesInfo struct {
	Item      adapter.EmbyItem
	PosterURL string
}

// MediaService covers the Emby and TMDB lookups.
type MediaService interface {
	// EmbySeries searches the user's Emby library and attaches TheMovieDb
	// posters best-effort.
	EmbySeries(ctx context.Context, user models.User, term string) ([]SeriesInfo, error)

	// RefreshEmbyItem triggers a full metadata refresh of one item.
	RefreshEmbyItem(ctx context.Context, user models.User, itemID string) error

	// ListEmbyNotifications returns the configured notification services of
	// the user's Emby server.
	ListEmbyNotifications(ctx context.Context, user models.User) ([]adapter.EmbyNotification, error)

	// ToggleEmbyNotification enables or disables one event on a configured
	// notification service.
	ToggleEmbyNotification(ctx context.Context, user models.User, notificationID, eventID string, enable bool) error

	SearchTMDBTV(ctx context.Context, user models.User, name string) ([]adapter.TMDBResult, error)
	SearchTMDBMovie(ctx context.Context, user models.User, name string) ([]adapter.TMDBResult, error)
}

// QASTaskPatch is a partial update of an auto-save task. Nil fields keep the
// stored values.
type QASTaskPatch struct {
	ShareURL *string
	Pattern  *string
	Replace  *string

	// Aria2 toggles the aria2 auto-download addition.
	Aria2 *bool
}

// SharePreviewEntry is one file of a pattern preview with its transfer
// verdict.
type SharePreviewEntry struct {
	FileName string
	// Verdict is 将会转存 for files the pattern matches, 不会转存 otherwise.
	Verdict string
}

// QASService manages the tasks of the user's quark-auto-save instance.
type QASService interface {
	// Tasks lists the instance's auto-save tasks in stored order.
	Tasks(ctx context.Context, user models.User) ([]adapter.QASTask, error)

	// AddTask registers a new task. When the task sets IgnoreExtension the
	// flag is patched onto the stored task afterwards, because the add
	// endpoint drops it.
	AddTask(ctx context.Context, user models.User, task adapter.QASTask) error

	// UpdateTask merges patch into the task at index and clears its start
	// fid so the next run rescans the share.
	UpdateTask(ctx context.Context, user models.User, index int, patch QASTaskPatch) (adapter.QASTask, error)

	// DeleteTask removes the task at index.
	DeleteTask(ctx context.Context, user models.User, index int) error

	// RunScript runs the auto-save script for the given task indexes and
	// returns its cleaned output.
	RunScript(ctx context.Context, user models.User, taskList []int) (string, error)

	// PreviewPattern reports which share files a task's pattern would
	// transfer.
	PreviewPattern(ctx context.Context, user models.User, task adapter.QASTask) ([]SharePreviewEntry, error)

	// ShareTree lists every directory of a share, keyed "{name}__{fid}"
	// with the root under "root__0". Used by the task wizard's folder
	// selection.
	ShareTree(ctx context.Context, shareURL string) (map[string][]adapter.ShareFile, error)

	// GeneratePattern asks the user's default AI provider for a filename
	// pattern and replace template matching the description.
	GeneratePattern(ctx context.Context, user models.User, description string) (pattern, replace string, err error)

	// TagStartFiles stamps every task's start fid with the newest file of
	// its share so old entries are skipped. Returns the number of tasks
	// tagged.
	TagStartFiles(ctx context.Context, user models.User) (int, error)
}
