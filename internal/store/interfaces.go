package store

import (
	"context"
	"time"

	"github.com/leoqin/mediabot/models"
)

// UserRepository handles account rows keyed by Telegram id.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByTgID(ctx context.Context, tgID int64) (models.User, error)
	CountUsers(ctx context.Context) (int64, error)
	ListUsersByTgIDs(ctx context.Context, tgIDs []int64) ([]models.User, error)
	UpdateUserRole(ctx context.Context, tgID int64, role models.RoleName) error
	UpdateUserSettings(ctx context.Context, userID int64, settings models.UserSettings) error
}

// EmbyConfigRepository stores per-user Emby connections. Secret fields are
// already encrypted when they reach the repository.
type EmbyConfigRepository interface {
	GetByUserID(ctx context.Context, userID int64) (models.EmbyConfig, error)
	// Upsert inserts a new row or applies the non-nil fields of update to
	// the existing one, returning the resulting config.
	Upsert(ctx context.Context, userID int64, update models.EmbyConfigUpdate) (models.EmbyConfig, error)
}

// QASConfigRepository stores per-user quark-auto-save endpoints.
type QASConfigRepository interface {
	GetByUserID(ctx context.Context, userID int64) (models.QASConfig, error)
	Upsert(ctx context.Context, userID int64, update models.QASConfigUpdate) (models.QASConfig, error)
}

// AIProviderConfigRepository stores per-user AI provider credentials, one
// row per (user, provider).
type AIProviderConfigRepository interface {
	Get(ctx context.Context, userID int64, provider string) (models.AIProviderConfig, error)
	GetDefault(ctx context.Context, userID int64) (models.AIProviderConfig, error)
	ListByUser(ctx context.Context, userID int64) ([]models.AIProviderConfig, error)
	Upsert(ctx context.Context, userID int64, provider string, update models.AIProviderConfigUpdate) (models.AIProviderConfig, error)
	Delete(ctx context.Context, userID int64, provider string) error
	// SetDefault clears the user's previous default and marks provider in
	// a single transaction.
	SetDefault(ctx context.Context, userID int64, provider string) error
}

// ReminderRepository owns both sides of the reminder ledger: scheduler jobs
// and the per-user link rows the sweep reconciles against them.
type ReminderRepository interface {
	CreateJob(ctx context.Context, job models.ReminderJob) error
	GetJob(ctx context.Context, jobID string) (models.ReminderJob, error)
	DeleteJob(ctx context.Context, jobID string) error
	ListDueJobs(ctx context.Context, now time.Time) ([]models.ReminderJob, error)
	UpdateNextFire(ctx context.Context, jobID string, next time.Time) error

	CreateLink(ctx context.Context, link models.ReminderLink) (models.ReminderLink, error)
	GetLink(ctx context.Context, jobID string) (models.ReminderLink, error)
	// ListUserLinks returns one page of the user's live links plus the
	// total live-link count for pagination.
	ListUserLinks(ctx context.Context, userID int64, offset, limit int) ([]models.ReminderLink, int64, error)
	SoftDeleteLink(ctx context.Context, jobID string) error
	// TombstoneOrphanLinks sets deleted_at on live links whose scheduler
	// job no longer exists. Returns the number of tombstoned rows.
	TombstoneOrphanLinks(ctx context.Context, now time.Time) (int64, error)
}

// OperationLogRepository appends audit rows.
type OperationLogRepository interface {
	Append(ctx context.Context, entry models.OperationLog) error
}
