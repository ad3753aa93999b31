package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/models"
)

// embyConfigRepository is the SQLite-backed implementation of
// [EmbyConfigRepository]. One row per user.
type embyConfigRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewEmbyConfigRepository constructs an [EmbyConfigRepository] backed by the
// provided database connection and logger.
func NewEmbyConfigRepository(db *DB, logger *logger.Logger) EmbyConfigRepository {
	logger.Debug().Msg("creating emby config repository")
	return &embyConfigRepository{
		db:     db,
		logger: logger,
	}
}

// GetByUserID retrieves the user's Emby connection row.
// Returns [ErrConfigNotFound] when the user never configured Emby.
func (r *embyConfigRepository) GetByUserID(ctx context.Context, userID int64) (models.EmbyConfig, error) {
	var cfg models.EmbyConfig
	row := r.db.QueryRowContext(ctx, getEmbyConfig, userID)

	if err := row.Scan(&cfg.ConfigID, &cfg.UserID, &cfg.Host, &cfg.APIToken, &cfg.Username, &cfg.Password, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.EmbyConfig{}, ErrConfigNotFound
		}
		return models.EmbyConfig{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return cfg, nil
}

// Upsert implements [EmbyConfigRepository]. Absent (nil) fields of update
// keep their stored values, so repeating the same upsert is idempotent.
func (r *embyConfigRepository) Upsert(ctx context.Context, userID int64, update models.EmbyConfigUpdate) (models.EmbyConfig, error) {
	log := logger.FromContext(ctx)

	existing, err := r.GetByUserID(ctx, userID)
	if errors.Is(err, ErrConfigNotFound) {
		return r.insert(ctx, userID, update)
	}
	if err != nil {
		return models.EmbyConfig{}, err
	}

	builder := sq.Update(existing.TableName()).
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"user_id": userID})

	changed := false
	if update.Host != nil {
		builder = builder.Set("host", *update.Host)
		changed = true
	}
	if update.APIToken != nil {
		builder = builder.Set("api_token", *update.APIToken)
		changed = true
	}
	if update.Username != nil {
		builder = builder.Set("username", *update.Username)
		changed = true
	}
	if update.Password != nil {
		builder = builder.Set("password", *update.Password)
		changed = true
	}

	// Nothing to change: the stored row already is the requested state.
	if !changed {
		return existing, nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return models.EmbyConfig{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "*embyConfigRepository.Upsert").Msg("error: update error")
		return models.EmbyConfig{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return r.GetByUserID(ctx, userID)
}

func (r *embyConfigRepository) insert(ctx context.Context, userID int64, update models.EmbyConfigUpdate) (models.EmbyConfig, error) {
	host := stringOrEmpty(update.Host)
	token := stringOrEmpty(update.APIToken)
	username := stringOrEmpty(update.Username)
	password := stringOrEmpty(update.Password)

	if _, err := r.db.ExecContext(ctx, insertEmbyConfig, userID, host, token, username, password); err != nil {
		return models.EmbyConfig{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return r.GetByUserID(ctx, userID)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stringOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
