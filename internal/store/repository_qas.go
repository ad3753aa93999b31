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

// qasConfigRepository is the SQLite-backed implementation of
// [QASConfigRepository]. One row per user.
type qasConfigRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewQASConfigRepository constructs a [QASConfigRepository] backed by the
// provided database connection and logger.
func NewQASConfigRepository(db *DB, logger *logger.Logger) QASConfigRepository {
	logger.Debug().Msg("creating qas config repository")
	return &qasConfigRepository{
		db:     db,
		logger: logger,
	}
}

// GetByUserID retrieves the user's quark-auto-save row.
// Returns [ErrConfigNotFound] when the user never configured it.
func (r *qasConfigRepository) GetByUserID(ctx context.Context, userID int64) (models.QASConfig, error) {
	var cfg models.QASConfig
	row := r.db.QueryRowContext(ctx, getQASConfig, userID)

	if err := row.Scan(&cfg.ConfigID, &cfg.UserID, &cfg.Host, &cfg.APIToken, &cfg.SavePathPrefix, &cfg.MovieSavePathPrefix, &cfg.Pattern, &cfg.Replace, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.QASConfig{}, ErrConfigNotFound
		}
		return models.QASConfig{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return cfg, nil
}

// Upsert implements [QASConfigRepository]. Absent (nil) fields of update
// keep their stored values; on first insert they take their documented
// defaults.
func (r *qasConfigRepository) Upsert(ctx context.Context, userID int64, update models.QASConfigUpdate) (models.QASConfig, error) {
	log := logger.FromContext(ctx)

	existing, err := r.GetByUserID(ctx, userID)
	if errors.Is(err, ErrConfigNotFound) {
		return r.insert(ctx, userID, update)
	}
	if err != nil {
		return models.QASConfig{}, err
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
	if update.SavePathPrefix != nil {
		builder = builder.Set("save_path_prefix", *update.SavePathPrefix)
		changed = true
	}
	if update.MovieSavePathPrefix != nil {
		builder = builder.Set("movie_save_path_prefix", *update.MovieSavePathPrefix)
		changed = true
	}
	if update.Pattern != nil {
		builder = builder.Set("pattern", *update.Pattern)
		changed = true
	}
	if update.Replace != nil {
		builder = builder.Set(`"replace"`, *update.Replace)
		changed = true
	}

	if !changed {
		return existing, nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return models.QASConfig{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "*qasConfigRepository.Upsert").Msg("error: update error")
		return models.QASConfig{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return r.GetByUserID(ctx, userID)
}

func (r *qasConfigRepository) insert(ctx context.Context, userID int64, update models.QASConfigUpdate) (models.QASConfig, error) {
	host := stringOrEmpty(update.Host)
	token := stringOrEmpty(update.APIToken)
	savePrefix := stringOr(update.SavePathPrefix, models.DefaultQASSavePathPrefix)
	moviePrefix := stringOr(update.MovieSavePathPrefix, models.DefaultQASSavePathPrefix)
	pattern := stringOr(update.Pattern, models.DefaultQASPattern)
	replace := stringOr(update.Replace, models.DefaultQASReplace)

	if _, err := r.db.ExecContext(ctx, insertQASConfig, userID, host, token, savePrefix, moviePrefix, pattern, replace); err != nil {
		return models.QASConfig{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return r.GetByUserID(ctx, userID)
}
