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

// aiProviderConfigRepository is the SQLite-backed implementation of
// [AIProviderConfigRepository]. One row per (user, provider).
type aiProviderConfigRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewAIProviderConfigRepository constructs an [AIProviderConfigRepository]
// backed by the provided database connection and logger.
func NewAIProviderConfigRepository(db *DB, logger *logger.Logger) AIProviderConfigRepository {
	logger.Debug().Msg("creating ai provider config repository")
	return &aiProviderConfigRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the user's config for one provider.
// Returns [ErrConfigNotFound] when no row exists.
func (r *aiProviderConfigRepository) Get(ctx context.Context, userID int64, provider string) (models.AIProviderConfig, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, getAIProviderConfig, userID, provider))
}

// GetDefault retrieves the user's default provider config.
// Returns [ErrConfigNotFound] when the user has no default.
func (r *aiProviderConfigRepository) GetDefault(ctx context.Context, userID int64) (models.AIProviderConfig, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, getDefaultAIProviderConfig, userID))
}

// ListByUser returns all of the user's provider configs in display order.
func (r *aiProviderConfigRepository) ListByUser(ctx context.Context, userID int64) ([]models.AIProviderConfig, error) {
	rows, err := r.db.QueryContext(ctx, listAIProviderConfigs, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var configs []models.AIProviderConfig
	for rows.Next() {
		var cfg models.AIProviderConfig
		if err := rows.Scan(&cfg.ConfigID, &cfg.UserID, &cfg.ProviderName, &cfg.APIKey, &cfg.Host, &cfg.Model, &cfg.IsDefault, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		configs = append(configs, cfg)
	}

	return configs, rows.Err()
}

// Upsert implements [AIProviderConfigRepository]. The provider flow commits
// one field per user input: a missing row is created with the provided
// fields and the rest empty, an existing row gets only the non-nil fields
// overwritten.
func (r *aiProviderConfigRepository) Upsert(ctx context.Context, userID int64, provider string, update models.AIProviderConfigUpdate) (models.AIProviderConfig, error) {
	log := logger.FromContext(ctx)

	existing, err := r.Get(ctx, userID, provider)
	if errors.Is(err, ErrConfigNotFound) {
		return r.insert(ctx, userID, provider, update)
	}
	if err != nil {
		return models.AIProviderConfig{}, err
	}

	builder := sq.Update(existing.TableName()).
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"user_id": userID, "provider_name": provider})

	changed := false
	if update.APIKey != nil {
		builder = builder.Set("api_key", *update.APIKey)
		changed = true
	}
	if update.Host != nil {
		builder = builder.Set("host", *update.Host)
		changed = true
	}
	if update.Model != nil {
		builder = builder.Set("model", *update.Model)
		changed = true
	}
	if update.IsDefault != nil {
		builder = builder.Set("is_default", *update.IsDefault)
		changed = true
	}

	if !changed {
		return existing, nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return models.AIProviderConfig{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "*aiProviderConfigRepository.Upsert").Msg("error: update error")
		return models.AIProviderConfig{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return r.Get(ctx, userID, provider)
}

// Delete removes the user's config for one provider.
// Returns [ErrConfigNotFound] when no row matched.
func (r *aiProviderConfigRepository) Delete(ctx context.Context, userID int64, provider string) error {
	res, err := r.db.ExecContext(ctx, deleteAIProviderConfig, userID, provider)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrConfigNotFound
	}

	return nil
}

// SetDefault implements [AIProviderConfigRepository]. The clear and the mark
// run in one transaction so the user never ends up with two defaults.
func (r *aiProviderConfigRepository) SetDefault(ctx context.Context, userID int64, provider string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, clearDefaultAIProvider, userID); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	res, err := tx.ExecContext(ctx, markDefaultAIProvider, userID, provider)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrConfigNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

func (r *aiProviderConfigRepository) insert(ctx context.Context, userID int64, provider string, update models.AIProviderConfigUpdate) (models.AIProviderConfig, error) {
	apiKey := stringOrEmpty(update.APIKey)
	host := stringOrEmpty(update.Host)
	model := stringOrEmpty(update.Model)
	isDefault := update.IsDefault != nil && *update.IsDefault

	if _, err := r.db.ExecContext(ctx, insertAIProviderConfig, userID, provider, apiKey, host, model, isDefault); err != nil {
		return models.AIProviderConfig{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return r.Get(ctx, userID, provider)
}

func (r *aiProviderConfigRepository) scanOne(row *sql.Row) (models.AIProviderConfig, error) {
	var cfg models.AIProviderConfig
	if err := row.Scan(&cfg.ConfigID, &cfg.UserID, &cfg.ProviderName, &cfg.APIKey, &cfg.Host, &cfg.Model, &cfg.IsDefault, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AIProviderConfig{}, ErrConfigNotFound
		}
		return models.AIProviderConfig{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return cfg, nil
}
