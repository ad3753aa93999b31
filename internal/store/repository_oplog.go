package store

import (
	"context"
	"fmt"

	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/models"
)

// operationLogRepository is the SQLite-backed implementation of
// [OperationLogRepository]. Append-only.
type operationLogRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewOperationLogRepository constructs an [OperationLogRepository] backed by
// the provided database connection and logger.
func NewOperationLogRepository(db *DB, logger *logger.Logger) OperationLogRepository {
	logger.Debug().Msg("creating operation log repository")
	return &operationLogRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes one audit row.
func (r *operationLogRepository) Append(ctx context.Context, entry models.OperationLog) error {
	if _, err := r.db.ExecContext(ctx, appendOperationLog,
		entry.UserID, string(entry.Operation), entry.TargetTable, entry.TargetID, entry.Description); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
