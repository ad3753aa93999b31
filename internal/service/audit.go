package service

import (
	"context"

	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/internal/store"
	"github.com/leoqin/mediabot/models"
)

// auditor appends operation log rows. Audit failures are logged and
// swallowed so they never fail the operation they describe.
type auditor struct {
	oplog  store.OperationLogRepository
	logger *logger.Logger
}

func newAuditor(oplog store.OperationLogRepository, log *logger.Logger) *auditor {
	return &auditor{oplog: oplog, logger: log}
}

func (a *auditor) record(ctx context.Context, userID int64, op models.Operation, table, targetID, description string) {
	entry := models.OperationLog{
		UserID:      userID,
		Operation:   op,
		TargetTable: table,
		TargetID:    targetID,
		Description: description,
	}
	if err := a.oplog.Append(ctx, entry); err != nil {
		a.logger.Error().Err(err).
			Str("table", table).
			Str("operation", string(op)).
			Msg("failed to append operation log entry")
	}
}
