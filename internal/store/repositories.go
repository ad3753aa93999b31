package store

import "github.com/leoqin/mediabot/internal/logger"

// Repositories aggregates every repository over one database connection.
type Repositories struct {
	Users        UserRepository
	EmbyConfigs  EmbyConfigRepository
	QASConfigs   QASConfigRepository
	AIConfigs    AIProviderConfigRepository
	Reminders    ReminderRepository
	OperationLog OperationLogRepository
}

// NewRepositories wires all repositories over db.
func NewRepositories(db *DB, log *logger.Logger) *Repositories {
	return &Repositories{
		Users:        NewUserRepository(db, log),
		EmbyConfigs:  NewEmbyConfigRepository(db, log),
		QASConfigs:   NewQASConfigRepository(db, log),
		AIConfigs:    NewAIProviderConfigRepository(db, log),
		Reminders:    NewReminderRepository(db, log),
		OperationLog: NewOperationLogRepository(db, log),
	}
}
