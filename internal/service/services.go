package service

import (
	"time"

	"github.com/leoqin/mediabot/internal/adapter"
	"github.com/leoqin/mediabot/internal/crypto"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/internal/scheduler"
	"github.com/leoqin/mediabot/internal/store"
)

// Clients bundles the external clients the services depend on.
type Clients struct {
	CloudSaver adapter.CloudSaverClient
	PanSou     adapter.PanSouClient
	Quark      adapter.QuarkClient
	Emby       adapter.EmbyClient
	TMDB       adapter.TMDBClient
	QAS        adapter.QASClient
	AI         adapter.AIChatClient
}

// Services aggregates every use-case service of the bot.
type Services struct {
	Users     UserService
	Configs   ConfigService
	Reminders ReminderService
	Search    SearchService
	Media     MediaService
	QAS       QASService
}

// NewServices wires all services over the shared dependencies. location is
// the timezone reminders are interpreted in.
func NewServices(repos *store.Repositories, codec crypto.CredentialCodec, clients Clients, sched scheduler.Scheduler, location *time.Location, log *logger.Logger) *Services {
	audit := newAuditor(repos.OperationLog, log)
	configSvc := NewConfigService(repos, codec, audit, log)

	return &Services{
		Users:     NewUserService(repos, audit, log),
		Configs:   configSvc,
		Reminders: NewReminderService(repos.Reminders, configSvc, clients.AI, sched, audit, location, log),
		Search:    NewSearchService(clients.CloudSaver, clients.PanSou, clients.Quark, audit, log),
		Media:     NewMediaService(clients.Emby, clients.TMDB, configSvc, audit, log),
		QAS:       NewQASService(clients.QAS, clients.Quark, clients.AI, configSvc, audit, log),
	}
}
