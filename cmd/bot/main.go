package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/leoqin/mediabot/internal/adapter"
	"github.com/leoqin/mediabot/internal/bot"
	"github.com/leoqin/mediabot/internal/config"
	"github.com/leoqin/mediabot/internal/crypto"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/internal/scheduler"
	"github.com/leoqin/mediabot/internal/service"
	"github.com/leoqin/mediabot/internal/store"
	"github.com/leoqin/mediabot/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

// lateNotifier breaks the construction cycle between the scheduler and the
// bot: the scheduler needs a notifier before the bot transport exists.
type lateNotifier struct {
	target scheduler.Notifier
}

func (n *lateNotifier) Notify(ctx context.Context, chatID int64, text string) error {
	if n.target == nil {
		return fmt.Errorf("notifier not wired yet")
	}
	return n.target.Notify(ctx, chatID, text)
}

func main() {
	printBuildInfo()

	log := logger.NewLogger("mediabot")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.NewConnectSQLite(ctx, cfg.Storage.DB, logger.NewLogger("store"))
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("error applying migrations")
	}

	repos := store.NewRepositories(db, logger.NewLogger("store"))
	codec := crypto.NewCredentialCodec(cfg.Crypto.Password, cfg.Crypto.Salt)

	location, err := time.LoadLocation(cfg.App.TimeZone)
	if err != nil {
		log.Fatal().Err(err).Str("time_zone", cfg.App.TimeZone).Msg("error loading timezone")
	}

	adapterLog := logger.NewLogger("adapter")
	timeout := cfg.Adapter.RequestTimeout
	clients := service.Clients{
		CloudSaver: adapter.NewCloudSaverClient(cfg.Adapter.CloudSaver, timeout, adapterLog),
		PanSou:     adapter.NewPanSouClient(cfg.Adapter.PanSou, adapterLog),
		Quark:      adapter.NewQuarkClient(timeout, adapterLog),
		Emby:       adapter.NewEmbyClient(timeout, adapterLog),
		TMDB:       adapter.NewTMDBClient(cfg.Adapter.TMDB, timeout, adapterLog),
		QAS:        adapter.NewQASClient(timeout, adapterLog),
		AI:         adapter.NewAIChatClient(adapterLog),
	}

	notifier := &lateNotifier{}
	sched := scheduler.NewScheduler(repos.Reminders, notifier, location, cfg.Workers.TickInterval, logger.NewLogger("scheduler"))
	sweep := scheduler.NewSweepJob(repos.Reminders, cfg.Workers.SweepInterval, logger.NewLogger("scheduler"))

	services := service.NewServices(repos, codec, clients, sched, location, logger.NewLogger("service"))

	flows, err := bot.NewFlowEngine(services, logger.NewLogger("conversation"))
	if err != nil {
		log.Fatal().Err(err).Msg("error building conversation flows")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to telegram")
	}

	tgBot := bot.New(api, services, flows, cfg.Bot.PollTimeout, logger.NewLogger("bot"))
	notifier.target = tgBot

	group := workers.NewWorkers(sched, sweep, tgBot)
	group.Start(ctx)
	log.Info().Str("version", cfg.App.Version).Str("bot", api.Self.UserName).Msg("mediabot started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	group.Stop()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
