// Package app initializes and runs the account lifecycle service. It wires
// the ledger, the Emby gateway, the notification sink, the sweep scheduler
// and the admin API together, and handles graceful shutdown.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/motorinps-dev/emby/internal/config"
	"github.com/motorinps-dev/emby/internal/emby"
	"github.com/motorinps-dev/emby/internal/httpapi"
	"github.com/motorinps-dev/emby/internal/logging"
	"github.com/motorinps-dev/emby/internal/repositories/repomanager"
	"github.com/motorinps-dev/emby/internal/scheduler"
	"github.com/motorinps-dev/emby/internal/services"
	"github.com/motorinps-dev/emby/internal/telegram"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	gateway   *emby.Client
	lifecycle *services.LifecycleService
	admins    *services.AdminService
	api       *httpapi.Server
	sched     *scheduler.Scheduler
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, rm, err := repomanager.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	gateway := emby.NewClient(cfg.EmbyServerURL, cfg.EmbyAPIKey, cfg.RequestTimeout, cfg.PingTimeout)

	var notifier services.Notifier
	if cfg.TelegramBotToken != "" {
		notifier = telegram.NewClient(cfg.TelegramBotToken, cfg.RequestTimeout)
	} else {
		notifier = &logNotifier{logger: logger}
	}

	lifecycle := services.NewLifecycleService(db, rm, gateway, notifier, logger, cfg)
	admins := services.NewAdminService(db, rm, logger)

	api := httpapi.NewServer(cfg.APIAddr, cfg.APIToken, lifecycle, admins, db,
		func(ctx context.Context) error {
			_, err := gateway.TestConnection(ctx)
			return err
		}, logger)

	sched := scheduler.New(logger)
	sched.Add(scheduler.Job{
		Name:         "login-detection",
		Interval:     cfg.LoginSweepInterval,
		InitialDelay: cfg.LoginSweepDelay,
		Run: func(ctx context.Context) error {
			_, err := lifecycle.DetectLogins(ctx)
			return err
		},
	})
	sched.Add(scheduler.Job{
		Name:         "expiry",
		Interval:     cfg.ExpirySweepInterval,
		InitialDelay: cfg.ExpirySweepDelay,
		Run: func(ctx context.Context) error {
			_, err := lifecycle.ExpireAccounts(ctx)
			return err
		},
	})

	return &App{
		config:    cfg,
		logger:    logger,
		db:        db,
		gateway:   gateway,
		lifecycle: lifecycle,
		admins:    admins,
		api:       api,
		sched:     sched,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run() error {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")
	app.initSignalHandler(cancelFunc)

	// connectivity check at boot; a down media server is not fatal because
	// the sweeps retry on their own
	if info, err := app.gateway.TestConnection(ctx); err != nil {
		app.logger.Warn(ctx, "media server unreachable", "error", err.Error())
	} else {
		app.logger.Info(ctx, "media server connected", "name", info.ServerName, "version", info.Version)
	}

	if err := app.admins.Seed(ctx, app.config.FirstAdminChatID); err != nil {
		return fmt.Errorf("admin seed error: %w", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.api.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	app.sched.Start(ctx)

	wg.Wait()
	app.sched.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
	app.logger.Info(ctx, "app stopped")
	return nil
}

// logNotifier is the fallback sink used when no bot token is configured.
type logNotifier struct {
	logger logging.Logger
}

func (n *logNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	n.logger.Info(ctx, "notification", "chat_id", chatID, "text", text)
	return nil
}
