package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"chat-archive/internal/config"
	"chat-archive/internal/domain/conversation"
	"chat-archive/internal/domain/importer"
	"chat-archive/internal/domain/sync"
	"chat-archive/internal/infrastructure/crontab"
	"chat-archive/internal/infrastructure/database"
	"chat-archive/internal/infrastructure/logger"
	"chat-archive/internal/infrastructure/metrics"
	"chat-archive/internal/infrastructure/observability"
	"chat-archive/internal/infrastructure/openwebui"
	"chat-archive/internal/infrastructure/queue"
	conversationrepo "chat-archive/internal/infrastructure/repository/conversation"
	settingsrepo "chat-archive/internal/infrastructure/repository/settings"
	topicrepo "chat-archive/internal/infrastructure/repository/topic"
	"chat-archive/internal/interfaces/httpserver"
	"chat-archive/internal/webhook"
	"chat-archive/internal/worker"
)

// @title Chat Archive API
// @version 1.0
// @description Conversation archive with OpenWebUI sync and bulk chat imports
// @BasePath /
type Application struct {
	httpServer *httpserver.HttpServer
	cron       *crontab.Crontab
	runner     *worker.Runner
	cfg        *config.Config
	log        zerolog.Logger
}

func NewApplication(
	httpServer *httpserver.HttpServer,
	cron *crontab.Crontab,
	runner *worker.Runner,
	cfg *config.Config,
	log zerolog.Logger,
) *Application {
	return &Application{
		httpServer: httpServer,
		cron:       cron,
		runner:     runner,
		cfg:        cfg,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.httpServer.Run(gctx)
	})
	g.Go(func() error {
		return a.cron.Run(gctx)
	})
	err := g.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if stopErr := a.runner.Stop(stopCtx); stopErr != nil {
		a.log.Warn().Err(stopErr).Msg("background runner did not stop cleanly")
	}
	return err
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	conversationRepo := conversationrepo.NewRepository(db)
	messageRepo := conversationrepo.NewMessageRepository(db)
	topicRepo := topicrepo.NewRepository(db)
	settingsRepo := settingsrepo.NewRepository(db)
	jobQueue := queue.NewPostgresQueue(db, log)

	upserter := sync.NewMessageUpserter(messageRepo, jobQueue, cfg.EmbeddingModel, log)
	clientFactory := openwebui.NewFactory(openwebui.Options{
		Timeout:   cfg.RemoteTimeout,
		VerifySSL: cfg.RemoteVerifySSL,
	})

	runner := worker.NewRunner(log)
	notifier := webhook.NewHTTPService(cfg.SyncWebhookURL, log)
	syncService := sync.NewService(
		conversationRepo,
		topicRepo,
		settingsRepo,
		upserter,
		clientFactory,
		sync.NewState(),
		runner,
		notifier,
		metrics.Recorder{},
		log,
	)

	importService := importer.NewService(conversationRepo, messageRepo, upserter, log)
	conversationService := conversation.NewService(conversationRepo, topicRepo, log)

	httpServer := httpserver.New(cfg, log, syncService, importService, conversationService)
	cron := crontab.NewCrontab(cfg, syncService, jobQueue, log)
	app := NewApplication(httpServer, cron, runner, cfg, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
