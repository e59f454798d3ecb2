//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"chat-archive/internal/config"
	"chat-archive/internal/domain/conversation"
	"chat-archive/internal/domain/importer"
	"chat-archive/internal/domain/jobs"
	"chat-archive/internal/domain/remote"
	"chat-archive/internal/domain/setting"
	"chat-archive/internal/domain/sync"
	"chat-archive/internal/infrastructure/crontab"
	"chat-archive/internal/infrastructure/database"
	"chat-archive/internal/infrastructure/logger"
	"chat-archive/internal/infrastructure/metrics"
	"chat-archive/internal/infrastructure/openwebui"
	"chat-archive/internal/infrastructure/queue"
	conversationrepo "chat-archive/internal/infrastructure/repository/conversation"
	settingsrepo "chat-archive/internal/infrastructure/repository/settings"
	topicrepo "chat-archive/internal/infrastructure/repository/topic"
	"chat-archive/internal/interfaces/httpserver"
	"chat-archive/internal/webhook"
	"chat-archive/internal/worker"
)

var repositorySet = wire.NewSet(
	conversationrepo.NewRepository,
	wire.Bind(new(conversation.Repository), new(*conversationrepo.Repository)),
	conversationrepo.NewMessageRepository,
	wire.Bind(new(conversation.MessageRepository), new(*conversationrepo.MessageRepository)),
	topicrepo.NewRepository,
	wire.Bind(new(conversation.TopicRepository), new(*topicrepo.Repository)),
	settingsrepo.NewRepository,
	wire.Bind(new(setting.Store), new(*settingsrepo.Repository)),
	queue.NewPostgresQueue,
	wire.Bind(new(jobs.Queue), new(*queue.PostgresQueue)),
)

var syncSet = wire.NewSet(
	newUpserter,
	sync.NewState,
	sync.NewService,
	worker.NewRunner,
	wire.Bind(new(sync.Runner), new(*worker.Runner)),
	newWebhookService,
	wire.Bind(new(sync.Notifier), new(*webhook.HTTPService)),
	newMetricsRecorder,
	wire.Bind(new(sync.Recorder), new(metrics.Recorder)),
)

var serviceSet = wire.NewSet(
	importer.NewService,
	conversation.NewService,
)

// BuildApplication assembles the archive service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newClientFactory,
		repositorySet,
		syncSet,
		serviceSet,
		httpserver.New,
		crontab.NewCrontab,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newUpserter(messages conversation.MessageRepository, jobQueue jobs.Queue, cfg *config.Config, log zerolog.Logger) *sync.MessageUpserter {
	return sync.NewMessageUpserter(messages, jobQueue, cfg.EmbeddingModel, log)
}

func newWebhookService(cfg *config.Config, log zerolog.Logger) *webhook.HTTPService {
	return webhook.NewHTTPService(cfg.SyncWebhookURL, log)
}

func newMetricsRecorder() metrics.Recorder {
	return metrics.Recorder{}
}

func newClientFactory(cfg *config.Config) remote.Factory {
	return openwebui.NewFactory(openwebui.Options{
		Timeout:   cfg.RemoteTimeout,
		VerifySSL: cfg.RemoteVerifySSL,
	})
}
