// Package crontab schedules the periodic background sync.
package crontab

import (
	"context"
	"fmt"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"chat-archive/internal/config"
	"chat-archive/internal/domain/jobs"
	"chat-archive/internal/domain/sync"
	"chat-archive/internal/infrastructure/metrics"
	"chat-archive/internal/utils/platformerrors"
)

const (
	DefaultSyncInterval = 60              // in minutes
	JobTimeout          = 1 * time.Minute // Timeout for housekeeping jobs
)

type Crontab struct {
	ctab  *crontab.Crontab
	cfg   *config.Config
	sync  *sync.Service
	queue jobs.Queue
	log   zerolog.Logger
}

func NewCrontab(cfg *config.Config, syncService *sync.Service, jobQueue jobs.Queue, log zerolog.Logger) *Crontab {
	return &Crontab{
		ctab:  crontab.New(),
		cfg:   cfg,
		sync:  syncService,
		queue: jobQueue,
		log:   log.With().Str("component", "crontab").Logger(),
	}
}

// Run installs the scheduled jobs and blocks until ctx is cancelled.
func (c *Crontab) Run(ctx context.Context) error {
	if c.cfg.SyncRunOnStart {
		c.triggerSync(ctx)
	}

	if c.cfg.SyncScheduleEnabled {
		syncInterval := c.cfg.SyncIntervalMinutes
		if syncInterval <= 0 {
			syncInterval = DefaultSyncInterval
		}

		cronExpr := fmt.Sprintf("*/%d * * * *", syncInterval)
		if err := c.ctab.AddJob(cronExpr, func() {
			c.triggerSync(context.Background())
		}); err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
				"failed to add sync job", err, "schedule-sync-job-error")
		}
		c.log.Info().Msgf("Background sync scheduled: every %d minute(s)", syncInterval)
	}

	// Keep the embedding queue depth gauge current.
	if err := c.ctab.AddJob("* * * * *", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), JobTimeout)
		defer cancel()
		c.updateQueueDepth(jobCtx)
	}); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
			"failed to add queue depth job", err, "schedule-queue-depth-job-error")
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) updateQueueDepth(ctx context.Context) {
	depth, err := c.queue.Depth(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to read embedding queue depth")
		return
	}
	metrics.SetEmbeddingQueueDepth(depth)
}

// triggerSync starts a background sync run. The run itself owns its
// lifetime; an already running sync or missing credentials are normal
// conditions here, not errors.
func (c *Crontab) triggerSync(ctx context.Context) {
	status := c.sync.StartBackground(ctx)
	switch status.Status {
	case "started":
		c.log.Info().Msg("Scheduled sync started")
	case "already_running":
		c.log.Info().Msg("Scheduled sync skipped: previous run still in progress")
	default:
		c.log.Warn().Str("error", status.Error).Msg("Scheduled sync could not start")
	}
}
