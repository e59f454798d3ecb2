// Package worker runs background jobs with single-flight semantics.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Runner executes at most one background job at a time. Admission is a
// single-slot channel: a job either takes the slot immediately or is
// rejected, there is no waiting queue.
type Runner struct {
	slot   chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

// NewRunner creates a runner. Jobs receive a context that is cancelled
// on Stop.
func NewRunner(log zerolog.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		slot:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		log:    log.With().Str("component", "worker-runner").Logger(),
	}
}

// TryRun starts fn in a goroutine if the slot is free. It returns false
// without blocking when another job is already running.
func (r *Runner) TryRun(name string, fn func(ctx context.Context)) bool {
	select {
	case r.slot <- struct{}{}:
	default:
		return false
	}

	r.wg.Add(1)
	go func() {
		started := time.Now()
		defer func() {
			<-r.slot
			r.wg.Done()
			r.log.Info().Str("job", name).Dur("elapsed", time.Since(started)).Msg("background job finished")
		}()
		r.log.Info().Str("job", name).Msg("background job started")
		fn(r.ctx)
	}()
	return true
}

// Stop cancels the running job, if any, and waits for it to return or
// for ctx to expire.
func (r *Runner) Stop(ctx context.Context) error {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
