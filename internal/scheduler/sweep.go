package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/internal/store"
)

const defaultSweepInterval = time.Minute

// SweepJob periodically tombstones reminder links whose scheduler job has
// disappeared (fired one-shots, jobs cancelled out of band).
type SweepJob struct {
	repo     store.ReminderRepository
	interval time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweepJob creates a reconciliation sweep. The job is idle until Start
// is called.
func NewSweepJob(repo store.ReminderRepository, interval time.Duration, logger *logger.Logger) *SweepJob {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &SweepJob{
		repo:     repo,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the sweep loop. It stops any previously running loop first.
func (j *SweepJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-t.C:
				j.sweep(loopCtx)
			}
		}
	}()
}

// Stop cancels the sweep loop and blocks until it has exited. Safe to call
// when the loop is not running.
func (j *SweepJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *SweepJob) sweep(ctx context.Context) {
	count, err := j.repo.TombstoneOrphanLinks(ctx, time.Now())
	if err != nil {
		j.logger.Err(err).Msg("reminder link sweep failed")
		return
	}
	if count > 0 {
		j.logger.Info().Int64("count", count).Msg("tombstoned orphaned reminder links")
	}
}
