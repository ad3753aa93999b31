// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/internal/store"
	"github.com/leoqin/mediabot/models"
)

const defaultTickInterval = 15 * time.Second

type storeScheduler struct {
	repo     store.ReminderRepository
	notifier Notifier
	location *time.Location
	tick     time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a database-backed [Scheduler]. Jobs survive restarts:
// the fire loop reads due jobs from the repository on every tick, so nothing
// is held in memory between ticks.
func NewScheduler(repo store.ReminderRepository, notifier Notifier, location *time.Location, tick time.Duration, logger *logger.Logger) Scheduler {
	if tick <= 0 {
		tick = defaultTickInterval
	}
	if location == nil {
		location = time.Local
	}

	return &storeScheduler{
		repo:     repo,
		notifier: notifier,
		location: location,
		tick:     tick,
		logger:   logger,
	}
}

func (s *storeScheduler) ScheduleDate(ctx context.Context, userID, chatID int64, content string, runAt time.Time) (models.ReminderJob, error) {
	runAt = runAt.In(s.location)
	if !runAt.After(time.Now().In(s.location)) {
		return models.ReminderJob{}, ErrPastRunTime
	}

	job := models.ReminderJob{
		JobID:    uuid.NewString(),
		UserID:   userID,
		ChatID:   chatID,
		Content:  content,
		Trigger:  models.TriggerDate,
		RunAt:    &runAt,
		NextFire: runAt,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return models.ReminderJob{}, err
	}

	return job, nil
}

func (s *storeScheduler) ScheduleCron(ctx context.Context, userID, chatID int64, content, spec string) (models.ReminderJob, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return models.ReminderJob{}, fmt.Errorf("%w: %w", ErrInvalidCronSpec, err)
	}

	job := models.ReminderJob{
		JobID:    uuid.NewString(),
		UserID:   userID,
		ChatID:   chatID,
		Content:  content,
		Trigger:  models.TriggerCron,
		CronSpec: spec,
		NextFire: schedule.Next(time.Now().In(s.location)),
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return models.ReminderJob{}, err
	}

	return job, nil
}

func (s *storeScheduler) Cancel(ctx context.Context, jobID string) error {
	return s.repo.DeleteJob(ctx, jobID)
}

// Start implements [Scheduler]. It stops any previously running loop first,
// so calling Start twice does not leak goroutines.
func (s *storeScheduler) Start(ctx context.Context) {
	s.Stop()

	s.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		t := time.NewTicker(s.tick)
		defer t.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-t.C:
				s.fireDue(loopCtx)
			}
		}
	}()
}

// Stop implements [Scheduler]. Safe to call when the loop is not running.
func (s *storeScheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// fireDue delivers every job whose next fire time has passed. Delivery
// failures are logged, not retried: a one-shot job is consumed either way
// and a cron job gets its next occurrence.
func (s *storeScheduler) fireDue(ctx context.Context) {
	now := time.Now().In(s.location)

	jobs, err := s.repo.ListDueJobs(ctx, now)
	if err != nil {
		s.logger.Err(err).Msg("listing due reminder jobs failed")
		return
	}

	for _, job := range jobs {
		if err := s.notifier.Notify(ctx, job.ChatID, job.Content); err != nil {
			s.logger.Err(err).Str("job_id", job.JobID).Int64("chat_id", job.ChatID).Msg("reminder delivery failed")
		}

		switch job.Trigger {
		case models.TriggerCron:
			s.rearm(ctx, job, now)
		default:
			if err := s.repo.DeleteJob(ctx, job.JobID); err != nil {
				s.logger.Err(err).Str("job_id", job.JobID).Msg("deleting fired reminder job failed")
			}
		}
	}
}

func (s *storeScheduler) rearm(ctx context.Context, job models.ReminderJob, now time.Time) {
	schedule, err := cron.ParseStandard(job.CronSpec)
	if err != nil {
		// Unparseable spec in the table, drop the job so it stops firing.
		s.logger.Err(err).Str("job_id", job.JobID).Str("spec", job.CronSpec).Msg("stored cron spec no longer parses, removing job")
		if err := s.repo.DeleteJob(ctx, job.JobID); err != nil {
			s.logger.Err(err).Str("job_id", job.JobID).Msg("deleting broken cron job failed")
		}
		return
	}

	if err := s.repo.UpdateNextFire(ctx, job.JobID, schedule.Next(now)); err != nil {
		s.logger.Err(err).Str("job_id", job.JobID).Msg("re-arming cron job failed")
	}
}
