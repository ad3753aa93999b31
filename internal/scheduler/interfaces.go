// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

// Package scheduler runs reminder jobs out of the database. Jobs fire either
// once at a fixed time or repeatedly on a standard 5-field cron expression;
// due jobs are picked up by a ticker loop, delivered through a [Notifier],
// and then deleted (one-shot) or re-armed with their next fire time (cron).
//
// A companion sweep loop reconciles the user-facing reminder links against
// the job table, tombstoning links whose job no longer exists.
package scheduler

import (
	"context"
	"time"

	"github.com/leoqin/mediabot/models"
)

// Notifier delivers a fired reminder to its chat. The bot transport
// implements it; tests substitute a recorder.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Scheduler owns the reminder job table.
type Scheduler interface {
	// ScheduleDate registers a one-shot job firing at runAt.
	ScheduleDate(ctx context.Context, userID, chatID int64, content string, runAt time.Time) (models.ReminderJob, error)

	// ScheduleCron registers a repeating job on a 5-field cron expression,
	// evaluated in the scheduler's location.
	ScheduleCron(ctx context.Context, userID, chatID int64, content, spec string) (models.ReminderJob, error)

	// Cancel removes a job. Returns [store.ErrJobNotFound] when the job is
	// already gone.
	Cancel(ctx context.Context, jobID string) error

	// Start launches the fire loop. It is idle until called.
	Start(ctx context.Context)

	// Stop cancels the fire loop and blocks until it has exited.
	Stop()
}
