// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/internal/store"
	"github.com/leoqin/mediabot/models"
)

// stubReminderRepo is an in-memory store.ReminderRepository.
type stubReminderRepo struct {
	jobs  map[string]models.ReminderJob
	links map[string]models.ReminderLink

	tombstoned int
}

func newStubReminderRepo() *stubReminderRepo {
	return &stubReminderRepo{
		jobs:  map[string]models.ReminderJob{},
		links: map[string]models.ReminderLink{},
	}
}

func (r *stubReminderRepo) CreateJob(_ context.Context, job models.ReminderJob) error {
	r.jobs[job.JobID] = job
	return nil
}

func (r *stubReminderRepo) GetJob(_ context.Context, jobID string) (models.ReminderJob, error) {
	job, ok := r.jobs[jobID]
	if !ok {
		return models.ReminderJob{}, store.ErrJobNotFound
	}
	return job, nil
}

func (r *stubReminderRepo) DeleteJob(_ context.Context, jobID string) error {
	if _, ok := r.jobs[jobID]; !ok {
		return store.ErrJobNotFound
	}
	delete(r.jobs, jobID)
	return nil
}

func (r *stubReminderRepo) ListDueJobs(_ context.Context, now time.Time) ([]models.ReminderJob, error) {
	var due []models.ReminderJob
	for _, job := range r.jobs {
		if !job.NextFire.After(now) {
			due = append(due, job)
		}
	}
	return due, nil
}

func (r *stubReminderRepo) UpdateNextFire(_ context.Context, jobID string, next time.Time) error {
	job, ok := r.jobs[jobID]
	if !ok {
		return store.ErrJobNotFound
	}
	job.NextFire = next
	r.jobs[jobID] = job
	return nil
}

func (r *stubReminderRepo) CreateLink(_ context.Context, link models.ReminderLink) (models.ReminderLink, error) {
	r.links[link.JobID] = link
	return link, nil
}

func (r *stubReminderRepo) GetLink(_ context.Context, jobID string) (models.ReminderLink, error) {
	link, ok := r.links[jobID]
	if !ok {
		return models.ReminderLink{}, store.ErrLinkNotFound
	}
	return link, nil
}

func (r *stubReminderRepo) ListUserLinks(_ context.Context, userID int64, offset, limit int) ([]models.ReminderLink, int64, error) {
	var links []models.ReminderLink
	for _, link := range r.links {
		if link.UserID == userID && link.DeletedAt == nil {
			links = append(links, link)
		}
	}
	return links, int64(len(links)), nil
}

func (r *stubReminderRepo) SoftDeleteLink(_ context.Context, jobID string) error {
	link, ok := r.links[jobID]
	if !ok || link.DeletedAt != nil {
		return store.ErrLinkNotFound
	}
	now := time.Now()
	link.DeletedAt = &now
	r.links[jobID] = link
	return nil
}

func (r *stubReminderRepo) TombstoneOrphanLinks(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for jobID, link := range r.links {
		if link.DeletedAt != nil {
			continue
		}
		if _, ok := r.jobs[jobID]; !ok {
			link.DeletedAt = &now
			r.links[jobID] = link
			count++
		}
	}
	r.tombstoned += int(count)
	return count, nil
}

// recordingNotifier captures delivered reminders.
type recordingNotifier struct {
	delivered []string
	chatIDs   []int64
}

func (n *recordingNotifier) Notify(_ context.Context, chatID int64, text string) error {
	n.chatIDs = append(n.chatIDs, chatID)
	n.delivered = append(n.delivered, text)
	return nil
}

func newTestScheduler(repo store.ReminderRepository, notifier Notifier) *storeScheduler {
	s := NewScheduler(repo, notifier, time.UTC, time.Second, logger.Nop())
	return s.(*storeScheduler)
}

func TestScheduleDate_Persists(t *testing.T) {
	repo := newStubReminderRepo()
	s := newTestScheduler(repo, &recordingNotifier{})

	runAt := time.Now().Add(time.Hour)
	job, err := s.ScheduleDate(context.Background(), 7, 100500, "buy milk", runAt)

	require.NoError(t, err)
	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, models.TriggerDate, job.Trigger)
	assert.True(t, job.NextFire.Equal(runAt))

	stored, err := repo.GetJob(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", stored.Content)
}

func TestScheduleDate_RejectsPast(t *testing.T) {
	s := newTestScheduler(newStubReminderRepo(), &recordingNotifier{})

	_, err := s.ScheduleDate(context.Background(), 7, 100500, "too late", time.Now().Add(-time.Minute))
	assert.ErrorIs(t, err, ErrPastRunTime)
}

func TestScheduleCron_ComputesNextFire(t *testing.T) {
	repo := newStubReminderRepo()
	s := newTestScheduler(repo, &recordingNotifier{})

	job, err := s.ScheduleCron(context.Background(), 7, 100500, "standup", "0 10 * * 1")

	require.NoError(t, err)
	assert.Equal(t, models.TriggerCron, job.Trigger)
	assert.True(t, job.NextFire.After(time.Now()))
	assert.Equal(t, time.Monday, job.NextFire.Weekday())
	assert.Equal(t, 10, job.NextFire.Hour())
}

func TestScheduleCron_RejectsInvalidSpec(t *testing.T) {
	s := newTestScheduler(newStubReminderRepo(), &recordingNotifier{})

	_, err := s.ScheduleCron(context.Background(), 7, 100500, "standup", "not a cron spec")
	assert.ErrorIs(t, err, ErrInvalidCronSpec)
}

func TestFireDue_DateJobFiresOnceAndIsDeleted(t *testing.T) {
	repo := newStubReminderRepo()
	notifier := &recordingNotifier{}
	s := newTestScheduler(repo, notifier)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, repo.CreateJob(context.Background(), models.ReminderJob{
		JobID:    "job-1",
		UserID:   7,
		ChatID:   100500,
		Content:  "buy milk",
		Trigger:  models.TriggerDate,
		RunAt:    &past,
		NextFire: past,
	}))

	s.fireDue(context.Background())

	require.Equal(t, []string{"buy milk"}, notifier.delivered)
	assert.Equal(t, []int64{100500}, notifier.chatIDs)

	_, err := repo.GetJob(context.Background(), "job-1")
	assert.ErrorIs(t, err, store.ErrJobNotFound)
}

func TestFireDue_CronJobIsRearmed(t *testing.T) {
	repo := newStubReminderRepo()
	notifier := &recordingNotifier{}
	s := newTestScheduler(repo, notifier)

	require.NoError(t, repo.CreateJob(context.Background(), models.ReminderJob{
		JobID:    "job-2",
		UserID:   7,
		ChatID:   100500,
		Content:  "standup",
		Trigger:  models.TriggerCron,
		CronSpec: "*/5 * * * *",
		NextFire: time.Now().Add(-time.Minute),
	}))

	s.fireDue(context.Background())

	require.Equal(t, []string{"standup"}, notifier.delivered)

	stored, err := repo.GetJob(context.Background(), "job-2")
	require.NoError(t, err)
	assert.True(t, stored.NextFire.After(time.Now()))
}

func TestSweep_TombstonesOnlyOrphans(t *testing.T) {
	repo := newStubReminderRepo()

	require.NoError(t, repo.CreateJob(context.Background(), models.ReminderJob{JobID: "live"}))
	_, err := repo.CreateLink(context.Background(), models.ReminderLink{JobID: "live", UserID: 7})
	require.NoError(t, err)
	_, err = repo.CreateLink(context.Background(), models.ReminderLink{JobID: "orphan", UserID: 7})
	require.NoError(t, err)

	j := NewSweepJob(repo, time.Minute, logger.Nop())
	j.sweep(context.Background())

	assert.Equal(t, 1, repo.tombstoned)

	live, err := repo.GetLink(context.Background(), "live")
	require.NoError(t, err)
	assert.Nil(t, live.DeletedAt)

	orphan, err := repo.GetLink(context.Background(), "orphan")
	require.NoError(t, err)
	assert.NotNil(t, orphan.DeletedAt)
}
