package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/models"
)

// reminderRepository is the SQLite-backed implementation of
// [ReminderRepository]. It owns the scheduler_jobs table and the
// user_reminder_links ledger the reconciliation sweep runs against.
type reminderRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewReminderRepository constructs a [ReminderRepository] backed by the
// provided database connection and logger.
func NewReminderRepository(db *DB, logger *logger.Logger) ReminderRepository {
	logger.Debug().Msg("creating reminder repository")
	return &reminderRepository{
		db:     db,
		logger: logger,
	}
}

// CreateJob persists a scheduler job.
func (r *reminderRepository) CreateJob(ctx context.Context, job models.ReminderJob) error {
	var runAt any
	if job.RunAt != nil {
		runAt = *job.RunAt
	}

	if _, err := r.db.ExecContext(ctx, createSchedulerJob,
		job.JobID, job.UserID, job.ChatID, job.Content, string(job.Trigger), runAt, job.CronSpec, job.NextFire); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// GetJob retrieves one scheduler job.
// Returns [ErrJobNotFound] when no row matches.
func (r *reminderRepository) GetJob(ctx context.Context, jobID string) (models.ReminderJob, error) {
	return scanJob(r.db.QueryRowContext(ctx, getSchedulerJob, jobID))
}

// DeleteJob removes one scheduler job.
// Returns [ErrJobNotFound] when no row matched.
func (r *reminderRepository) DeleteJob(ctx context.Context, jobID string) error {
	res, err := r.db.ExecContext(ctx, deleteSchedulerJob, jobID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrJobNotFound
	}

	return nil
}

// ListDueJobs returns every job whose next_fire is at or before now,
// soonest first.
func (r *reminderRepository) ListDueJobs(ctx context.Context, now time.Time) ([]models.ReminderJob, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, listDueSchedulerJobs, now)
	if err != nil {
		log.Err(err).Str("func", "*reminderRepository.ListDueJobs").Msg("error: query error")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var jobs []models.ReminderJob
	for rows.Next() {
		job, err := scanJobRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// UpdateNextFire re-arms a cron job with its next due time.
func (r *reminderRepository) UpdateNextFire(ctx context.Context, jobID string, next time.Time) error {
	res, err := r.db.ExecContext(ctx, updateSchedulerJobNextFire, next, jobID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrJobNotFound
	}

	return nil
}

// CreateLink persists a reminder link and returns it with server-assigned
// fields.
func (r *reminderRepository) CreateLink(ctx context.Context, link models.ReminderLink) (models.ReminderLink, error) {
	row := r.db.QueryRowContext(ctx, createReminderLink, link.UserID, link.JobID, link.Description)

	var created models.ReminderLink
	if err := row.Scan(&created.LinkID, &created.UserID, &created.JobID, &created.Description, &created.DeletedAt, &created.CreatedAt); err != nil {
		return models.ReminderLink{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return created, nil
}

// GetLink retrieves the live link for a job id.
// Returns [ErrLinkNotFound] when no live row matches.
func (r *reminderRepository) GetLink(ctx context.Context, jobID string) (models.ReminderLink, error) {
	var link models.ReminderLink
	row := r.db.QueryRowContext(ctx, getReminderLink, jobID)

	if err := row.Scan(&link.LinkID, &link.UserID, &link.JobID, &link.Description, &link.DeletedAt, &link.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ReminderLink{}, ErrLinkNotFound
		}
		return models.ReminderLink{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return link, nil
}

// ListUserLinks implements [ReminderRepository].
func (r *reminderRepository) ListUserLinks(ctx context.Context, userID int64, offset, limit int) ([]models.ReminderLink, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, countUserReminderLinks, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, listUserReminderLinks, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var links []models.ReminderLink
	for rows.Next() {
		var link models.ReminderLink
		if err := rows.Scan(&link.LinkID, &link.UserID, &link.JobID, &link.Description, &link.DeletedAt, &link.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		links = append(links, link)
	}

	return links, total, rows.Err()
}

// SoftDeleteLink tombstones the live link for a job id.
// Returns [ErrLinkNotFound] when no live row matched.
func (r *reminderRepository) SoftDeleteLink(ctx context.Context, jobID string) error {
	res, err := r.db.ExecContext(ctx, softDeleteReminderLink, jobID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrLinkNotFound
	}

	return nil
}

// TombstoneOrphanLinks implements [ReminderRepository]. A link is orphaned
// when its scheduler job row is gone but deleted_at is still NULL; the
// sweep stamps those rows with now.
func (r *reminderRepository) TombstoneOrphanLinks(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	res, err := r.db.ExecContext(ctx, tombstoneOrphanReminderLinks, now)
	if err != nil {
		log.Err(err).Str("func", "*reminderRepository.TombstoneOrphanLinks").Msg("error: update error")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected, nil
}

func scanJob(row *sql.Row) (models.ReminderJob, error) {
	var job models.ReminderJob
	var trigger string
	var runAt sql.NullTime

	if err := row.Scan(&job.JobID, &job.UserID, &job.ChatID, &job.Content, &trigger, &runAt, &job.CronSpec, &job.NextFire, &job.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ReminderJob{}, ErrJobNotFound
		}
		return models.ReminderJob{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	job.Trigger = models.TriggerKind(trigger)
	if runAt.Valid {
		t := runAt.Time
		job.RunAt = &t
	}

	return job, nil
}

func scanJobRows(rows *sql.Rows) (models.ReminderJob, error) {
	var job models.ReminderJob
	var trigger string
	var runAt sql.NullTime

	if err := rows.Scan(&job.JobID, &job.UserID, &job.ChatID, &job.Content, &trigger, &runAt, &job.CronSpec, &job.NextFire, &job.CreatedAt); err != nil {
		return models.ReminderJob{}, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	job.Trigger = models.TriggerKind(trigger)
	if runAt.Valid {
		t := runAt.Time
		job.RunAt = &t
	}

	return job, nil
}
