package models

import "time"

// TriggerKind selects between a one-shot and a recurring reminder.
type TriggerKind string

const (
	// TriggerDate fires once at RunAt and is then removed.
	TriggerDate TriggerKind = "date"
	// TriggerCron fires on every match of CronSpec.
	TriggerCron TriggerKind = "cron"
)

// ReminderJob is a scheduled reminder owned by the scheduler. One-shot jobs
// are deleted after firing; cron jobs are re-armed with a new NextFire.
type ReminderJob struct {
	// JobID is a uuid assigned at scheduling time.
	JobID string `json:"job_id"`

	UserID int64 `json:"-"`

	// ChatID is where the reminder text is delivered.
	ChatID int64 `json:"-"`

	// Content is the reminder text sent to the user.
	Content string `json:"content"`

	Trigger TriggerKind `json:"trigger"`

	// RunAt is the fire time for date jobs. Nil for cron jobs.
	RunAt *time.Time `json:"run_date,omitempty"`

	// CronSpec is a five-field cron expression for cron jobs
	// (minute hour day month weekday). Empty for date jobs.
	CronSpec string `json:"cron,omitempty"`

	// NextFire is the next due time, maintained by the scheduler.
	NextFire time.Time `json:"next_fire"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the ReminderJob model.
func (j ReminderJob) TableName() string {
	return "scheduler_jobs"
}

// ReminderLink ties a scheduler job to the user who created it. Links
// outlive their jobs: when a job disappears the link is tombstoned by the
// reconciliation sweep, keeping list output honest.
type ReminderLink struct {
	LinkID int64  `json:"-"`
	UserID int64  `json:"-"`
	JobID  string `json:"job_id"`

	// Description is the human-readable schedule summary shown in lists.
	Description string `json:"description"`

	// DeletedAt is the soft-delete marker. Nil while the job is live.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the ReminderLink model.
func (l ReminderLink) TableName() string {
	return "user_reminder_links"
}
