package scheduler

import "errors"

var (
	ErrInvalidCronSpec = errors.New("invalid cron expression")
	ErrPastRunTime     = errors.New("run time is in the past")
)
