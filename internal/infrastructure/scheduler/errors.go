package scheduler

import "errors"

var (
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	ErrJobQueueFull        = errors.New("job queue is full")
	// ErrUnknownTask means a job named a task that was never registered
	ErrUnknownTask = errors.New("unknown scheduler task")
)
