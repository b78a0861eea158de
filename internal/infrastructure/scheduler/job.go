package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task is one sweep. It returns how many payments or orders it touched.
type Task func(ctx context.Context) (int, error)

// Job is one run of a named task, including its retries.
type Job struct {
	ID       uuid.UUID
	Task     string
	Attempts int
	Retries  int

	// NotBefore delays a retry; zero runs immediately
	NotBefore  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Affected   int
	Err        error
}

func NewJob(task string, retries int) *Job {
	return &Job{ID: uuid.New(), Task: task, Retries: retries}
}

func (j *Job) begin() {
	j.Attempts++
	j.StartedAt = time.Now()
	j.FinishedAt = time.Time{}
	j.Err = nil
}

func (j *Job) finish(affected int, err error) {
	j.FinishedAt = time.Now()
	j.Affected = affected
	j.Err = err
}

// retryable reports whether a failed job has attempts left.
func (j *Job) retryable() bool {
	return j.Err != nil && j.Attempts <= j.Retries
}

func (j *Job) Succeeded() bool {
	return !j.FinishedAt.IsZero() && j.Err == nil
}

func (j *Job) Took() time.Duration {
	return j.FinishedAt.Sub(j.StartedAt)
}

// Executor runs a job's task.
type Executor interface {
	Execute(ctx context.Context, job *Job) (int, error)
}

// TaskRegistry resolves jobs to tasks by name.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]Task)}
}

// Register adds a task under name, replacing an earlier one.
func (r *TaskRegistry) Register(name string, task Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[name] = task
}

// Names lists the registered tasks in sorted order.
func (r *TaskRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *TaskRegistry) Execute(ctx context.Context, job *Job) (int, error) {
	r.mu.RLock()
	task, ok := r.tasks[job.Task]
	r.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTask, job.Task)
	}
	return task(ctx)
}
