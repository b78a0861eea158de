// Package scheduler runs the storefront's background sweeps: expiring
// abandoned payments, cancelling unpaid orders and polling gateways that
// have no webhooks.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Workers    int
	JobTimeout time.Duration
	// Retries is how many extra attempts a failed sweep gets
	Retries    int
	RetryDelay time.Duration
}

func DefaultConfig() Config {
	return Config{Workers: 2, JobTimeout: 2 * time.Minute, Retries: 1, RetryDelay: 30 * time.Second}
}

// Scheduler runs jobs on a fixed pool of workers. A task has at most one job
// queued or running at a time, so a slow sweep is never stacked.
type Scheduler struct {
	cfg    Config
	exec   Executor
	logger *zap.Logger
	queue  chan *Job

	mu      sync.Mutex
	started bool
	active  map[string]bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(cfg Config, exec Executor, logger *zap.Logger) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultConfig().JobTimeout
	}
	return &Scheduler{
		cfg:    cfg,
		exec:   exec,
		logger: logger,
		queue:  make(chan *Job, 64),
		active: make(map[string]bool),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(s.cfg.Workers)
	for i := 0; i < s.cfg.Workers; i++ {
		go s.work(ctx, i)
	}
	s.logger.Info("Scheduler started",
		zap.Int("workers", s.cfg.Workers),
		zap.Duration("job_timeout", s.cfg.JobTimeout))
	return nil
}

// Stop cancels running jobs and waits for the workers, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	s.mu.Unlock()

	return waitGroup(ctx, &s.wg)
}

// Submit queues job. It returns false without error when a job for the same
// task is already queued or running.
func (s *Scheduler) Submit(job *Job) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return false, ErrSchedulerNotRunning
	}
	if s.active[job.Task] {
		return false, nil
	}
	select {
	case s.queue <- job:
		s.active[job.Task] = true
		return true, nil
	default:
		return false, ErrJobQueueFull
	}
}

func (s *Scheduler) work(ctx context.Context, worker int) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.run(ctx, job, worker)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, job *Job, worker int) {
	if wait := time.Until(job.NotBefore); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.release(job)
			return
		case <-timer.C:
		}
	}

	job.begin()
	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	affected, err := s.exec.Execute(jobCtx, job)
	cancel()
	job.finish(affected, err)

	log := s.logger.With(zap.String("task", job.Task), zap.String("job_id", job.ID.String()))
	if err != nil {
		log.Error("Job failed", zap.Int("worker_id", worker), zap.Int("attempt", job.Attempts), zap.Error(err))
		if job.retryable() && ctx.Err() == nil {
			job.NotBefore = time.Now().Add(s.cfg.RetryDelay)
			select {
			case s.queue <- job:
				return
			default:
				log.Warn("Retry dropped, queue full")
			}
		}
		s.release(job)
		return
	}

	s.release(job)
	level := zap.DebugLevel
	if affected > 0 {
		level = zap.InfoLevel
	}
	log.Log(level, "Job completed", zap.Int("affected", affected), zap.Duration("took", job.Took()))
}

func (s *Scheduler) release(job *Job) {
	s.mu.Lock()
	delete(s.active, job.Task)
	s.mu.Unlock()
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
