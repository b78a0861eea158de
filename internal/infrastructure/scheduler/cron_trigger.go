package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Schedule runs Task every Interval. A zero interval disables it.
type Schedule struct {
	Task     string
	Interval time.Duration
}

// CronTrigger feeds the scheduler one job per schedule tick.
type CronTrigger struct {
	scheduler *Scheduler
	schedules []Schedule
	retries   int
	logger    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCronTrigger(scheduler *Scheduler, retries int, logger *zap.Logger, schedules ...Schedule) *CronTrigger {
	return &CronTrigger{scheduler: scheduler, schedules: schedules, retries: retries, logger: logger}
}

func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil
	}
	ctx, c.cancel = context.WithCancel(ctx)

	for _, sch := range c.schedules {
		if sch.Interval <= 0 {
			c.logger.Warn("Skipping task without interval", zap.String("task", sch.Task))
			continue
		}
		c.wg.Add(1)
		go c.loop(ctx, sch)
		c.logger.Info("Task scheduled", zap.String("task", sch.Task), zap.Duration("interval", sch.Interval))
	}
	return nil
}

func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	return waitGroup(ctx, &c.wg)
}

func (c *CronTrigger) loop(ctx context.Context, sch Schedule) {
	defer c.wg.Done()
	ticker := time.NewTicker(sch.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Trigger(sch.Task)
		}
	}
}

// Trigger submits one run of task now, unless one is already in flight.
func (c *CronTrigger) Trigger(task string) {
	queued, err := c.scheduler.Submit(NewJob(task, c.retries))
	switch {
	case err != nil:
		c.logger.Warn("Failed to submit job", zap.String("task", task), zap.Error(err))
	case !queued:
		c.logger.Debug("Previous run still in progress", zap.String("task", task))
	}
}
