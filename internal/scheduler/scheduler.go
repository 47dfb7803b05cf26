// Package scheduler runs periodic background tasks as Go tickers inside the
// long-running API service.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/courtstats/internal/cache"
	"github.com/albapepper/courtstats/internal/reconcile"
)

// Task is one periodic job. A zero Interval disables it.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Start launches every enabled task on its own ticker and blocks until ctx is
// cancelled and all running tasks have returned. Intended to be called with
// `go`. A task never overlaps with itself: ticks that arrive while it runs
// are dropped.
func Start(ctx context.Context, tasks []Task, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	var wg sync.WaitGroup
	started := 0
	for _, task := range tasks {
		if task.Interval <= 0 || task.Run == nil {
			continue
		}
		started++
		t := time.NewTicker(task.Interval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer t.Stop()
			runLoop(ctx, t.C, task, logger)
		}()
		logger.Info("Scheduled task", "task", task.Name, "interval", task.Interval)
	}
	if started == 0 {
		logger.Info("No scheduled tasks enabled")
		return
	}

	<-ctx.Done()
	wg.Wait()
	logger.Info("Scheduled tasks stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, task Task, logger *slog.Logger) {
	for {
		select {
		case <-ch:
			start := time.Now()
			if err := task.Run(ctx); err != nil {
				logger.Warn("Scheduled task failed", "task", task.Name, "error", err,
					"duration", time.Since(start).Round(time.Millisecond))
				continue
			}
			logger.Info("Scheduled task finished", "task", task.Name,
				"duration", time.Since(start).Round(time.Millisecond))
		case <-ctx.Done():
			return
		}
	}
}

// ReconcileTask wraps a reconcile job. After a committed batch, cached history
// reads for the job's table are dropped.
func ReconcileTask(job *reconcile.Job, interval time.Duration, c *cache.Cache) Task {
	return Task{
		Name:     "reconcile",
		Interval: interval,
		Run: func(ctx context.Context) error {
			if _, err := job.Run(ctx); err != nil {
				return err
			}
			if c != nil {
				c.InvalidatePrefix(cache.HistoryKeyPrefix(job.Options.Table))
			}
			return nil
		},
	}
}
