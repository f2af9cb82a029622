package scheduler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/elonfeng/toughnews/internal/pipeline"
)

// Runner performs one batch run.
type Runner interface {
	RunOnce(ctx context.Context) (pipeline.Result, error)
}

// Scheduler repeats batch runs on a fixed interval.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *log.Logger
}

// New creates a new scheduler.
func New(runner Runner, interval time.Duration, logger *log.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger.WithPrefix("scheduler"),
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
// A failed run is logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start.
	s.logger.Info("initial run")
	s.runOnce(ctx)

	s.logger.Info("running", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	res, err := s.runner.RunOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("run failed", "err", err)
		}
		return
	}
	s.logger.Debug("run finished", "added", res.Added, "total", res.Total)
}
