// Package sched re-runs the pipeline on a cron schedule.
package sched

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"feedrelay/internal/logging"
)

// Scheduler drives a task on a recurring cron schedule. The task runs
// once per trigger; a trigger that fires while the previous run is
// still active is skipped so runs never overlap.
type Scheduler struct {
	spec   string
	task   func(context.Context) error
	logger *slog.Logger
}

// New validates the cron expression and returns a Scheduler.
func New(spec string, task func(context.Context) error, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		spec:   spec,
		task:   task,
		logger: logging.WithComponent(logger, "sched"),
	}, nil
}

// Run blocks until the context is cancelled, executing the task at each
// trigger and logging the next trigger time after every run.
func (s *Scheduler) Run(ctx context.Context) error {
	runner := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	var entryID cron.EntryID
	entryID, err := runner.AddFunc(s.spec, func() {
		s.logger.Info("scheduled run starting")
		if err := s.task(ctx); err != nil {
			s.logger.Error("scheduled run failed", logging.Error(err))
		} else {
			s.logger.Info("scheduled run finished")
		}
		s.logNext(runner.Entry(entryID).Next)
	})
	if err != nil {
		return fmt.Errorf("register cron task: %w", err)
	}

	runner.Start()
	s.logNext(runner.Entry(entryID).Next)

	<-ctx.Done()
	stopCtx := runner.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}

func (s *Scheduler) logNext(next time.Time) {
	if next.IsZero() {
		return
	}
	s.logger.Info("next scheduled run",
		logging.Time("at", next),
		logging.Duration("in", time.Until(next).Round(time.Second)))
}
