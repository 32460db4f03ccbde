package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	spec   string
}

// New creates a scheduler that runs the jobs on the given cron spec.
func New(jobs *Jobs, logger *slog.Logger, spec string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		spec:   spec,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.spec, s.jobs.ProcessDueSchedules); err != nil {
		s.logger.Error("failed to schedule due-payment job", "error", err)
	} else {
		s.logger.Info("scheduled due-payment job", "schedule", s.spec)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler. The returned context is done
// once running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
