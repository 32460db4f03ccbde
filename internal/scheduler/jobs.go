// Package scheduler drives recurring payment execution: it polls the
// schedule engine for due payments on a cron cadence, hands each one to
// the ledger executor, and reports the outcome back.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/nmalik/paysplit/internal/models"
)

// ScheduleEngine is the slice of the schedule service the runner needs.
type ScheduleEngine interface {
	ActiveReadyForExecution(ctx context.Context) ([]*models.SchedulePayment, error)
	MarkExecuted(ctx context.Context, scheduleID string) (*models.SchedulePayment, error)
	MarkFailed(ctx context.Context, scheduleID string) error
}

// Executor submits one schedule execution to the external ledger and
// returns the settlement transaction id it assigned.
type Executor interface {
	Execute(ctx context.Context, schedule *models.SchedulePayment) (string, error)
}

// Jobs contains the logic for the scheduled tasks.
type Jobs struct {
	engine   ScheduleEngine
	executor Executor
	logger   *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(engine ScheduleEngine, executor Executor, logger *slog.Logger) *Jobs {
	return &Jobs{engine: engine, executor: executor, logger: logger}
}

// ProcessDueSchedules executes every ACTIVE schedule whose next date has
// arrived. A failed execution marks that schedule FAILED and moves on;
// one bad schedule never blocks the rest of the batch.
func (j *Jobs) ProcessDueSchedules() {
	j.logger.Info("starting due-schedule execution job")
	ctx := context.Background()

	due, err := j.engine.ActiveReadyForExecution(ctx)
	if err != nil {
		j.logger.Error("failed to poll due schedules", "error", err)
		return
	}
	if len(due) == 0 {
		j.logger.Info("no schedules due for execution")
		return
	}

	j.logger.Info("found due schedules", "count", len(due))
	for _, schedule := range due {
		j.logger.Info("executing schedule", "schedule_id", schedule.ID, "payer", schedule.Payer)

		txID, err := j.executor.Execute(ctx, schedule)
		if err != nil {
			j.logger.Error("schedule execution failed", "schedule_id", schedule.ID, "error", err)
			if markErr := j.engine.MarkFailed(ctx, schedule.ID); markErr != nil {
				j.logger.Error("failed to mark schedule failed", "schedule_id", schedule.ID, "error", markErr)
			}
			continue
		}

		updated, err := j.engine.MarkExecuted(ctx, schedule.ID)
		if err != nil {
			j.logger.Error("failed to record schedule execution", "schedule_id", schedule.ID, "tx", txID, "error", err)
			continue
		}
		j.logger.Info("schedule executed",
			"schedule_id", schedule.ID,
			"tx", txID,
			"count", updated.ExecutionCount,
			"status", updated.Status,
		)
	}

	j.logger.Info("due-schedule execution job finished")
}
