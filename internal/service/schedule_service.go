package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nmalik/paysplit/internal/models"
	"github.com/nmalik/paysplit/internal/storage"
	"github.com/nmalik/paysplit/internal/validate"
)

// ScheduleService is the recurring payment engine. Schedules are created
// with a future first execution date and advanced by frequency on each
// execution; an execution cap or end date moves them to COMPLETED.
// Execution itself (moving funds) happens outside the engine; results
// are reported back through MarkExecuted and MarkFailed.
type ScheduleService struct {
	store storage.Store
	now   func() time.Time
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(store storage.Store) *ScheduleService {
	return &ScheduleService{store: store, now: time.Now}
}

// CreateScheduleInput carries a schedule creation request.
type CreateScheduleInput struct {
	Payer         string
	Payee         string
	Amount        string
	Tokens        []models.Token
	Message       string
	Frequency     models.Frequency
	NextExecution time.Time
	EndDate       *time.Time
	MaxExecutions *int
	SettlementTxs []string
}

// CreateSchedule creates an ACTIVE schedule. The first execution date
// must be strictly in the future, the end date (if any) must not precede
// it, the execution cap (if any) must be at least 1, and at least one
// settlement transaction id must be linked from the start.
func (s *ScheduleService) CreateSchedule(ctx context.Context, in CreateScheduleInput) (*models.SchedulePayment, error) {
	payer, err := validate.Address(in.Payer)
	if err != nil {
		return nil, err
	}
	payee, err := validate.Address(in.Payee)
	if err != nil {
		return nil, err
	}
	if payer == payee {
		return nil, ErrSelfRequest
	}
	amount, err := validate.Amount(in.Amount)
	if err != nil {
		return nil, err
	}
	message, err := validate.Message(in.Message)
	if err != nil {
		return nil, err
	}
	switch in.Frequency {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly:
	default:
		return nil, ErrInvalidFrequency
	}
	if !in.NextExecution.After(s.now()) {
		return nil, ErrScheduleInPast
	}
	if in.EndDate != nil && in.EndDate.Before(in.NextExecution) {
		return nil, ErrEndBeforeStart
	}
	if in.MaxExecutions != nil && *in.MaxExecutions < 1 {
		return nil, ErrInvalidMaxExec
	}
	if len(in.SettlementTxs) == 0 {
		return nil, ErrNoSettlementTxs
	}
	if len(in.Tokens) == 0 {
		return nil, ErrNoTokens
	}

	next := in.NextExecution
	schedule := &models.SchedulePayment{
		Payer:         payer,
		Payee:         payee,
		Amount:        amount,
		Tokens:        in.Tokens,
		Message:       message,
		Frequency:     in.Frequency,
		Status:        models.ScheduleActive,
		NextExecution: &next,
		EndDate:       in.EndDate,
		MaxExecutions: in.MaxExecutions,
		SettlementTxs: in.SettlementTxs,
	}
	if err := s.store.CreateSchedulePayment(ctx, schedule); err != nil {
		slog.Error("CreateSchedule failed", "payer", payer, "error", err)
		return nil, err
	}

	slog.Info("Schedule created",
		"schedule_id", schedule.ID,
		"payer", payer,
		"frequency", in.Frequency,
		"next_execution", next,
	)
	return schedule, nil
}

// GetSchedule retrieves a schedule for its payer.
func (s *ScheduleService) GetSchedule(ctx context.Context, scheduleID, callerAddress string) (*models.SchedulePayment, error) {
	return s.loadForPayer(ctx, scheduleID, callerAddress)
}

// ListForUser returns the caller's schedules, optionally filtered by
// status.
func (s *ScheduleService) ListForUser(ctx context.Context, callerAddress string, status models.ScheduleStatus) ([]*models.SchedulePayment, error) {
	addr, err := validate.Address(callerAddress)
	if err != nil {
		return nil, err
	}
	return s.store.ListSchedulesForUser(ctx, addr, status)
}

// ActiveReadyForExecution returns ACTIVE schedules due at or before now
// whose end date has not passed. This is the polling contract the
// external execution trigger relies on.
func (s *ScheduleService) ActiveReadyForExecution(ctx context.Context) ([]*models.SchedulePayment, error) {
	return s.store.ListSchedulesReady(ctx, s.now())
}

// MarkExecuted records one successful execution: the count is
// incremented and the next date advanced by frequency. If the execution
// cap is reached or the advanced date would exceed the end date, the
// schedule completes and its next date is cleared.
func (s *ScheduleService) MarkExecuted(ctx context.Context, scheduleID string) (*models.SchedulePayment, error) {
	schedule, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status != models.ScheduleActive || schedule.NextExecution == nil {
		return nil, ErrScheduleNotActive
	}

	count := schedule.ExecutionCount + 1
	advanced := models.NextDate(*schedule.NextExecution, schedule.Frequency)

	status := models.ScheduleActive
	var next *time.Time
	switch {
	case schedule.MaxExecutions != nil && count >= *schedule.MaxExecutions:
		status = models.ScheduleCompleted
	case schedule.EndDate != nil && advanced.After(*schedule.EndDate):
		status = models.ScheduleCompleted
	default:
		next = &advanced
	}

	if err := s.store.UpdateScheduleExecution(ctx, scheduleID, count, next, status); err != nil {
		return nil, err
	}

	schedule.ExecutionCount = count
	schedule.NextExecution = next
	schedule.Status = status
	slog.Info("Schedule executed",
		"schedule_id", scheduleID,
		"count", count,
		"status", status,
	)
	return schedule, nil
}

// MarkFailed moves a schedule to FAILED, a terminal state. Retry policy
// is an external concern.
func (s *ScheduleService) MarkFailed(ctx context.Context, scheduleID string) error {
	if _, err := s.load(ctx, scheduleID); err != nil {
		return err
	}
	if err := s.store.SetScheduleStatus(ctx, scheduleID, models.ScheduleFailed); err != nil {
		return err
	}
	slog.Warn("Schedule marked failed", "schedule_id", scheduleID)
	return nil
}

// Pause suspends an ACTIVE schedule.
func (s *ScheduleService) Pause(ctx context.Context, scheduleID, callerAddress string) error {
	schedule, err := s.loadForPayer(ctx, scheduleID, callerAddress)
	if err != nil {
		return err
	}
	if schedule.Status != models.ScheduleActive {
		return ErrScheduleNotActive
	}
	return s.store.SetScheduleStatus(ctx, scheduleID, models.SchedulePaused)
}

// Resume reactivates a PAUSED schedule.
func (s *ScheduleService) Resume(ctx context.Context, scheduleID, callerAddress string) error {
	schedule, err := s.loadForPayer(ctx, scheduleID, callerAddress)
	if err != nil {
		return err
	}
	if schedule.Status != models.SchedulePaused {
		return ErrScheduleNotPaused
	}
	return s.store.SetScheduleStatus(ctx, scheduleID, models.ScheduleActive)
}

// Cancel moves an ACTIVE or PAUSED schedule to CANCELLED.
func (s *ScheduleService) Cancel(ctx context.Context, scheduleID, callerAddress string) error {
	schedule, err := s.loadForPayer(ctx, scheduleID, callerAddress)
	if err != nil {
		return err
	}
	if schedule.Status != models.ScheduleActive && schedule.Status != models.SchedulePaused {
		return ErrScheduleNotActive
	}
	return s.store.SetScheduleStatus(ctx, scheduleID, models.ScheduleCancelled)
}

// Delete removes a schedule. An ACTIVE schedule that has already
// executed is protected (it must be cancelled instead) so execution
// history for moved funds is never lost.
func (s *ScheduleService) Delete(ctx context.Context, scheduleID, callerAddress string) error {
	schedule, err := s.loadForPayer(ctx, scheduleID, callerAddress)
	if err != nil {
		return err
	}
	if schedule.Status == models.ScheduleActive && schedule.ExecutionCount > 0 {
		return ErrScheduleHasExecutions
	}
	if err := s.store.DeleteSchedulePayment(ctx, scheduleID); err != nil {
		return err
	}
	slog.Info("Schedule deleted", "schedule_id", scheduleID)
	return nil
}

func (s *ScheduleService) load(ctx context.Context, scheduleID string) (*models.SchedulePayment, error) {
	schedule, err := s.store.GetSchedulePayment(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return schedule, nil
}

// loadForPayer fetches a schedule and verifies the caller is its payer.
// Someone else's schedule reports not-found, never its existence.
func (s *ScheduleService) loadForPayer(ctx context.Context, scheduleID, callerAddress string) (*models.SchedulePayment, error) {
	caller, err := validate.Address(callerAddress)
	if err != nil {
		return nil, err
	}
	schedule, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Payer != caller {
		return nil, ErrScheduleNotFound
	}
	return schedule, nil
}
