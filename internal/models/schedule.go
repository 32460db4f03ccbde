package models

import "time"

// Frequency is how often a schedule payment executes.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

// ScheduleStatus is the lifecycle state of a schedule payment.
type ScheduleStatus string

const (
	ScheduleActive    ScheduleStatus = "ACTIVE"
	SchedulePaused    ScheduleStatus = "PAUSED"
	ScheduleCompleted ScheduleStatus = "COMPLETED"
	ScheduleCancelled ScheduleStatus = "CANCELLED"
	ScheduleFailed    ScheduleStatus = "FAILED"
)

// SchedulePayment is a recurring payment definition. An external trigger
// polls for due schedules and reports execution results back through
// MarkExecuted/MarkFailed.
type SchedulePayment struct {
	// ID is the unique identifier for the schedule (UUID format).
	ID string

	// Payer is the wallet address funding each execution.
	Payer string

	// Payee is the wallet address receiving each execution.
	Payee string

	Amount float64

	// Tokens lists the assets each execution is denominated in.
	Tokens []Token

	// Message is optional free text attached to each execution.
	Message string

	Frequency Frequency

	Status ScheduleStatus

	// NextExecution is when the schedule is next due; nil once the
	// schedule reaches a terminal status.
	NextExecution *time.Time

	// EndDate is the optional last date executions may occur on.
	EndDate *time.Time

	// MaxExecutions caps the number of executions; nil means unlimited.
	MaxExecutions *int

	// ExecutionCount is how many times the schedule has executed.
	ExecutionCount int

	// SettlementTxs are the opaque settlement transaction ids linked to
	// this schedule, at least one from creation time.
	SettlementTxs []string

	// CreatedAt is the Unix timestamp when the schedule was created.
	CreatedAt int64
}

// NextDate advances a date by one period of the given frequency. Monthly
// advancement is calendar-aware: the day of month is clamped to the last
// day of the target month, so Jan 31 advances to Feb 28 (or 29).
func NextDate(from time.Time, freq Frequency) time.Time {
	switch freq {
	case FrequencyDaily:
		return from.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return addMonthClamped(from)
	default:
		return from
	}
}

func addMonthClamped(t time.Time) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := daysInMonth(first.Year(), first.Month())
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
