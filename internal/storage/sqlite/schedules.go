package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nmalik/paysplit/internal/models"
	"github.com/nmalik/paysplit/internal/storage"
)

const scheduleCols = "id, payer, payee, amount, message, frequency, status, next_execution, end_date, max_executions, execution_count, created_at"

// CreateSchedulePayment persists a new schedule, its token list, and its
// linked settlement transaction ids.
func (s *SQLiteStore) CreateSchedulePayment(ctx context.Context, sp *models.SchedulePayment) error {
	if sp.ID == "" {
		sp.ID = uuid.New().String()
	}
	if sp.CreatedAt == 0 {
		sp.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO schedule_payments (id, payer, payee, amount, message, frequency, status, next_execution, end_date, max_executions, execution_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.ID, sp.Payer, sp.Payee, sp.Amount, sp.Message, string(sp.Frequency), string(sp.Status),
		unixOrNil(sp.NextExecution), unixOrNil(sp.EndDate), sp.MaxExecutions, sp.ExecutionCount, sp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert schedule: %w", err)
	}

	for i, tok := range sp.Tokens {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO schedule_tokens (schedule_id, position, token_id, symbol, amount) VALUES (?, ?, ?, ?, ?)",
			sp.ID, i, tok.ID, tok.Symbol, tok.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert schedule token: %w", err)
		}
	}

	for _, txID := range sp.SettlementTxs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO schedule_transactions (schedule_id, tx_id) VALUES (?, ?)",
			sp.ID, txID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert schedule transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func unixOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func scanSchedule(scan func(dest ...any) error) (*models.SchedulePayment, error) {
	sp := &models.SchedulePayment{}
	var freq, status string
	var next, end sql.NullInt64
	var maxExec sql.NullInt64
	err := scan(&sp.ID, &sp.Payer, &sp.Payee, &sp.Amount, &sp.Message, &freq, &status,
		&next, &end, &maxExec, &sp.ExecutionCount, &sp.CreatedAt)
	if err != nil {
		return nil, err
	}
	sp.Frequency = models.Frequency(freq)
	sp.Status = models.ScheduleStatus(status)
	if next.Valid {
		t := time.Unix(next.Int64, 0).UTC()
		sp.NextExecution = &t
	}
	if end.Valid {
		t := time.Unix(end.Int64, 0).UTC()
		sp.EndDate = &t
	}
	if maxExec.Valid {
		n := int(maxExec.Int64)
		sp.MaxExecutions = &n
	}
	return sp, nil
}

// GetSchedulePayment retrieves a schedule by ID with tokens and linked
// settlement transaction ids.
func (s *SQLiteStore) GetSchedulePayment(ctx context.Context, scheduleID string) (*models.SchedulePayment, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+scheduleCols+" FROM schedule_payments WHERE id = ?", scheduleID)

	sp, err := scanSchedule(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("schedule %s: %w", scheduleID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if err := s.fillScheduleDetails(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *SQLiteStore) fillScheduleDetails(ctx context.Context, sp *models.SchedulePayment) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT token_id, symbol, amount FROM schedule_tokens WHERE schedule_id = ? ORDER BY position",
		sp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get schedule tokens: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t models.Token
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Amount); err != nil {
			return fmt.Errorf("failed to scan schedule token: %w", err)
		}
		sp.Tokens = append(sp.Tokens, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate schedule tokens: %w", err)
	}

	txRows, err := s.db.QueryContext(ctx,
		"SELECT tx_id FROM schedule_transactions WHERE schedule_id = ? ORDER BY tx_id",
		sp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get schedule transactions: %w", err)
	}
	defer txRows.Close()
	for txRows.Next() {
		var txID string
		if err := txRows.Scan(&txID); err != nil {
			return fmt.Errorf("failed to scan schedule transaction: %w", err)
		}
		sp.SettlementTxs = append(sp.SettlementTxs, txID)
	}
	if err := txRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate schedule transactions: %w", err)
	}
	return nil
}

// ListSchedulesForUser returns schedules where the address is the payer,
// newest first, optionally filtered by status.
func (s *SQLiteStore) ListSchedulesForUser(ctx context.Context, address string, status models.ScheduleStatus) ([]*models.SchedulePayment, error) {
	query := "SELECT " + scheduleCols + " FROM schedule_payments WHERE payer = ?"
	args := []interface{}{address}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	return s.collectSchedules(ctx, rows)
}

// ListSchedulesReady returns ACTIVE schedules due at or before now whose
// end date is unset or has not passed.
func (s *SQLiteStore) ListSchedulesReady(ctx context.Context, now time.Time) ([]*models.SchedulePayment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scheduleCols+` FROM schedule_payments
		 WHERE status = ?
		   AND next_execution IS NOT NULL AND next_execution <= ?
		   AND (end_date IS NULL OR end_date >= ?)
		 ORDER BY next_execution`,
		string(models.ScheduleActive), now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ready schedules: %w", err)
	}
	defer rows.Close()

	return s.collectSchedules(ctx, rows)
}

func (s *SQLiteStore) collectSchedules(ctx context.Context, rows *sql.Rows) ([]*models.SchedulePayment, error) {
	var schedules []*models.SchedulePayment
	for rows.Next() {
		sp, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}
	for _, sp := range schedules {
		if err := s.fillScheduleDetails(ctx, sp); err != nil {
			return nil, err
		}
	}
	return schedules, nil
}

// UpdateScheduleExecution records one execution in a single row update.
func (s *SQLiteStore) UpdateScheduleExecution(ctx context.Context, scheduleID string, count int, next *time.Time, status models.ScheduleStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE schedule_payments SET execution_count = ?, next_execution = ?, status = ? WHERE id = ?",
		count, unixOrNil(next), string(status), scheduleID,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule execution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("schedule %s: %w", scheduleID, storage.ErrNotFound)
	}
	return nil
}

// SetScheduleStatus writes a schedule status directly.
func (s *SQLiteStore) SetScheduleStatus(ctx context.Context, scheduleID string, status models.ScheduleStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE schedule_payments SET status = ? WHERE id = ?",
		string(status), scheduleID,
	)
	if err != nil {
		return fmt.Errorf("failed to set schedule status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("schedule %s: %w", scheduleID, storage.ErrNotFound)
	}
	return nil
}

// DeleteSchedulePayment removes a schedule; tokens and linked ids cascade.
func (s *SQLiteStore) DeleteSchedulePayment(ctx context.Context, scheduleID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM schedule_payments WHERE id = ?", scheduleID)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("schedule %s: %w", scheduleID, storage.ErrNotFound)
	}
	return nil
}
