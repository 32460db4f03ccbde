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

const requestCols = "id, payer, payee, amount, message, status, settlement_tx, is_group_payment, group_payment_id, created_at, updated_at"

// CreateRequestPayment persists a new request and its token list.
func (s *SQLiteStore) CreateRequestPayment(ctx context.Context, r *models.RequestPayment) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if r.CreatedAt == 0 {
		r.CreatedAt = now
	}
	if r.UpdatedAt == 0 {
		r.UpdatedAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO request_payments (id, payer, payee, amount, message, status, settlement_tx, is_group_payment, group_payment_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Payer, r.Payee, r.Amount, r.Message, string(r.Status), r.SettlementTx,
		boolToInt(r.IsGroupPayment), r.GroupPaymentID, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert request payment: %w", err)
	}

	for i, tok := range r.Tokens {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO request_tokens (request_id, position, token_id, symbol, amount) VALUES (?, ?, ?, ?, ?)",
			r.ID, i, tok.ID, tok.Symbol, tok.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert request token: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanRequest(scan func(dest ...any) error) (*models.RequestPayment, error) {
	r := &models.RequestPayment{}
	var status string
	var isGroup int
	err := scan(&r.ID, &r.Payer, &r.Payee, &r.Amount, &r.Message, &status, &r.SettlementTx,
		&isGroup, &r.GroupPaymentID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = models.RequestStatus(status)
	r.IsGroupPayment = isGroup != 0
	return r, nil
}

// GetRequestPayment retrieves a request by ID.
func (s *SQLiteStore) GetRequestPayment(ctx context.Context, requestID string) (*models.RequestPayment, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+requestCols+" FROM request_payments WHERE id = ?", requestID)

	r, err := scanRequest(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("request %s: %w", requestID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	if r.Tokens, err = s.listRequestTokens(ctx, r.ID); err != nil {
		return nil, err
	}
	return r, nil
}

// FindOpenRequests returns PENDING requests with the same payer, payee,
// and amount. The service layer compares token sets to decide whether a
// new request is a duplicate.
func (s *SQLiteStore) FindOpenRequests(ctx context.Context, payer, payee string, amount float64) ([]*models.RequestPayment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+requestCols+" FROM request_payments WHERE payer = ? AND payee = ? AND amount = ? AND status = ?",
		payer, payee, amount, string(models.RequestPending),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find open requests: %w", err)
	}
	defer rows.Close()

	requests, err := collectRequests(rows)
	if err != nil {
		return nil, err
	}
	for _, r := range requests {
		if r.Tokens, err = s.listRequestTokens(ctx, r.ID); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

// SetRequestStatus transitions a PENDING request to a terminal status.
// The status predicate rejects double accepts/denies: a request that has
// already left PENDING affects zero rows.
func (s *SQLiteStore) SetRequestStatus(ctx context.Context, requestID string, status models.RequestStatus, settlementTx string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE request_payments SET status = ?, settlement_tx = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(status), settlementTx, time.Now().Unix(), requestID, string(models.RequestPending),
	)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("request %s: %w", requestID, storage.ErrNoRowsUpdated)
	}
	return nil
}

// ListRequestsForUser returns requests where the address is payer or
// payee, newest first.
func (s *SQLiteStore) ListRequestsForUser(ctx context.Context, address string) ([]*models.RequestPayment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+requestCols+" FROM request_payments WHERE payer = ? OR payee = ? ORDER BY created_at DESC",
		address, address,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests, err := collectRequests(rows)
	if err != nil {
		return nil, err
	}
	for _, r := range requests {
		if r.Tokens, err = s.listRequestTokens(ctx, r.ID); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

func collectRequests(rows *sql.Rows) ([]*models.RequestPayment, error) {
	var requests []*models.RequestPayment
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate requests: %w", err)
	}
	return requests, nil
}

func (s *SQLiteStore) listRequestTokens(ctx context.Context, requestID string) ([]models.Token, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT token_id, symbol, amount FROM request_tokens WHERE request_id = ? ORDER BY position",
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get request tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.Token
	for rows.Next() {
		var t models.Token
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan request token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate request tokens: %w", err)
	}
	return tokens, nil
}
