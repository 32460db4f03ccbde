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

// CreateGroupPayment inserts the payment row and its token list. A link
// code collision surfaces as storage.ErrDuplicate via the UNIQUE
// constraint; the orchestrator retries with a fresh code.
func (s *SQLiteStore) CreateGroupPayment(ctx context.Context, p *models.GroupPayment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO group_payments (id, group_id, owner_address, total_amount, per_member, link_code, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.GroupID, p.OwnerAddress, p.TotalAmount, p.PerMember, p.LinkCode, string(p.Status), p.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("link code %s: %w", p.LinkCode, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert group payment: %w", err)
	}

	for i, tok := range p.Tokens {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_payment_tokens (payment_id, position, token_id, symbol, amount) VALUES (?, ?, ?, ?, ?)",
			p.ID, i, tok.ID, tok.Symbol, tok.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment token: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateMemberStatuses inserts the per-member settlement rows.
func (s *SQLiteStore) CreateMemberStatuses(ctx context.Context, statuses []*models.MemberStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, st := range statuses {
		if st.ID == "" {
			st.ID = uuid.New().String()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO group_payment_members (id, payment_id, slot_index, slot_state, member_address, display_name, status, paid_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			st.ID, st.PaymentID, st.SlotIndex, string(st.Slot), st.Address, st.DisplayName, string(st.Status), st.PaidAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) scanGroupPayment(ctx context.Context, row *sql.Row, notFoundKey string) (*models.GroupPayment, error) {
	p := &models.GroupPayment{}
	var status string
	err := row.Scan(&p.ID, &p.GroupID, &p.OwnerAddress, &p.TotalAmount, &p.PerMember, &p.LinkCode, &status, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group payment %s: %w", notFoundKey, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group payment: %w", err)
	}
	p.Status = models.GroupPaymentStatus(status)

	if p.Tokens, err = s.listPaymentTokens(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

const groupPaymentCols = "id, group_id, owner_address, total_amount, per_member, link_code, status, created_at"

// GetGroupPayment retrieves a payment by ID.
func (s *SQLiteStore) GetGroupPayment(ctx context.Context, paymentID string) (*models.GroupPayment, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+groupPaymentCols+" FROM group_payments WHERE id = ?", paymentID)
	return s.scanGroupPayment(ctx, row, paymentID)
}

// GetGroupPaymentByLink retrieves a payment by its link code.
func (s *SQLiteStore) GetGroupPaymentByLink(ctx context.Context, linkCode string) (*models.GroupPayment, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+groupPaymentCols+" FROM group_payments WHERE link_code = ?", linkCode)
	return s.scanGroupPayment(ctx, row, linkCode)
}

// ListGroupPayments returns all payments for a group, newest first.
func (s *SQLiteStore) ListGroupPayments(ctx context.Context, groupID string) ([]*models.GroupPayment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+groupPaymentCols+" FROM group_payments WHERE group_id = ? ORDER BY created_at DESC",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.GroupPayment
	for rows.Next() {
		p := &models.GroupPayment{}
		var status string
		if err := rows.Scan(&p.ID, &p.GroupID, &p.OwnerAddress, &p.TotalAmount, &p.PerMember, &p.LinkCode, &status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group payment: %w", err)
		}
		p.Status = models.GroupPaymentStatus(status)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group payments: %w", err)
	}

	for _, p := range payments {
		if p.Tokens, err = s.listPaymentTokens(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return payments, nil
}

func (s *SQLiteStore) listPaymentTokens(ctx context.Context, paymentID string) ([]models.Token, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT token_id, symbol, amount FROM group_payment_tokens WHERE payment_id = ? ORDER BY position",
		paymentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.Token
	for rows.Next() {
		var t models.Token
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan payment token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment tokens: %w", err)
	}
	return tokens, nil
}

// ListMemberStatuses returns all member rows for a payment in slot order.
func (s *SQLiteStore) ListMemberStatuses(ctx context.Context, paymentID string) ([]*models.MemberStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payment_id, slot_index, slot_state, member_address, display_name, status, paid_at
		 FROM group_payment_members WHERE payment_id = ? ORDER BY slot_index`,
		paymentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list member statuses: %w", err)
	}
	defer rows.Close()

	var statuses []*models.MemberStatus
	for rows.Next() {
		st := &models.MemberStatus{}
		var slot, status string
		var paidAt sql.NullInt64
		if err := rows.Scan(&st.ID, &st.PaymentID, &st.SlotIndex, &slot, &st.Address, &st.DisplayName, &status, &paidAt); err != nil {
			return nil, fmt.Errorf("failed to scan member status: %w", err)
		}
		st.Slot = models.SlotState(slot)
		st.Status = models.SettlementState(status)
		if paidAt.Valid {
			st.PaidAt = &paidAt.Int64
		}
		statuses = append(statuses, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate member statuses: %w", err)
	}
	return statuses, nil
}

// SetMemberPaid conditionally marks the member's PENDING row PAID. The
// status predicate makes the write safe under concurrent settlement.
func (s *SQLiteStore) SetMemberPaid(ctx context.Context, paymentID, memberAddress string, paidAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE group_payment_members SET status = ?, paid_at = ?
		 WHERE payment_id = ? AND member_address = ? AND status = ?`,
		string(models.MemberPaid), paidAt.Unix(), paymentID, memberAddress, string(models.MemberPending),
	)
	if err != nil {
		return fmt.Errorf("failed to mark member paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("member %s on payment %s: %w", memberAddress, paymentID, storage.ErrNoRowsUpdated)
	}
	return nil
}

// SetMemberDenied conditionally marks the member's PENDING row DENIED.
func (s *SQLiteStore) SetMemberDenied(ctx context.Context, paymentID, memberAddress string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE group_payment_members SET status = ?
		 WHERE payment_id = ? AND member_address = ? AND status = ?`,
		string(models.MemberDenied), paymentID, memberAddress, string(models.MemberPending),
	)
	if err != nil {
		return fmt.Errorf("failed to mark member denied: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("member %s on payment %s: %w", memberAddress, paymentID, storage.ErrNoRowsUpdated)
	}
	return nil
}

// ClaimSlot claims the first empty slot for the claimant and marks it
// PAID in a single conditional statement. Two claimants racing for the
// last slot cannot both match the predicate: SQLite serializes the
// writes and the second one affects zero rows.
func (s *SQLiteStore) ClaimSlot(ctx context.Context, paymentID, claimantAddress string, paidAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE group_payment_members
		 SET slot_state = ?, member_address = ?, status = ?, paid_at = ?
		 WHERE payment_id = ?
		   AND slot_state = ?
		   AND slot_index = (
		       SELECT MIN(slot_index) FROM group_payment_members
		       WHERE payment_id = ? AND slot_state = ?)
		   AND NOT EXISTS (
		       SELECT 1 FROM group_payment_members
		       WHERE payment_id = ? AND member_address = ?)`,
		string(models.SlotOccupied), claimantAddress, string(models.MemberPaid), paidAt.Unix(),
		paymentID,
		string(models.SlotEmpty),
		paymentID, string(models.SlotEmpty),
		paymentID, claimantAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to claim slot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("claim on payment %s: %w", paymentID, storage.ErrNoRowsUpdated)
	}
	return nil
}

// CompleteGroupPayment flips PENDING -> COMPLETED. Flipping an already
// COMPLETED payment affects zero rows and is not an error, which keeps
// the completion cascade idempotent under concurrent settlement.
func (s *SQLiteStore) CompleteGroupPayment(ctx context.Context, paymentID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE group_payments SET status = ? WHERE id = ? AND status = ?",
		string(models.GroupPaymentCompleted), paymentID, string(models.GroupPaymentPending),
	)
	if err != nil {
		return fmt.Errorf("failed to complete group payment: %w", err)
	}
	return nil
}
