// Package api exposes the settlement engine over HTTP with chi. The
// engine itself is transport-agnostic; this layer only decodes JSON,
// resolves the caller from the auth middleware, and maps errors.
package api

import (
	"time"

	"github.com/nmalik/paysplit/internal/models"
	"github.com/nmalik/paysplit/internal/service"
)

// Handler holds the services the routes delegate to.
type Handler struct {
	groups    *service.GroupService
	payments  *service.PaymentService
	requests  *service.RequestService
	schedules *service.ScheduleService
}

// NewHandler creates a Handler over the given services.
func NewHandler(groups *service.GroupService, payments *service.PaymentService, requests *service.RequestService, schedules *service.ScheduleService) *Handler {
	return &Handler{groups: groups, payments: payments, requests: requests, schedules: schedules}
}

// Shared JSON shapes.

type tokenPayload struct {
	ID     string  `json:"id,omitempty"`
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"`
}

func toTokens(in []tokenPayload) []models.Token {
	out := make([]models.Token, len(in))
	for i, t := range in {
		out[i] = models.Token{ID: t.ID, Symbol: t.Symbol, Amount: t.Amount}
	}
	return out
}

func fromTokens(in []models.Token) []tokenPayload {
	out := make([]tokenPayload, len(in))
	for i, t := range in {
		out[i] = tokenPayload{ID: t.ID, Symbol: t.Symbol, Amount: t.Amount}
	}
	return out
}

type memberPayload struct {
	Address     string `json:"address"`
	DisplayName string `json:"display_name,omitempty"`
}

type groupPayload struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Owner     string          `json:"owner"`
	Members   []memberPayload `json:"members"`
	CreatedAt int64           `json:"created_at"`
}

func fromGroup(g *models.Group) groupPayload {
	members := make([]memberPayload, len(g.Members))
	for i, m := range g.Members {
		members[i] = memberPayload{Address: m.Address, DisplayName: m.DisplayName}
	}
	return groupPayload{
		ID:        g.ID,
		Name:      g.Name,
		Owner:     g.OwnerAddress,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

type paymentPayload struct {
	ID        string         `json:"id"`
	GroupID   string         `json:"group_id"`
	Owner     string         `json:"owner"`
	Tokens    []tokenPayload `json:"tokens"`
	Total     float64        `json:"total"`
	PerMember float64        `json:"per_member"`
	LinkCode  string         `json:"link_code"`
	Status    string         `json:"status"`
	CreatedAt int64          `json:"created_at"`
}

func fromPayment(p *models.GroupPayment) paymentPayload {
	return paymentPayload{
		ID:        p.ID,
		GroupID:   p.GroupID,
		Owner:     p.OwnerAddress,
		Tokens:    fromTokens(p.Tokens),
		Total:     p.TotalAmount,
		PerMember: p.PerMember,
		LinkCode:  p.LinkCode,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
	}
}

type memberStatusPayload struct {
	SlotIndex   int    `json:"slot_index"`
	Slot        string `json:"slot"`
	Address     string `json:"address,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Status      string `json:"status"`
	PaidAt      *int64 `json:"paid_at,omitempty"`
}

func fromMemberStatuses(in []*models.MemberStatus) []memberStatusPayload {
	out := make([]memberStatusPayload, len(in))
	for i, st := range in {
		out[i] = memberStatusPayload{
			SlotIndex:   st.SlotIndex,
			Slot:        string(st.Slot),
			Address:     st.Address,
			DisplayName: st.DisplayName,
			Status:      string(st.Status),
			PaidAt:      st.PaidAt,
		}
	}
	return out
}

type requestPayload struct {
	ID             string         `json:"id"`
	Payer          string         `json:"payer"`
	Payee          string         `json:"payee"`
	Amount         float64        `json:"amount"`
	Tokens         []tokenPayload `json:"tokens"`
	Message        string         `json:"message,omitempty"`
	Status         string         `json:"status"`
	SettlementTx   string         `json:"settlement_tx,omitempty"`
	IsGroupPayment bool           `json:"is_group_payment"`
	GroupPaymentID string         `json:"group_payment_id,omitempty"`
	CreatedAt      int64          `json:"created_at"`
}

func fromRequest(r *models.RequestPayment) requestPayload {
	return requestPayload{
		ID:             r.ID,
		Payer:          r.Payer,
		Payee:          r.Payee,
		Amount:         r.Amount,
		Tokens:         fromTokens(r.Tokens),
		Message:        r.Message,
		Status:         string(r.Status),
		SettlementTx:   r.SettlementTx,
		IsGroupPayment: r.IsGroupPayment,
		GroupPaymentID: r.GroupPaymentID,
		CreatedAt:      r.CreatedAt,
	}
}

func fromRequests(in []*models.RequestPayment) []requestPayload {
	out := make([]requestPayload, len(in))
	for i, r := range in {
		out[i] = fromRequest(r)
	}
	return out
}

type schedulePayload struct {
	ID             string         `json:"id"`
	Payer          string         `json:"payer"`
	Payee          string         `json:"payee"`
	Amount         float64        `json:"amount"`
	Tokens         []tokenPayload `json:"tokens"`
	Message        string         `json:"message,omitempty"`
	Frequency      string         `json:"frequency"`
	Status         string         `json:"status"`
	NextExecution  *time.Time     `json:"next_execution,omitempty"`
	EndDate        *time.Time     `json:"end_date,omitempty"`
	MaxExecutions  *int           `json:"max_executions,omitempty"`
	ExecutionCount int            `json:"execution_count"`
	SettlementTxs  []string       `json:"settlement_txs"`
	CreatedAt      int64          `json:"created_at"`
}

func fromSchedule(s *models.SchedulePayment) schedulePayload {
	return schedulePayload{
		ID:             s.ID,
		Payer:          s.Payer,
		Payee:          s.Payee,
		Amount:         s.Amount,
		Tokens:         fromTokens(s.Tokens),
		Message:        s.Message,
		Frequency:      string(s.Frequency),
		Status:         string(s.Status),
		NextExecution:  s.NextExecution,
		EndDate:        s.EndDate,
		MaxExecutions:  s.MaxExecutions,
		ExecutionCount: s.ExecutionCount,
		SettlementTxs:  s.SettlementTxs,
		CreatedAt:      s.CreatedAt,
	}
}
