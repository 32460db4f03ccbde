package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmalik/paysplit/internal/service"
)

type createPaymentRequest struct {
	GroupID   string         `json:"group_id"`
	Amount    string         `json:"amount"`
	Tokens    []tokenPayload `json:"tokens"`
	PerMember string         `json:"per_member,omitempty"`
}

type createPaymentResponse struct {
	Payment   paymentPayload `json:"payment"`
	Link      string         `json:"link"`
	PerMember float64        `json:"per_member"`
}

func (h *Handler) createGroupPayment(w http.ResponseWriter, r *http.Request) {
	var in createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	res, err := h.payments.CreateGroupPayment(r.Context(), service.CreateGroupPaymentInput{
		GroupID:          in.GroupID,
		TotalAmount:      in.Amount,
		Tokens:           toTokens(in.Tokens),
		ClaimedPerMember: in.PerMember,
		OwnerAddress:     CallerAddress(r.Context()),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createPaymentResponse{
		Payment:   fromPayment(res.Payment),
		Link:      res.Link,
		PerMember: res.PerMember,
	})
}

type paymentSummaryResponse struct {
	Payment paymentPayload        `json:"payment"`
	Members []memberStatusPayload `json:"members"`
	Paid    int                   `json:"paid"`
	Total   int                   `json:"total"`
}

// getPaymentByLink is the one unauthenticated payment route: the link
// code is the capability.
func (h *Handler) getPaymentByLink(w http.ResponseWriter, r *http.Request) {
	summary, err := h.payments.GetPaymentByLink(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentSummaryResponse{
		Payment: fromPayment(summary.Payment),
		Members: fromMemberStatuses(summary.Members),
		Paid:    summary.Paid,
		Total:   summary.Total,
	})
}

func (h *Handler) listGroupPayments(w http.ResponseWriter, r *http.Request) {
	byDate, err := h.payments.GetGroupPayments(r.Context(), chi.URLParam(r, "groupID"), CallerAddress(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make(map[string][]paymentPayload, len(byDate))
	for date, payments := range byDate {
		list := make([]paymentPayload, len(payments))
		for i, p := range payments {
			list[i] = fromPayment(p)
		}
		out[date] = list
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": out})
}

type createQuickShareRequest struct {
	Amount      string         `json:"amount"`
	Tokens      []tokenPayload `json:"tokens"`
	MemberCount int            `json:"member_count"`
}

type createQuickShareResponse struct {
	Payment     paymentPayload `json:"payment"`
	Code        string         `json:"code"`
	MemberCount int            `json:"member_count"`
	PerMember   float64        `json:"per_member"`
}

func (h *Handler) createQuickShare(w http.ResponseWriter, r *http.Request) {
	var in createQuickShareRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	res, err := h.payments.CreateQuickShare(r.Context(), in.Amount, toTokens(in.Tokens), in.MemberCount, CallerAddress(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createQuickShareResponse{
		Payment:     fromPayment(res.Payment),
		Code:        res.Code,
		MemberCount: res.MemberCount,
		PerMember:   res.PerMember,
	})
}

type joinQuickShareResponse struct {
	FilledSlots int     `json:"filled_slots"`
	TotalSlots  int     `json:"total_slots"`
	PerMember   float64 `json:"per_member"`
	Completed   bool    `json:"completed"`
}

func (h *Handler) joinQuickShare(w http.ResponseWriter, r *http.Request) {
	res, err := h.payments.JoinQuickShare(r.Context(), chi.URLParam(r, "code"), CallerAddress(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, joinQuickShareResponse{
		FilledSlots: res.FilledSlots,
		TotalSlots:  res.TotalSlots,
		PerMember:   res.PerMember,
		Completed:   res.Completed,
	})
}
