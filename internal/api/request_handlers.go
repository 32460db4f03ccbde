package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmalik/paysplit/internal/service"
)

type createRequestRequest struct {
	Payer   string         `json:"payer"`
	Amount  string         `json:"amount"`
	Tokens  []tokenPayload `json:"tokens"`
	Message string         `json:"message,omitempty"`
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var in createRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	req, err := h.requests.CreateRequest(r.Context(), service.CreateRequestInput{
		Payer:   in.Payer,
		Payee:   CallerAddress(r.Context()),
		Amount:  in.Amount,
		Tokens:  toTokens(in.Tokens),
		Message: in.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fromRequest(req))
}

type settleRequestRequest struct {
	SettlementTx string `json:"settlement_tx"`
}

type settleResponse struct {
	Request        requestPayload `json:"request"`
	GroupCompleted bool           `json:"group_completed"`
	CascadeError   string         `json:"cascade_error,omitempty"`
}

func fromSettleResult(res *service.SettleResult) settleResponse {
	out := settleResponse{
		Request:        fromRequest(res.Request),
		GroupCompleted: res.GroupCompleted,
	}
	if res.CascadeErr != nil {
		out.CascadeError = res.CascadeErr.Error()
	}
	return out
}

func (h *Handler) acceptRequest(w http.ResponseWriter, r *http.Request) {
	var in settleRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	res, err := h.requests.AcceptRequest(r.Context(), chi.URLParam(r, "requestID"), CallerAddress(r.Context()), in.SettlementTx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromSettleResult(res))
}

func (h *Handler) denyRequest(w http.ResponseWriter, r *http.Request) {
	res, err := h.requests.DenyRequest(r.Context(), chi.URLParam(r, "requestID"), CallerAddress(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromSettleResult(res))
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	list, err := h.requests.ListForUser(r.Context(), CallerAddress(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pending":  fromRequests(list.Pending),
		"accepted": fromRequests(list.Accepted),
	})
}
