package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nmalik/paysplit/internal/models"
	"github.com/nmalik/paysplit/internal/service"
)

type createScheduleRequest struct {
	Payee         string         `json:"payee"`
	Amount        string         `json:"amount"`
	Tokens        []tokenPayload `json:"tokens"`
	Message       string         `json:"message,omitempty"`
	Frequency     string         `json:"frequency"`
	NextExecution time.Time      `json:"next_execution"`
	EndDate       *time.Time     `json:"end_date,omitempty"`
	MaxExecutions *int           `json:"max_executions,omitempty"`
	SettlementTxs []string       `json:"settlement_txs"`
}

func (h *Handler) createSchedule(w http.ResponseWriter, r *http.Request) {
	var in createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	sched, err := h.schedules.CreateSchedule(r.Context(), service.CreateScheduleInput{
		Payer:         CallerAddress(r.Context()),
		Payee:         in.Payee,
		Amount:        in.Amount,
		Tokens:        toTokens(in.Tokens),
		Message:       in.Message,
		Frequency:     models.Frequency(in.Frequency),
		NextExecution: in.NextExecution,
		EndDate:       in.EndDate,
		MaxExecutions: in.MaxExecutions,
		SettlementTxs: in.SettlementTxs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fromSchedule(sched))
}

func (h *Handler) getSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.schedules.GetSchedule(r.Context(), chi.URLParam(r, "scheduleID"), CallerAddress(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromSchedule(sched))
}

func (h *Handler) listSchedules(w http.ResponseWriter, r *http.Request) {
	status := models.ScheduleStatus(r.URL.Query().Get("status"))
	scheds, err := h.schedules.ListForUser(r.Context(), CallerAddress(r.Context()), status)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]schedulePayload, len(scheds))
	for i, s := range scheds {
		out[i] = fromSchedule(s)
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedules": out})
}

func (h *Handler) pauseSchedule(w http.ResponseWriter, r *http.Request) {
	h.setScheduleStatus(w, r, h.schedules.Pause)
}

func (h *Handler) resumeSchedule(w http.ResponseWriter, r *http.Request) {
	h.setScheduleStatus(w, r, h.schedules.Resume)
}

func (h *Handler) cancelSchedule(w http.ResponseWriter, r *http.Request) {
	h.setScheduleStatus(w, r, h.schedules.Cancel)
}

func (h *Handler) setScheduleStatus(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, scheduleID, callerAddress string) error) {
	if err := fn(r.Context(), chi.URLParam(r, "scheduleID"), CallerAddress(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.schedules.Delete(r.Context(), chi.URLParam(r, "scheduleID"), CallerAddress(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
