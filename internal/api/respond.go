package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nmalik/paysplit/internal/service"
	"github.com/nmalik/paysplit/internal/validate"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

// writeError maps service errors onto HTTP statuses: validation 400,
// authorization 403, not-found 404, state- and uniqueness-conflicts 409.
// Unclassified errors become an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case isValidationErr(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, service.ErrNotOwner) || errors.Is(err, service.ErrNotPayer):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case isNotFoundErr(err):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case isConflictErr(err):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		slog.Error("Unhandled service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func isValidationErr(err error) bool {
	for _, target := range []error{
		validate.ErrEmptyAddress,
		validate.ErrInvalidAddress,
		validate.ErrInvalidAmount,
		validate.ErrEmptyName,
		validate.ErrNameTooLong,
		validate.ErrMessageTooLong,
		validate.ErrInvalidCode,
		service.ErrEmptyMembersList,
		service.ErrOwnerIsMember,
		service.ErrShareMismatch,
		service.ErrSelfRequest,
		service.ErrInvalidSlotCount,
		service.ErrScheduleInPast,
		service.ErrEndBeforeStart,
		service.ErrInvalidMaxExec,
		service.ErrNoSettlementTxs,
		service.ErrMissingSettlementTx,
		service.ErrInvalidFrequency,
		service.ErrNoTokens,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFoundErr(err error) bool {
	for _, target := range []error{
		service.ErrGroupNotFound,
		service.ErrPaymentNotFound,
		service.ErrRequestNotFound,
		service.ErrScheduleNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isConflictErr(err error) bool {
	for _, target := range []error{
		service.ErrPaymentAlreadyCompleted,
		service.ErrPaymentNotPending,
		service.ErrRequestNotPending,
		service.ErrScheduleNotActive,
		service.ErrScheduleNotPaused,
		service.ErrScheduleHasExecutions,
		service.ErrDuplicateGroupName,
		service.ErrDuplicateRequest,
		service.ErrNoAvailableSlots,
		service.ErrAlreadyJoined,
		service.ErrOwnerCannotJoin,
		service.ErrNotQuickShare,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
