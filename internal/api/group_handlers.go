package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmalik/paysplit/internal/models"
)

type groupRequest struct {
	Name    string          `json:"name"`
	Members []memberPayload `json:"members"`
}

func (in groupRequest) members() []models.Member {
	out := make([]models.Member, len(in.Members))
	for i, m := range in.Members {
		out[i] = models.Member{Address: m.Address, DisplayName: m.DisplayName}
	}
	return out
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var in groupRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	group, err := h.groups.CreateGroup(r.Context(), CallerAddress(r.Context()), in.Name, in.members())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fromGroup(group))
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GetGroup(r.Context(), chi.URLParam(r, "groupID"), CallerAddress(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromGroup(group))
}

func (h *Handler) updateGroup(w http.ResponseWriter, r *http.Request) {
	var in groupRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	group, err := h.groups.UpdateGroup(r.Context(), chi.URLParam(r, "groupID"), CallerAddress(r.Context()), in.Name, in.members())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromGroup(group))
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.DeleteGroup(r.Context(), chi.URLParam(r, "groupID"), CallerAddress(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListGroups(r.Context(), CallerAddress(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]groupPayload, len(groups))
	for i, g := range groups {
		out[i] = fromGroup(g)
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": out})
}
