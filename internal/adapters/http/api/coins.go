// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kazuki326/coinboard/internal/domain/model"
)

const defaultHistoryDays = 30

// CoinsHandler handles the observation write path and personal history.
// Identity is established upstream; handlers trust the user_id they
// are handed.
type CoinsHandler struct {
	deps Dependencies
}

// NewCoinsHandler creates a new coins handler.
func NewCoinsHandler(deps Dependencies) *CoinsHandler {
	return &CoinsHandler{deps: deps}
}

type submitRequest struct {
	UserID string `json:"user_id"`
	Date   string `json:"date,omitempty"`
	Coins  *int   `json:"coins"`
}

func (req submitRequest) validate() error {
	switch {
	case strings.TrimSpace(req.UserID) == "":
		return ErrMissingUserID
	case req.Coins == nil:
		return ErrMissingCoins
	}
	return nil
}

// HandleCoins dispatches /api/coins: POST records today's (or an
// explicitly dated) balance, GET lists the caller's history.
func (h *CoinsHandler) HandleCoins(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handleHistory(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *CoinsHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	date, err := optionalDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.deps.SubmitObservation(r.Context(), req.UserID, date, *req.Coins)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CoinsHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID := q.Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingUserID)
		return
	}
	days, err := optionalInt(q.Get("days"), defaultHistoryDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	rows, err := h.deps.History(r.Context(), userID, days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandlePatchCoins handles PATCH /api/coins/{date} requests: a
// correction of an existing record, subject to the past-edit policy.
func (h *CoinsHandler) HandlePatchCoins(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.NotFound(w, r)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/coins/")
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	date, err := model.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.deps.UpdateObservation(r.Context(), req.UserID, date, *req.Coins)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type registerRequest struct {
	Name string `json:"name"`
}

// HandleRegister handles POST /api/register requests.
func (h *CoinsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingName)
		return
	}

	user, err := h.deps.RegisterUser(r.Context(), name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
