// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"

	"github.com/kazuki326/coinboard/internal/domain/model"
	"github.com/kazuki326/coinboard/internal/domain/types"
)

// BoardHandler handles board snapshot requests.
type BoardHandler struct {
	deps Dependencies
}

// NewBoardHandler creates a new board handler.
func NewBoardHandler(deps Dependencies) *BoardHandler {
	return &BoardHandler{deps: deps}
}

type boardResponse struct {
	Date       model.Date         `json:"date_ymd"`
	Mode       string             `json:"mode"`
	PeriodDays int                `json:"period_days"`
	Board      []types.BoardEntry `json:"board"`
}

// HandleGetBoard handles GET /api/board?date=&mode=&period_days= requests.
// An omitted date defaults to the last finalized day.
func (h *BoardHandler) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()

	metric, err := types.ParseMetric(q.Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	asOf, err := optionalDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	windowDays, err := optionalInt(q.Get("period_days"), h.deps.DefaultPeriodDays())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	entries, date, err := h.deps.Board(r.Context(), metric, asOf, windowDays)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, boardResponse{
		Date:       date,
		Mode:       metric.String(),
		PeriodDays: windowDays,
		Board:      entries,
	})
}

// optionalDate parses a YYYY-MM-DD query parameter; empty means unset.
func optionalDate(s string) (*model.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// optionalInt parses an integer query parameter with a fallback.
func optionalInt(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}
