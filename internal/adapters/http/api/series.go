// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/kazuki326/coinboard/internal/domain/model"
	"github.com/kazuki326/coinboard/internal/domain/types"
)

// Chart request defaults.
const (
	defaultSeriesDays = 14
	defaultSeriesTop  = 5
)

// SeriesHandler handles chart series requests.
type SeriesHandler struct {
	deps Dependencies
}

// NewSeriesHandler creates a new series handler.
func NewSeriesHandler(deps Dependencies) *SeriesHandler {
	return &SeriesHandler{deps: deps}
}

type seriesResponse struct {
	Date       model.Date          `json:"date_ymd"`
	Mode       string              `json:"mode"`
	PeriodDays int                 `json:"period_days"`
	Days       int                 `json:"days"`
	Top        int                 `json:"top"`
	Series     []types.SeriesEntry `json:"series"`
}

// HandleGetSeries handles
// GET /api/board_series?mode=&period_days=&days=&top=&date= requests.
// An omitted date defaults to the last finalized day.
func (h *SeriesHandler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
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

	end, err := optionalDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	windowDays, err := optionalInt(q.Get("period_days"), h.deps.DefaultPeriodDays())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	days, err := optionalInt(q.Get("days"), defaultSeriesDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	top, err := optionalInt(q.Get("top"), defaultSeriesTop)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	entries, date, err := h.deps.Series(r.Context(), metric, end, days, top, windowDays)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, seriesResponse{
		Date:       date,
		Mode:       metric.String(),
		PeriodDays: windowDays,
		Days:       days,
		Top:        top,
		Series:     entries,
	})
}
