// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kazuki326/coinboard/internal/adapters/repository"
	service "github.com/kazuki326/coinboard/internal/app"
	"github.com/kazuki326/coinboard/internal/domain/model"
	"github.com/kazuki326/coinboard/internal/domain/ranking"
	"github.com/kazuki326/coinboard/internal/domain/series"
	"github.com/kazuki326/coinboard/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to the service package.
type Dependencies interface {
	Status(ctx context.Context) service.Status
	Board(ctx context.Context, metric types.Metric, asOf *model.Date, windowDays int) ([]types.BoardEntry, model.Date, error)
	Series(ctx context.Context, metric types.Metric, end *model.Date, days, top, windowDays int) ([]types.SeriesEntry, model.Date, error)
	SubmitObservation(ctx context.Context, userID string, date *model.Date, value int) (service.SubmitResult, error)
	UpdateObservation(ctx context.Context, userID string, date model.Date, value int) (service.SubmitResult, error)
	History(ctx context.Context, userID string, days int) ([]service.HistoryRow, error)
	RegisterUser(ctx context.Context, name string) (model.User, error)
	DefaultPeriodDays() int
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	statusHandler *StatusHandler
	boardHandler  *BoardHandler
	seriesHandler *SeriesHandler
	coinsHandler  *CoinsHandler
	writeLimiter  *WriteLimiter
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		statusHandler: NewStatusHandler(deps),
		boardHandler:  NewBoardHandler(deps),
		seriesHandler: NewSeriesHandler(deps),
		coinsHandler:  NewCoinsHandler(deps),
		writeLimiter:  NewWriteLimiter(DefaultWriteLimiterConfig()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithWriteLimiter overrides the write-path rate limiter.
func WithWriteLimiter(l *WriteLimiter) Option {
	return func(s *Server) {
		if l != nil {
			s.writeLimiter = l
		}
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
	mux.HandleFunc("/api/register", MetricsMiddleware(s.coinsHandler.HandleRegister, "register"))
	mux.HandleFunc("/api/board", MetricsMiddleware(s.boardHandler.HandleGetBoard, "board"))
	mux.HandleFunc("/api/board_series", MetricsMiddleware(s.seriesHandler.HandleGetSeries, "board_series"))
	mux.HandleFunc("/api/coins", MetricsMiddleware(RequestIDMiddleware(s.writeLimiter.Middleware(s.coinsHandler.HandleCoins)), "coins"))
	mux.HandleFunc("/api/coins/", MetricsMiddleware(RequestIDMiddleware(s.writeLimiter.Middleware(s.coinsHandler.HandlePatchCoins)), "coins_patch"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates service and domain sentinel errors into
// HTTP responses. Anything unrecognized is an upstream failure and
// maps to 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidValue),
		errors.Is(err, service.ErrFutureDate),
		errors.Is(err, ranking.ErrInvalidArgument),
		errors.Is(err, series.ErrInvalidArgument),
		errors.Is(err, series.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrDayFinalized),
		errors.Is(err, service.ErrPastEditLocked),
		errors.Is(err, service.ErrPastEditTooOld):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, repository.ErrNameTaken):
		writeError(w, http.StatusConflict, "conflict", err)
	case service.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
