// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// StatusHandler handles clock status requests.
type StatusHandler struct {
	deps Dependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps Dependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// HandleStatus handles GET /api/status requests. Callers use it to
// decide whether to request "today" as a provisional board date.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Status(r.Context()))
}
