package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/services/scheduler"
)

// SchedulerHandler handles scheduler-related endpoints
type SchedulerHandler struct {
	scheduler *scheduler.Service
	logger    arbor.ILogger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(s *scheduler.Service, logger arbor.ILogger) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler: s,
		logger:    logger,
	}
}

// StatusHandler handles GET /api/scheduler
func (h *SchedulerHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.scheduler.Status())
}

// RunHandler handles POST /api/scheduler/run: exports the watchlist now and
// waits for the results
func (h *SchedulerHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	results := h.scheduler.RunNow(r.Context())
	if results == nil {
		WriteError(w, http.StatusConflict, "An export run is already in progress")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
	})
}
