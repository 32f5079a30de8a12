package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/finapi"
)

// BreakerStatusFunc reports upstream circuit breaker states
type BreakerStatusFunc func() map[string]finapi.BreakerStatus

type APIHandler struct {
	logger    arbor.ILogger
	breakers  BreakerStatusFunc
	startTime time.Time
}

func NewAPIHandler(breakers BreakerStatusFunc, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		logger:    logger,
		breakers:  breakers,
		startTime: time.Now(),
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, common.GetBuildInfo())
}

// HealthHandler returns health check status. Status is "degraded" while any
// upstream circuit breaker is open.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status := "ok"
	var breakers map[string]finapi.BreakerStatus
	if h.breakers != nil {
		breakers = h.breakers()
		for _, b := range breakers {
			if b.State == "open" {
				status = "degraded"
			}
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   status,
		"uptime":   time.Since(h.startTime).Round(time.Second).String(),
		"breakers": breakers,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
