package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/services/aggregator"
	"github.com/ternarybob/finsaathi/internal/services/state"
)

// AnalysisHandler serves /api/analysis
type AnalysisHandler struct {
	aggregator interfaces.Aggregator
	store      *state.Store
	logger     arbor.ILogger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(agg interfaces.Aggregator, store *state.Store, logger arbor.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		aggregator: agg,
		store:      store,
		logger:     logger,
	}
}

// CurrentHandler handles GET /api/analysis
func (h *AnalysisHandler) CurrentHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	vm, gen := h.store.Current()
	if vm == nil {
		WriteError(w, http.StatusNotFound, "No analysis available")
		return
	}
	WriteJSON(w, http.StatusOK, aggregator.View(vm, gen))
}

// AnalyzeHandler handles POST /api/analysis {symbol}. The run is committed
// unless a newer request superseded it, which answers 409.
func (h *AnalysisHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	symbol, err := DecodeSymbol(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	vm, gen, committed := h.store.Refresh(r.Context(), h.aggregator, symbol)
	if !committed {
		h.logger.Debug().Str("symbol", symbol).Msg("Analysis superseded by a newer request")
		WriteError(w, http.StatusConflict, "Analysis superseded by a newer request")
		return
	}

	status := http.StatusOK
	if vm.Failed {
		status = http.StatusBadGateway
	}
	WriteJSON(w, status, aggregator.View(vm, gen))
}
