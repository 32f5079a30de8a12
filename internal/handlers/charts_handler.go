package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/services/charts"
	"github.com/ternarybob/finsaathi/internal/services/state"
)

// ChartsHandler serves the chart surface of the committed analysis
type ChartsHandler struct {
	store  *state.Store
	logger arbor.ILogger
}

// NewChartsHandler creates a new charts handler
func NewChartsHandler(store *state.Store, logger arbor.ILogger) *ChartsHandler {
	return &ChartsHandler{
		store:  store,
		logger: logger,
	}
}

// ChartsHandler handles GET /charts/{symbol} (HTML page) and
// GET /charts/{symbol}/{region}.png (one region rasterized)
func (h *ChartsHandler) ChartsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/charts/"), "/"), "/")
	symbol := common.NormalizeSymbol(parts[0])
	if symbol == "" || len(parts) > 2 {
		WriteError(w, http.StatusNotFound, "Chart not found")
		return
	}

	vm, _ := h.store.Current()
	if vm == nil || vm.Symbol != symbol {
		WriteError(w, http.StatusNotFound, "No analysis available for "+symbol)
		return
	}
	surface := charts.Build(vm)

	if len(parts) == 1 {
		page, err := surface.HTML()
		if err != nil {
			h.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to render chart page")
			WriteError(w, http.StatusInternalServerError, "Failed to render charts")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(page)
		return
	}

	region := strings.TrimSuffix(parts[1], ".png")
	png, err := surface.RenderPNG(region, 1)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Chart not found")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

