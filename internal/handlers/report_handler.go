package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/services/charts"
	"github.com/ternarybob/finsaathi/internal/services/state"
	"github.com/ternarybob/finsaathi/internal/storage/badger"
)

// ExportFailedMessage is shown to the user whenever a PDF cannot be produced
const ExportFailedMessage = "Failed to generate PDF. Please try again."

// ReportHandler serves /api/reports
type ReportHandler struct {
	aggregator interfaces.Aggregator
	store      *state.Store
	exporter   interfaces.ReportExporter
	reports    interfaces.ReportStorage
	logger     arbor.ILogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(
	agg interfaces.Aggregator,
	store *state.Store,
	exporter interfaces.ReportExporter,
	reports interfaces.ReportStorage,
	logger arbor.ILogger,
) *ReportHandler {
	return &ReportHandler{
		aggregator: agg,
		store:      store,
		exporter:   exporter,
		reports:    reports,
		logger:     logger,
	}
}

// ExportHandler handles POST /api/reports {symbol?}. The committed analysis is
// exported; a symbol that differs from it (or no analysis at all) is aggregated first.
func (h *ReportHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	symbol, err := DecodeSymbol(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	vm, _ := h.store.Current()
	if symbol == "" {
		if vm == nil {
			WriteError(w, http.StatusBadRequest, "No analysis available, provide a symbol")
			return
		}
		symbol = vm.Symbol
	}

	if vm == nil || vm.Symbol != symbol {
		var committed bool
		vm, _, committed = h.store.Refresh(r.Context(), h.aggregator, symbol)
		if !committed {
			h.logger.Debug().Str("symbol", symbol).Msg("Report analysis superseded, exporting it anyway")
		}
	}

	report, err := h.exporter.Export(r.Context(), vm, charts.Build(vm), symbol)
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("Report export failed")
		WriteError(w, http.StatusInternalServerError, ExportFailedMessage)
		return
	}

	WritePDF(w, report.Filename, report.Content)
}

// ListHandler handles GET /api/reports?symbol=&limit=
func (h *ReportHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := common.NormalizeSymbol(r.URL.Query().Get("symbol"))
	limit := GetLimit(r, 20, 100)

	reports, err := h.reports.ListReports(r.Context(), symbol, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list reports")
		WriteError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetHandler handles GET /api/reports/{id} and returns the archived PDF
func (h *ReportHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := PathID(r, "/api/reports/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Report ID is required")
		return
	}

	report, err := h.reports.GetReport(r.Context(), id)
	if errors.Is(err, badger.ErrReportNotFound) {
		WriteError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to load report")
		WriteError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}

	WritePDF(w, report.Filename, report.Content)
}

// DeleteHandler handles DELETE /api/reports/{id}
func (h *ReportHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	id := PathID(r, "/api/reports/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Report ID is required")
		return
	}

	if err := h.reports.DeleteReport(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to delete report")
		WriteError(w, http.StatusInternalServerError, "Failed to delete report")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"id":     id,
	})
}
