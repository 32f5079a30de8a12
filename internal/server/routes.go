package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Analysis
	mux.HandleFunc("/api/analysis", s.handleAnalysisRoute) // GET (current), POST (analyze)

	// API routes - Reports
	mux.HandleFunc("/api/reports", s.handleReportsRoute) // GET (list), POST (export)
	mux.HandleFunc("/api/reports/", s.handleReportRoutes) // GET/DELETE /{id}

	// API routes - Market data
	mux.HandleFunc("/api/symbols/search", s.app.MarketHandler.SearchHandler)
	mux.HandleFunc("/api/news", s.app.MarketHandler.NewsHandler)

	// API routes - Scheduler
	mux.HandleFunc("/api/scheduler", s.app.SchedulerHandler.StatusHandler)
	mux.HandleFunc("/api/scheduler/run", s.app.SchedulerHandler.RunHandler)

	// Chart surface (HTML page and per-region PNG)
	mux.HandleFunc("/charts/", s.app.ChartsHandler.ChartsHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(s.app.Registry, promhttp.HandlerOpts{}))

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleAnalysisRoute routes /api/analysis requests
func (s *Server) handleAnalysisRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodGet:  s.app.AnalysisHandler.CurrentHandler,
		http.MethodPost: s.app.AnalysisHandler.AnalyzeHandler,
	})
}

// handleReportsRoute routes /api/reports requests (list and export)
func (s *Server) handleReportsRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.ReportHandler.ListHandler, s.app.ReportHandler.ExportHandler)
}

// handleReportRoutes routes /api/reports/{id} requests
func (s *Server) handleReportRoutes(w http.ResponseWriter, r *http.Request) {
	RouteResourceItem(w, r, s.app.ReportHandler.GetHandler, s.app.ReportHandler.DeleteHandler)
}
