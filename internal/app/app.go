package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/finapi"
	"github.com/ternarybob/finsaathi/internal/handlers"
	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/metrics"
	"github.com/ternarybob/finsaathi/internal/models"
	"github.com/ternarybob/finsaathi/internal/services/aggregator"
	"github.com/ternarybob/finsaathi/internal/services/capture"
	"github.com/ternarybob/finsaathi/internal/services/charts"
	"github.com/ternarybob/finsaathi/internal/services/news"
	"github.com/ternarybob/finsaathi/internal/services/report"
	"github.com/ternarybob/finsaathi/internal/services/scheduler"
	"github.com/ternarybob/finsaathi/internal/services/search"
	"github.com/ternarybob/finsaathi/internal/services/state"
	"github.com/ternarybob/finsaathi/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config   *common.Config
	Logger   arbor.ILogger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Storage
	StorageManager interfaces.StorageManager

	// Services
	Client     *finapi.Client
	Aggregator *aggregator.Service
	State      *state.Store
	Search     *search.Service
	News       *news.Service
	Capturer   interfaces.ChartCapturer
	Exporter   *report.Exporter
	DiskSink   *report.DiskSink
	Scheduler  *scheduler.Service

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	AnalysisHandler  *handlers.AnalysisHandler
	ReportHandler    *handlers.ReportHandler
	MarketHandler    *handlers.MarketHandler
	ChartsHandler    *handlers.ChartsHandler
	SchedulerHandler *handlers.SchedulerHandler

	closeCapturer func()
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	app.initMetrics()

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("capture", cfg.Capture.Mode).
		Bool("archive", cfg.Report.Archive).
		Bool("scheduler", cfg.Report.Schedule != "").
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initMetrics() {
	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

// initServices wires the upstream client, the aggregation pipeline and the exporter
func (a *App) initServices() error {
	opts := []finapi.ClientOption{
		finapi.WithBaseURL(a.Config.API.BaseURL),
		finapi.WithTimeout(a.Config.API.TimeoutDuration()),
		finapi.WithRateLimit(a.Config.API.RateLimit),
		finapi.WithLogger(a.Logger),
		finapi.WithMetrics(a.Metrics),
	}
	if a.Config.API.Breaker.Enabled {
		opts = append(opts, finapi.WithBreaker(finapi.BreakerConfig{
			MaxRequests: a.Config.API.Breaker.MaxRequests,
			Interval:    a.Config.API.Breaker.IntervalDuration(),
			Timeout:     a.Config.API.Breaker.TimeoutDuration(),
		}))
	}
	a.Client = finapi.NewClient(opts...)

	a.Aggregator = aggregator.NewService(a.Client, a.Config.API.InitialCapital, a.Logger, a.Metrics)
	a.State = state.NewStore()
	a.Search = search.NewService(a.Client, a.Logger)
	a.News = news.NewService(a.Client, a.Logger)

	a.Capturer, a.closeCapturer = capture.New(a.Config.Capture, a.Logger)

	var sinks report.Sinks
	if a.Config.Report.OutputDir != "" {
		a.DiskSink = report.NewDiskSink(a.Config.Report.OutputDir, a.Logger)
		sinks = append(sinks, a.DiskSink)
	}
	if a.Config.Report.Archive {
		sinks = append(sinks, report.NewArchiveSink(a.StorageManager.ReportStorage()))
	}
	a.Exporter = report.NewExporter(a.Capturer, sinks, a.Config.Report.Attribution, a.Logger, a.Metrics)

	a.Scheduler = scheduler.NewService(a.Aggregator, a.Exporter, buildSurface, a.Config.Report.Watchlist, a.Logger)
	a.Scheduler.SetConcurrency(a.Config.Report.Concurrency)
	if a.Config.Report.Schedule != "" {
		if err := a.Scheduler.Start(a.Config.Report.Schedule); err != nil {
			return fmt.Errorf("failed to start report scheduler: %w", err)
		}
	}

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Client.BreakerStatus, a.Logger)
	a.AnalysisHandler = handlers.NewAnalysisHandler(a.Aggregator, a.State, a.Logger)
	a.ReportHandler = handlers.NewReportHandler(a.Aggregator, a.State, a.Exporter, a.StorageManager.ReportStorage(), a.Logger)
	a.MarketHandler = handlers.NewMarketHandler(a.Search, a.News, a.Logger)
	a.ChartsHandler = handlers.NewChartsHandler(a.State, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.Scheduler, a.Logger)
}

func buildSurface(vm *models.ViewModel) interfaces.ChartSurface {
	return charts.Build(vm)
}

// ExportSymbol aggregates symbol, commits it and exports the PDF.
// An aggregation failure is returned without exporting.
func (a *App) ExportSymbol(ctx context.Context, symbol string) (*models.Report, error) {
	symbol, err := common.ParseSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	vm, _, _ := a.State.Refresh(ctx, a.Aggregator, symbol)
	if vm.Failed {
		return nil, fmt.Errorf("analysis of %s failed: %s", symbol, vm.Error)
	}
	return a.Exporter.Export(ctx, vm, buildSurface(vm), symbol)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	if a.closeCapturer != nil {
		a.closeCapturer()
		a.Logger.Debug().Msg("Chart capturer closed")
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
