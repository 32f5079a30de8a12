// Package metrics holds the Prometheus collectors of the service.
// All recording methods are safe on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "finsaathi"

var durationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Upstream analysis API
	UpstreamRequestsTotal *prometheus.CounterVec
	UpstreamDuration      *prometheus.HistogramVec

	// Aggregation
	AggregationsTotal   *prometheus.CounterVec
	AggregationDuration prometheus.Histogram

	// Report export
	ExportsTotal   *prometheus.CounterVec
	ExportDuration prometheus.Histogram
	ExportPages    prometheus.Histogram
	ChartCaptures  *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal *prometheus.CounterVec

	// Circuit breakers
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// New creates and registers all metrics on reg (the default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of analysis API requests",
			},
			[]string{"endpoint", "status"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "duration_seconds",
				Help:      "Duration of analysis API requests in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"endpoint"},
		),
		AggregationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "aggregation",
				Name:      "total",
				Help:      "Total number of aggregation runs by outcome",
			},
			[]string{"outcome"},
		),
		AggregationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "aggregation",
				Name:      "duration_seconds",
				Help:      "Wall time of an aggregation run in seconds",
				Buckets:   durationBuckets,
			},
		),
		ExportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "report",
				Name:      "exports_total",
				Help:      "Total number of PDF exports by outcome",
			},
			[]string{"outcome"},
		),
		ExportDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "report",
				Name:      "export_duration_seconds",
				Help:      "Duration of PDF export in seconds",
				Buckets:   durationBuckets,
			},
		),
		ExportPages: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "report",
				Name:      "pages",
				Help:      "Page count of exported reports",
				Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 20},
			},
		),
		ChartCaptures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "report",
				Name:      "chart_captures_total",
				Help:      "Chart region captures by region and outcome",
			},
			[]string{"region", "outcome"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "status"},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"breaker"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"breaker"},
		),
	}
}

// RecordUpstream records one analysis API call
func (m *Metrics) RecordUpstream(endpoint, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.UpstreamDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordAggregation records one aggregation run
func (m *Metrics) RecordAggregation(failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "failed"
	}
	m.AggregationsTotal.WithLabelValues(outcome).Inc()
	m.AggregationDuration.Observe(duration.Seconds())
}

// RecordExport records one PDF export; pages is ignored for failures
func (m *Metrics) RecordExport(err error, pages int, duration time.Duration) {
	if m == nil {
		return
	}
	if err != nil {
		m.ExportsTotal.WithLabelValues("failed").Inc()
		return
	}
	m.ExportsTotal.WithLabelValues("success").Inc()
	m.ExportDuration.Observe(duration.Seconds())
	m.ExportPages.Observe(float64(pages))
}

// RecordCapture records one chart region capture
func (m *Metrics) RecordCapture(region string, captured bool) {
	if m == nil {
		return
	}
	outcome := "captured"
	if !captured {
		outcome = "omitted"
	}
	m.ChartCaptures.WithLabelValues(region, outcome).Inc()
}

// RecordHTTP records one served HTTP request
func (m *Metrics) RecordHTTP(method, status string) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, status).Inc()
}

// SetCircuitBreakerState sets the gauge for a breaker; trips are counted on transitions to open
func (m *Metrics) SetCircuitBreakerState(breaker string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(breaker).Set(float64(state))
	if state == 2 {
		m.CircuitBreakerTrips.WithLabelValues(breaker).Inc()
	}
}
