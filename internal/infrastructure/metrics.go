package infrastructure

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus instruments the pipeline and the HTTP server
// record into. All instruments live on one registry so /metrics exposes the
// whole set.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline instruments
	PipelineRuns       *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
	RowsProcessed      *prometheus.CounterVec
	CellsInterpolated  *prometheus.CounterVec
	CellsForwardFilled *prometheus.CounterVec
	QualityViolations  *prometheus.CounterVec
	OutliersFlagged    prometheus.Counter
	Completeness       *prometheus.GaugeVec

	// HTTP instruments
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a metrics set on a fresh registry that also carries the
// standard Go runtime and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newMetricsOn(registry)
}

func newMetricsOn(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embalses",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by final status.",
		}, []string{"status"}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "embalses",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent per pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage"}),

		RowsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embalses",
			Subsystem: "pipeline",
			Name:      "rows_processed_total",
			Help:      "Observations loaded per reservoir.",
		}, []string{"reservoir"}),

		CellsInterpolated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embalses",
			Subsystem: "cleaner",
			Name:      "cells_interpolated_total",
			Help:      "Missing cells filled by linear interpolation, per field.",
		}, []string{"field"}),

		CellsForwardFilled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embalses",
			Subsystem: "cleaner",
			Name:      "cells_forward_filled_total",
			Help:      "Missing cells filled by carrying the last value forward, per field.",
		}, []string{"field"}),

		QualityViolations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embalses",
			Subsystem: "validator",
			Name:      "violations_total",
			Help:      "Quality rule violations by violation type.",
		}, []string{"type"}),

		OutliersFlagged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "embalses",
			Subsystem: "cleaner",
			Name:      "outliers_flagged_total",
			Help:      "Out-of-range values flagged during cleaning.",
		}),

		Completeness: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "embalses",
			Subsystem: "validator",
			Name:      "completeness_ratio",
			Help:      "Fraction of expected cells present, per reservoir.",
		}, []string{"reservoir"}),

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embalses",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "embalses",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler returns the /metrics endpoint handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the process-wide metrics set, creating it on first
// use. cmd/processor and cmd/web share this instance.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics()
	})
	return defaultMetrics
}
