// Package monitoring provides Prometheus metrics, tracing and the
// operations server
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nutrimom/api/internal/ports/outbound"
)

const namespace = "nutrimom"

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Business metrics
	plansTotal     *prometheus.CounterVec
	planDuration   prometheus.Histogram
	scansTotal     *prometheus.CounterVec
	scanCandidates prometheus.Histogram
	mealLogsTotal  *prometheus.CounterVec
	catalogLoads   *prometheus.CounterVec

	// Database metrics
	dbQueryDuration *prometheus.HistogramVec
	dbQueryErrors   *prometheus.CounterVec
}

var _ outbound.MetricsRecorder = (*MetricsCollector)(nil)

// NewMetricsCollector creates a collector on its own registry, together
// with the Go runtime and process collectors
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger,
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		plansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plans_generated_total",
				Help:      "Meal plans generated, by whether detected ingredients were supplied",
			},
			[]string{"detection"},
		),
		planDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "plan_duration_seconds",
				Help:      "Time spent building a meal plan",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		scansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scans_total",
				Help:      "Food scans by label source and recognizer outcome",
			},
			[]string{"source", "recognizer"},
		),
		scanCandidates: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scan_candidates",
				Help:      "Number of candidates returned per scan",
				Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
			},
		),
		mealLogsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "meal_logs_total",
				Help:      "Meal log operations",
			},
			[]string{"action"},
		),
		catalogLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_loads_total",
				Help:      "Catalog loads by cache outcome",
			},
			[]string{"cache"},
		),

		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Database query duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation", "table"},
		),
		dbQueryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_query_errors_total",
				Help:      "Database statements that returned an error",
			},
			[]string{"operation", "table"},
		),
	}
}

// HTTPMiddleware records request counts and latency labelled by the chi
// route pattern
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordPlan counts a generated plan
func (m *MetricsCollector) RecordPlan(days int, detectionUsed bool, duration time.Duration) {
	m.plansTotal.WithLabelValues(strconv.FormatBool(detectionUsed)).Inc()
	m.planDuration.Observe(duration.Seconds())
}

// RecordScan counts a scan. source is "labels" or "image".
func (m *MetricsCollector) RecordScan(source string, candidates int, recognizerFailed bool) {
	outcome := "ok"
	if recognizerFailed {
		outcome = "failed"
	}
	m.scansTotal.WithLabelValues(source, outcome).Inc()
	m.scanCandidates.Observe(float64(candidates))
}

// RecordMealLog counts a meal log action
func (m *MetricsCollector) RecordMealLog(action string) {
	m.mealLogsTotal.WithLabelValues(action).Inc()
}

// RecordCatalogLoad counts a catalog load
func (m *MetricsCollector) RecordCatalogLoad(cacheHit bool) {
	outcome := "miss"
	if cacheHit {
		outcome = "hit"
	}
	m.catalogLoads.WithLabelValues(outcome).Inc()
}

// ObserveQuery records one database statement
func (m *MetricsCollector) ObserveQuery(operation, table string, duration time.Duration, failed bool) {
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if failed {
		m.dbQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
