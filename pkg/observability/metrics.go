package observability

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exposed by the service.
type Metrics struct {
	registry *prometheus.Registry

	// Statistic evaluation metrics.
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec

	// Cache metrics.
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Snapshot and manifest reload metrics.
	SnapshotRunsTotal *prometheus.CounterVec
	ReloadsTotal      *prometheus.CounterVec

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Database metrics.
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all collectors on the given registry.
// A nil registry gets a fresh one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,

		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_evaluations_total",
				Help: "Total number of statistic evaluations",
			},
			[]string{"statistic", "status"},
		),
		EvaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_evaluation_duration_seconds",
				Help:    "Statistic evaluation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"statistic"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"layer"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"layer"},
		),

		SnapshotRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_snapshot_runs_total",
				Help: "Total number of snapshot recording runs",
			},
			[]string{"status"},
		),
		ReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_manifest_reloads_total",
				Help: "Total number of manifest reload attempts",
			},
			[]string{"status"},
		),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tally_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tally_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.EvaluationsTotal,
		m.EvaluationDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.SnapshotRunsTotal,
		m.ReloadsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// ObserveEvaluation records one statistic evaluation outcome. It satisfies
// the evaluator's Observer interface.
func (m *Metrics) ObserveEvaluation(name string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.EvaluationsTotal.WithLabelValues(name, status).Inc()
	m.EvaluationDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// CacheHit counts a hit on the named cache layer. Together with CacheMiss it
// satisfies the cache package's Recorder interface.
func (m *Metrics) CacheHit(layer string) {
	m.CacheHitsTotal.WithLabelValues(layer).Inc()
}

// CacheMiss counts a miss on the named cache layer.
func (m *Metrics) CacheMiss(layer string) {
	m.CacheMissesTotal.WithLabelValues(layer).Inc()
}

// ObserveSnapshotRun counts one snapshot recording run.
func (m *Metrics) ObserveSnapshotRun(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.SnapshotRunsTotal.WithLabelValues(status).Inc()
}

// CollectDBStats updates the connection gauges from db.Stats on the given
// interval until ctx is cancelled. Run it in its own goroutine.
func (m *Metrics) CollectDBStats(ctx context.Context, db *sql.DB, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats := db.Stats()
		m.DBConnectionsActive.Set(float64(stats.InUse))
		m.DBConnectionsIdle.Set(float64(stats.Idle))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// responseWriter captures the status code for metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware records request counts and durations.
func (m *Metrics) HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		m.HTTPRequestsTotal.WithLabelValues(
			r.Method,
			r.URL.Path,
			strconv.Itoa(wrapped.statusCode),
		).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}
