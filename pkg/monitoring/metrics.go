package monitoring

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "service"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	// Mutation metrics
	mutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_mutations_total",
			Help: "Total number of alert mutations by operation and outcome",
		},
		[]string{"operation", "outcome", "service"},
	)

	// Registry collaborator metrics
	registryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_requests_total",
			Help: "Total number of persistence registry requests",
		},
		[]string{"method", "resource", "status", "service"},
	)

	registryRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "registry_request_duration_seconds",
			Help:    "Duration of persistence registry requests in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"method", "resource", "service"},
	)

	// Collection reload metrics
	reloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_reloads_total",
			Help: "Total number of collection reloads",
		},
		[]string{"collection", "outcome", "service"},
	)

	staleReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stale_reloads_discarded_total",
			Help: "Reload responses discarded because a newer reload finished first",
		},
		[]string{"collection", "service"},
	)

	// Clinical state gauges
	activeHolds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dosing_holds_active",
			Help: "Number of dosing holds currently in active status",
		},
		[]string{"service"},
	)
)

var registerMetrics sync.Once

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	serviceName string
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string) *MetricsCollector {
	registerMetrics.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			mutationsTotal,
			registryRequestsTotal,
			registryRequestDuration,
			reloadsTotal,
			staleReloadsTotal,
			activeHolds,
		)
	})

	return &MetricsCollector{
		serviceName: serviceName,
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, m.serviceName).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordMutation records an alert mutation outcome
func (m *MetricsCollector) RecordMutation(operation, outcome string) {
	mutationsTotal.WithLabelValues(operation, outcome, m.serviceName).Inc()
}

// RecordRegistryRequest records a persistence registry request
func (m *MetricsCollector) RecordRegistryRequest(method, resource, status string, duration time.Duration) {
	registryRequestsTotal.WithLabelValues(method, resource, status, m.serviceName).Inc()
	registryRequestDuration.WithLabelValues(method, resource, m.serviceName).Observe(duration.Seconds())
}

// RecordReload records a collection reload outcome
func (m *MetricsCollector) RecordReload(collection, outcome string) {
	reloadsTotal.WithLabelValues(collection, outcome, m.serviceName).Inc()
}

// RecordStaleReload records a reload response discarded as stale
func (m *MetricsCollector) RecordStaleReload(collection string) {
	staleReloadsTotal.WithLabelValues(collection, m.serviceName).Inc()
}

// SetActiveHolds updates the active dosing hold gauge
func (m *MetricsCollector) SetActiveHolds(count int) {
	activeHolds.WithLabelValues(m.serviceName).Set(float64(count))
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMiddleware creates middleware for HTTP request metrics
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		statusCode := strconv.Itoa(wrapper.statusCode)

		m.RecordHTTPRequest(r.Method, r.URL.Path, statusCode, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
