package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sajjad-MoBe/tuplespace/internal/storage"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// Metrics holds all Prometheus metrics. It implements storage.Observer and
// server.ConnectionObserver, so the counters move with the tuple space itself.
type Metrics struct {
	registry *prometheus.Registry

	// Tuple space metrics
	operations     *prometheus.CounterVec
	clients        prometheus.Counter
	tuples         prometheus.Gauge
	activeConns    prometheus.Gauge
	protocolErrors *prometheus.CounterVec

	// Admin HTTP metrics
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

// NewMetrics creates a metrics set on its own registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tuplespace_operations_total",
				Help: "Total number of tuple space operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		clients: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tuplespace_clients_total",
				Help: "Total number of accepted client connections",
			},
		),
		tuples: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tuplespace_tuples",
				Help: "Number of tuples currently stored",
			},
		),
		activeConns: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tuplespace_active_connections",
				Help: "Number of connections currently being served",
			},
		),
		protocolErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tuplespace_protocol_errors_total",
				Help: "Total number of rejected request lines by reason",
			},
			[]string{"reason"},
		),

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "admin_http_request_duration_seconds",
				Help:    "Duration of admin HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_http_requests_total",
				Help: "Total number of admin HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveOperation implements storage.Observer
func (m *Metrics) ObserveOperation(op storage.Operation, ok bool, tuples int) {
	result := resultOK
	if !ok {
		result = resultError
	}
	m.operations.WithLabelValues(string(op), result).Inc()
	m.tuples.Set(float64(tuples))
}

// ObserveClient implements storage.Observer
func (m *Metrics) ObserveClient() {
	m.clients.Inc()
}

// ConnectionOpened implements server.ConnectionObserver
func (m *Metrics) ConnectionOpened() {
	m.activeConns.Inc()
}

// ConnectionClosed implements server.ConnectionObserver
func (m *Metrics) ConnectionClosed() {
	m.activeConns.Dec()
}

// ProtocolError implements server.ConnectionObserver
func (m *Metrics) ProtocolError(reason string) {
	m.protocolErrors.WithLabelValues(reason).Inc()
}

// MetricsMiddleware records duration and count of admin requests
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrw, r)

		status := strconv.Itoa(wrw.statusCode)
		m.requestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
		m.requestTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
	})
}
