package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "antapp").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "antapp",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the application's Prometheus metrics. It doubles as the
// relay's metrics recorder, so one Metrics value covers both the REST
// surface and the WebSocket relay. Construct one per process (or per test
// with its own registry) — no package-level state.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	activeSessions     prometheus.Gauge
	relayEvents        *prometheus.CounterVec
	relayBroadcasts    *prometheus.CounterVec
	broadcastDropped   prometheus.Counter
	mutationFailures   *prometheus.CounterVec
	storeWriteDuration *prometheus.HistogramVec
}

// NewMetrics registers and returns the application metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "http_requests_total",
			Help:        "Total HTTP requests by method, route, and status",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"method", "route"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "relay_active_sessions",
			Help:        "Number of live WebSocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		relayEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "relay_events_total",
			Help:        "Client events received by the relay, by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		relayBroadcasts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "relay_broadcasts_total",
			Help:        "Events fanned out to room members, by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		broadcastDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "relay_broadcast_dropped_total",
			Help:        "Broadcast deliveries skipped because the recipient was full or gone",
			ConstLabels: config.ConstLabels,
		}),

		mutationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "relay_mutation_failures_total",
			Help:        "Entity mutations rejected by the store, by event type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		storeWriteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "relay_store_write_duration_seconds",
			Help:        "Entity store write duration per mutation, by event type",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"type"}),
	}
}

// Relay metric hooks (the relay.Recorder interface).

func (m *Metrics) SessionOpened() { m.activeSessions.Inc() }
func (m *Metrics) SessionClosed() { m.activeSessions.Dec() }

func (m *Metrics) EventReceived(eventType string) {
	m.relayEvents.WithLabelValues(eventType).Inc()
}

func (m *Metrics) EventBroadcast(eventType string, recipients int) {
	m.relayBroadcasts.WithLabelValues(eventType).Add(float64(recipients))
}

func (m *Metrics) BroadcastDropped() { m.broadcastDropped.Inc() }

func (m *Metrics) MutationFailed(eventType string) {
	m.mutationFailures.WithLabelValues(eventType).Inc()
}

func (m *Metrics) StoreWrite(eventType string, d time.Duration) {
	m.storeWriteDuration.WithLabelValues(eventType).Observe(d.Seconds())
}

// statusWriter captures the response status for the request counter.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Handler returns HTTP middleware that counts and times every request.
// The route label uses the chi route pattern, not the raw path, to keep
// label cardinality bounded.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
