package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects console metrics in a private Prometheus registry: the
// dashboard's own HTTP traffic, calls to the backend API and the live feeds.
type Metrics struct {
	reqTotal   *prometheus.CounterVec
	reqLatency *prometheus.HistogramVec
	apiTotal   *prometheus.CounterVec
	apiLatency *prometheus.HistogramVec
	pushTotal  *prometheus.CounterVec
	feedUp     *prometheus.GaugeVec
	registry   *prometheus.Registry
}

// New creates a new Metrics instance with a private Prometheus registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	reqTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	reqLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	apiTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Calls made to the backend API; status 0 is a transport failure",
		},
		[]string{"method", "route", "status"},
	)

	apiLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Backend API latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	pushTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_messages_total",
			Help: "WebSocket messages received per feed, by outcome",
		},
		[]string{"resource", "outcome"},
	)

	feedUp := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_connected",
			Help: "1 while the feed's WebSocket is open",
		},
		[]string{"resource"},
	)

	registry.MustRegister(reqTotal, reqLatency, apiTotal, apiLatency, pushTotal, feedUp)

	return &Metrics{
		reqTotal:   reqTotal,
		reqLatency: reqLatency,
		apiTotal:   apiTotal,
		apiLatency: apiLatency,
		pushTotal:  pushTotal,
		feedUp:     feedUp,
		registry:   registry,
	}
}

// Middleware returns a Chi middleware that collects metrics
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rw, r)

			// Use Chi's route pattern if available
			path := r.URL.Path
			if chiCtx := chi.RouteContext(r.Context()); chiCtx != nil && len(chiCtx.RoutePatterns) > 0 {
				path = chiCtx.RoutePatterns[len(chiCtx.RoutePatterns)-1]
			}

			status := http.StatusText(rw.code)
			m.reqTotal.WithLabelValues(r.Method, path, status).Inc()
			m.reqLatency.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

// ObserveAPICall records one backend call.
func (m *Metrics) ObserveAPICall(method, route string, status int, elapsed time.Duration) {
	m.apiTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	if status > 0 {
		m.apiLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
	}
}

// ObservePush records one WebSocket message.
func (m *Metrics) ObservePush(resource, outcome string) {
	m.pushTotal.WithLabelValues(resource, outcome).Inc()
}

// SetConnected tracks whether a feed's socket is open.
func (m *Metrics) SetConnected(resource string, connected bool) {
	v := 0.0
	if connected {
		v = 1
	}
	m.feedUp.WithLabelValues(resource).Set(v)
}

// Handler returns an http.Handler that serves Prometheus metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the HTTP status code for metrics
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	return sr.ResponseWriter.Write(b)
}
