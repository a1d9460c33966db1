package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for backend calls.
const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "status"
	OutcomeTransport = "transport"
	OutcomeDecode    = "decode"
)

// Metrics records gateway traffic and outbound backend calls.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
}

// New registers the storefront metrics on the provided registerer. A nil
// registerer yields a Metrics whose methods are no-ops.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_http_requests_total",
		Help: "HTTP requests served by the storefront gateway.",
	}, []string{"route", "method", "status"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_http_request_duration_seconds",
		Help:    "Latency of HTTP requests served by the storefront gateway.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	backendRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_backend_requests_total",
		Help: "Outbound requests to the commerce backend and CMS.",
	}, []string{"backend", "op", "outcome"})
	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_backend_request_duration_seconds",
		Help:    "Latency of outbound requests to the commerce backend and CMS.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "op"})
	reg.MustRegister(httpRequests, httpDuration, backendRequests, backendDuration)
	return &Metrics{
		httpRequests:    httpRequests,
		httpDuration:    httpDuration,
		backendRequests: backendRequests,
		backendDuration: backendDuration,
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, status int, duration time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	route = normalizeLabel(route)
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// ObserveBackend records one outbound call.
func (m *Metrics) ObserveBackend(backend, op, outcome string, duration time.Duration) {
	if m == nil || m.backendRequests == nil {
		return
	}
	op = normalizeLabel(op)
	m.backendRequests.WithLabelValues(backend, op, normalizeLabel(outcome)).Inc()
	m.backendDuration.WithLabelValues(backend, op).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
