package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveHTTPRecordsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveHTTP("/api/cart", "GET", 200, 10*time.Millisecond)
	m.ObserveHTTP("/api/cart", "GET", 200, 20*time.Millisecond)
	m.ObserveHTTP("", "GET", 404, time.Millisecond)

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/cart", "GET", "200")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("unknown", "GET", "404")); got != 1 {
		t.Fatalf("expected unknown route label, got %v", got)
	}
}

func TestObserveBackendRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveBackend("medusa", "cart.retrieve", OutcomeStatus, time.Millisecond)

	if got := testutil.ToFloat64(m.backendRequests.WithLabelValues("medusa", "cart.retrieve", OutcomeStatus)); got != 1 {
		t.Fatalf("expected 1 backend call, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("/", "GET", 200, time.Second)
	m.ObserveBackend("medusa", "x", OutcomeOK, time.Second)

	unregistered := New(nil)
	unregistered.ObserveHTTP("/", "GET", 200, time.Second)
}
