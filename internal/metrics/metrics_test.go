package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequestLabels(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "/api/logs", http.StatusOK)
	m.ObserveRequest(http.MethodGet, "/api/logs", http.StatusOK)
	m.ObserveRequest(http.MethodPost, "/api/logs", http.StatusCreated)

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/logs", "200")); got != 2 {
		t.Fatalf("expected 2 GET requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/api/logs", "201")); got != 1 {
		t.Fatalf("expected 1 POST request, got %v", got)
	}
}

func TestLogCounters(t *testing.T) {
	m := New()

	m.LogsCreated.Inc()
	m.LogsCreated.Inc()
	m.LogsDeleted.Inc()

	if got := testutil.ToFloat64(m.LogsCreated); got != 2 {
		t.Fatalf("expected 2 created, got %v", got)
	}
	if got := testutil.ToFloat64(m.LogsDeleted); got != 1 {
		t.Fatalf("expected 1 deleted, got %v", got)
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	first := New()
	second := New()

	first.LogsCreated.Inc()
	if got := testutil.ToFloat64(second.LogsCreated); got != 0 {
		t.Fatalf("registries must not share state, got %v", got)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/health", http.StatusOK)

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "http_requests_total") {
		t.Fatalf("expected the request counter in the exposition:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected the Go collector in the exposition")
	}
}
