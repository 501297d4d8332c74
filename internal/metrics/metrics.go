// Package metrics exposes Prometheus instrumentation for the API server.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registry and the collectors the server updates. Each
// server owns its own registry so tests never collide on global state.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestsInFlight prometheus.Gauge
	LogsCreated      prometheus.Counter
	LogsDeleted      prometheus.Counter
}

// New builds a Metrics set backed by a fresh registry with the standard Go
// and process collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests handled, labelled by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		RequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
		LogsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "caffeine_logs_created_total",
			Help: "Log entries successfully persisted.",
		}),
		LogsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "caffeine_logs_deleted_total",
			Help: "Log entry delete operations acknowledged.",
		}),
	}
}

// ObserveRequest records one handled request.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the exposition endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
