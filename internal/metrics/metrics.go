// Package metrics provides Prometheus metrics for the directory service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors, registered on a
// dedicated registry so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	SearchDuration     *prometheus.HistogramVec
	RateLimitDecisions *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	m, err := newOn(reg)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	return m, nil
}

func newOn(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staffdir_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staffdir_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		SearchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staffdir_search_duration_seconds",
			Help:    "Employee search latency, split by fuzzy matching.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"fuzzy"}),
		RateLimitDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staffdir_rate_limit_decisions_total",
			Help: "Rate limit decisions by backend and outcome.",
		}, []string{"backend", "outcome"}),
	}

	for _, c := range []prometheus.Collector{
		m.RequestsTotal, m.RequestDuration, m.SearchDuration, m.RateLimitDecisions,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler exposes the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
