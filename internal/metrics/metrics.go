// Package metrics exposes request and store counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several servers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	VariablesTotal  prometheus.Gauge
	SavesTotal      *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "varstore_requests_total",
				Help: "Total number of API requests by route and outcome",
			},
			[]string{"route", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "varstore_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		VariablesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "varstore_variables_total",
				Help: "Number of variables currently held in memory",
			},
		),
		SavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "varstore_snapshot_saves_total",
				Help: "Snapshot persistence attempts by document",
			},
			[]string{"document"},
		),
	}

	m.registry.MustRegister(m.RequestsTotal)
	m.registry.MustRegister(m.RequestDuration)
	m.registry.MustRegister(m.VariablesTotal)
	m.registry.MustRegister(m.SavesTotal)
	m.registry.MustRegister(collectors.NewGoCollector())
	return m
}

// ObserveRequest records one handled request.
func (m *Metrics) ObserveRequest(route, outcome string, seconds float64) {
	m.RequestsTotal.WithLabelValues(route, outcome).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}

// SetVariables updates the variable count gauge.
func (m *Metrics) SetVariables(n int) {
	m.VariablesTotal.Set(float64(n))
}

// ObserveSave counts a snapshot write of document.
func (m *Metrics) ObserveSave(document string) {
	m.SavesTotal.WithLabelValues(document).Inc()
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
