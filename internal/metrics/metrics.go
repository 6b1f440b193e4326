// Package metrics exposes harness run metrics for Prometheus. Collectors live
// on a private registry so tests and repeated runs never collide on the
// process-wide default registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the harness collectors.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	scenariosTotal   *prometheus.CounterVec
	scenarioAttempts prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harness_http_request_duration_seconds",
				Help:    "Latency of requests issued against the banking API.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		scenariosTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harness_scenarios_total",
				Help: "Scenario instances by final status.",
			},
			[]string{"status"},
		),
		scenarioAttempts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "harness_scenario_attempts_total",
				Help: "Scenario attempts including retries.",
			},
		),
	}
	m.registry.MustRegister(
		m.requestDuration,
		m.scenariosTotal,
		m.scenarioAttempts,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveRequest records one façade call.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// ObserveScenario records the final status of one scenario instance.
func (m *Metrics) ObserveScenario(status string) {
	m.scenariosTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveAttempt() {
	m.scenarioAttempts.Inc()
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
