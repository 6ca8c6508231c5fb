// Package metrics holds the Prometheus collectors shared by the engine's components.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coach"

type Metrics struct {
	registry *prometheus.Registry

	aggregations   *prometheus.CounterVec
	domainFailures *prometheus.CounterVec
	quarantines    *prometheus.CounterVec
	syncFailures   *prometheus.CounterVec
	generations    *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		aggregations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_aggregations_total",
			Help:      "Activity aggregations by outcome (ok|failed).",
		}, []string{"outcome"}),
		domainFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_domain_failures_total",
			Help:      "Failed per-domain activity queries.",
		}, []string{"domain"}),
		quarantines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "safefile_quarantines_total",
			Help:      "Documents moved to the corrupted area after a failed decode.",
		}, []string{"document"}),
		syncFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_sync_failures_total",
			Help:      "Remote profile sync failures by direction (pull|push).",
		}, []string{"direction"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_generations_total",
			Help:      "Plan and reply generations by outcome.",
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(
		m.aggregations,
		m.domainFailures,
		m.quarantines,
		m.syncFailures,
		m.generations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) AggregationSucceeded() {
	if m == nil {
		return
	}
	m.aggregations.WithLabelValues("ok").Inc()
}

func (m *Metrics) AggregationFailed(domains []string) {
	if m == nil {
		return
	}
	m.aggregations.WithLabelValues("failed").Inc()
	for _, d := range domains {
		m.domainFailures.WithLabelValues(d).Inc()
	}
}

func (m *Metrics) Quarantined(document string) {
	if m == nil {
		return
	}
	m.quarantines.WithLabelValues(document).Inc()
}

func (m *Metrics) SyncFailed(direction string) {
	if m == nil {
		return
	}
	m.syncFailures.WithLabelValues(direction).Inc()
}

func (m *Metrics) Generated(kind, outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(kind, outcome).Inc()
}
