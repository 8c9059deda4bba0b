// Package metrics exposes Prometheus instrumentation for the ledger.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the ledger's collectors. The zero value is not usable; call New.
type Metrics struct {
	registry *prometheus.Registry

	EntriesRecorded   *prometheus.CounterVec
	TransfersRecorded prometheus.Counter
	BalanceUpdates    prometheus.Counter
	Recomputes        prometheus.Counter
	DriftDetected     prometheus.Counter
	RequestDuration   *prometheus.HistogramVec
}

// New creates collectors registered on a fresh registry, alongside the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		EntriesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tally",
			Name:      "entries_recorded_total",
			Help:      "Ledger entries written, by transaction type.",
		}, []string{"type"}),
		TransfersRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tally",
			Name:      "transfers_recorded_total",
			Help:      "Transfer pairs created.",
		}),
		BalanceUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tally",
			Name:      "balance_updates_total",
			Help:      "Incremental balance deltas applied.",
		}),
		Recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tally",
			Name:      "balance_recomputes_total",
			Help:      "Full balance recomputations.",
		}),
		DriftDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tally",
			Name:      "balance_drift_total",
			Help:      "Recomputations whose result differed from the cached balance.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tally",
			Name:      "http_request_duration_seconds",
			Help:      "API request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		m.EntriesRecorded,
		m.TransfersRecorded,
		m.BalanceUpdates,
		m.Recomputes,
		m.DriftDetected,
		m.RequestDuration,
	)
	return m
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
