// Package metrics provides Prometheus metrics for the bridge core.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
// The CLI exports the registry as a node_exporter textfile after each run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "chexbridge"

// Submission results.
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultDiscarded = "discarded"
	ResultRejected  = "rejected"
)

// Balance query results.
const (
	BalanceOK    = "ok"
	BalanceError = "error"
	BalanceStale = "stale"
)

// Metrics holds the bridge collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	submissions      *prometheus.CounterVec
	submitDuration   prometheus.Histogram
	rejections       *prometheus.CounterVec
	providerFailures *prometheus.CounterVec
	balanceQueries   *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Transfer submissions by result.",
			},
			[]string{"result"},
		),
		submitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "submit_duration_seconds",
				Help:      "Time spent waiting for the chain to accept a transfer.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejections_total",
				Help:      "Client side transfer rejections by reason.",
			},
			[]string{"reason"},
		),
		providerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_failures_total",
				Help:      "External provider failures by provider.",
			},
			[]string{"provider"},
		),
		balanceQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "balance_queries_total",
				Help:      "Balance queries by result.",
			},
			[]string{"result"},
		),
	}

	collectorsToRegister := []prometheus.Collector{
		collectors.NewGoCollector(),
		m.submissions,
		m.submitDuration,
		m.rejections,
		m.providerFailures,
		m.balanceQueries,
	}
	for _, c := range collectorsToRegister {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w",
				err)
		}
	}

	return m, nil
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSubmission records a submission that reached the chain.
func (m *Metrics) ObserveSubmission(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
	m.submitDuration.Observe(took.Seconds())
}

// IncRejection records a client side rejection reason.
func (m *Metrics) IncRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// IncProviderFailure records a failure of an external provider.
func (m *Metrics) IncProviderFailure(provider string) {
	if m == nil {
		return
	}
	m.providerFailures.WithLabelValues(provider).Inc()
}

// IncBalanceQuery records the outcome of a balance query.
func (m *Metrics) IncBalanceQuery(result string) {
	if m == nil {
		return
	}
	m.balanceQueries.WithLabelValues(result).Inc()
}

// WriteTextfile writes the registry in the text exposition format for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
