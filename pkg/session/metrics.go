package session

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics for chat sessions.
type Metrics struct {
	turnsTotal        *prometheus.CounterVec
	turnDuration      *prometheus.HistogramVec
	compositionsTotal *prometheus.CounterVec
	activeGuardrails  prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		turnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guardstack_turns_total",
				Help: "Total number of conversation turns by status",
			},
			[]string{"status"},
		),

		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guardstack_turn_duration_seconds",
				Help:    "Turn processing latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),

		compositionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guardstack_compositions_total",
				Help: "Total number of policy compositions by status",
			},
			[]string{"status"},
		),

		activeGuardrails: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "guardstack_active_guardrails",
				Help: "Number of guardrail fragments in the installed policy",
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.turnsTotal,
		m.turnDuration,
		m.compositionsTotal,
		m.activeGuardrails,
	)

	return m
}

// RecordTurn records one conversation turn.
func (m *Metrics) RecordTurn(status string, duration time.Duration) {
	m.turnsTotal.WithLabelValues(status).Inc()
	m.turnDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordComposition records one policy composition attempt.
func (m *Metrics) RecordComposition(status string) {
	m.compositionsTotal.WithLabelValues(status).Inc()
}

// SetActiveGuardrails records how many fragments the installed policy holds.
func (m *Metrics) SetActiveGuardrails(n int) {
	m.activeGuardrails.Set(float64(n))
}

// Handler returns an HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
