// Package telemetry exposes Prometheus metrics for the intervention engine,
// the savings ledger, and the HTTP surface.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/pausewise/pausewise/internal/engine"
)

// MetricsRegistry holds all Prometheus metrics for pausewise. Metrics are
// registered on a private registry so repeated construction never collides
// with the process-wide default.
type MetricsRegistry struct {
	registry *prometheus.Registry

	// Engine metrics
	EvaluationDuration prometheus.Histogram
	Evaluations        *prometheus.CounterVec
	InterventionRate   prometheus.Gauge
	RuleFirings        *prometheus.CounterVec
	RuleSkips          *prometheus.CounterVec
	RuleErrors         *prometheus.CounterVec

	// Ledger metrics
	LedgerAppends        prometheus.Counter
	SavingsConfirmations prometheus.Counter
	ConfirmedSavings     prometheus.Counter

	// Event and cooldown metrics
	EventPublishErrors *prometheus.CounterVec
	CooldownSuppressed prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

var _ engine.Metrics = (*MetricsRegistry)(nil)

// NewMetricsRegistry creates a metrics registry with all pausewise metrics.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		registry: prometheus.NewRegistry(),

		EvaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pausewise_evaluation_duration_seconds",
				Help:    "Duration of rule engine evaluations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
		),

		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pausewise_evaluations_total",
				Help: "Total number of engine evaluations by outcome",
			},
			[]string{"outcome"},
		),

		InterventionRate: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pausewise_intervention_rate",
				Help: "Share of evaluations that fired at least one rule (0.0 to 1.0)",
			},
		),

		RuleFirings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pausewise_rule_firings_total",
				Help: "Total number of rule firings by rule",
			},
			[]string{"rule"},
		),

		RuleSkips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pausewise_rule_skips_total",
				Help: "Total number of rules skipped by tier gating",
			},
			[]string{"rule"},
		),

		RuleErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pausewise_rule_errors_total",
				Help: "Total number of rule evaluation failures by rule and stage",
			},
			[]string{"rule", "stage"},
		),

		LedgerAppends: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pausewise_ledger_appends_total",
				Help: "Total number of ledger entries appended",
			},
		),

		SavingsConfirmations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pausewise_savings_confirmations_total",
				Help: "Total number of confirmed savings",
			},
		),

		ConfirmedSavings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pausewise_confirmed_savings_amount_total",
				Help: "Cumulative confirmed savings amount",
			},
		),

		EventPublishErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pausewise_event_publish_errors_total",
				Help: "Total number of failed event publishes by event type",
			},
			[]string{"event_type"},
		),

		CooldownSuppressed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pausewise_cooldown_suppressed_total",
				Help: "Total number of intervention events suppressed by cooldown",
			},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pausewise_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pausewise_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds by route",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"route"},
		),
	}

	m.registry.MustRegister(
		m.EvaluationDuration,
		m.Evaluations,
		m.InterventionRate,
		m.RuleFirings,
		m.RuleSkips,
		m.RuleErrors,
		m.LedgerAppends,
		m.SavingsConfirmations,
		m.ConfirmedSavings,
		m.EventPublishErrors,
		m.CooldownSuppressed,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// RuleFired records a rule firing.
func (m *MetricsRegistry) RuleFired(ruleID string) {
	m.RuleFirings.WithLabelValues(ruleID).Inc()
}

// RuleSkipped records a rule skipped by tier gating.
func (m *MetricsRegistry) RuleSkipped(ruleID string) {
	m.RuleSkips.WithLabelValues(ruleID).Inc()
}

// RuleError records a failed condition or action.
func (m *MetricsRegistry) RuleError(ruleID, stage string) {
	m.RuleErrors.WithLabelValues(ruleID, stage).Inc()
}

// EvaluationObserved records an engine run and refreshes the intervention
// rate gauge.
func (m *MetricsRegistry) EvaluationObserved(duration time.Duration, fired int) {
	m.EvaluationDuration.Observe(duration.Seconds())

	outcome := "quiet"
	if fired > 0 {
		outcome = "fired"
	}
	m.Evaluations.WithLabelValues(outcome).Inc()
	m.updateInterventionRate()
}

// RecordLedgerAppend records a new ledger entry.
func (m *MetricsRegistry) RecordLedgerAppend() {
	m.LedgerAppends.Inc()
}

// RecordSavingsConfirmed records a confirmation and its saved amount.
func (m *MetricsRegistry) RecordSavingsConfirmed(savedAmount float64) {
	m.SavingsConfirmations.Inc()
	if savedAmount > 0 {
		m.ConfirmedSavings.Add(savedAmount)
	}
}

// RecordPublishError records a failed event publish.
func (m *MetricsRegistry) RecordPublishError(eventType string) {
	m.EventPublishErrors.WithLabelValues(eventType).Inc()
}

// RecordCooldownSuppressed records an event suppressed by an active cooldown.
func (m *MetricsRegistry) RecordCooldownSuppressed() {
	m.CooldownSuppressed.Inc()
}

// RecordHTTPRequest records a completed HTTP request.
func (m *MetricsRegistry) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// updateInterventionRate recomputes the fired share from the evaluation
// counters.
func (m *MetricsRegistry) updateInterventionRate() {
	metric := &dto.Metric{}

	fired := 0.0
	quiet := 0.0

	if counter, err := m.Evaluations.GetMetricWithLabelValues("fired"); err == nil {
		if err := counter.Write(metric); err == nil {
			fired = metric.GetCounter().GetValue()
		}
	}
	if counter, err := m.Evaluations.GetMetricWithLabelValues("quiet"); err == nil {
		if err := counter.Write(metric); err == nil {
			quiet = metric.GetCounter().GetValue()
		}
	}

	total := fired + quiet
	if total > 0 {
		m.InterventionRate.Set(fired / total)
	}
}

// Handler returns the Prometheus scrape handler for this registry.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
