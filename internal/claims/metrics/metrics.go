package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for claim adjudication. All methods are
// safe to call on a nil receiver.
type Metrics struct {
	// Per-stage latency of the validation pipeline
	StageLatency *prometheus.HistogramVec

	// Issues raised by code and severity (failed, warning)
	Issues *prometheus.CounterVec

	// Decisions by outcome and category
	Decisions *prometheus.CounterVec

	// Approved amounts in rupees
	ApprovedAmount prometheus.Histogram

	// Judge calls by result (assessed, degraded) and failure category
	JudgeCalls *prometheus.CounterVec

	// End-to-end adjudication latency including persistence
	AdjudicateLatency prometheus.Histogram
}

// New registers the adjudication metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "opdclaims_validation_stage_duration_seconds",
			Help:    "Duration of each validation stage",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"stage"}),

		Issues: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "opdclaims_validation_issues_total",
			Help: "Validation failures and warnings by code",
		}, []string{"code", "severity"}),

		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "opdclaims_decisions_total",
			Help: "Adjudication decisions by outcome and category",
		}, []string{"decision", "category"}),

		ApprovedAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "opdclaims_approved_amount_rupees",
			Help:    "Approved amount per claim",
			Buckets: []float64{0, 500, 1000, 2500, 5000, 10000, 15000, 25000, 40000},
		}),

		JudgeCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "opdclaims_necessity_judge_calls_total",
			Help: "Medical necessity judge calls by result and failure category",
		}, []string{"result", "category"}),

		AdjudicateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "opdclaims_adjudicate_duration_seconds",
			Help:    "Duration of a full adjudication including persistence",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
	}
}

// ObserveStage records how long a validation stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncIssue counts a failure or warning.
func (m *Metrics) IncIssue(code, severity string) {
	if m != nil {
		m.Issues.WithLabelValues(code, severity).Inc()
	}
}

// IncDecision counts a decision and records its approved amount.
func (m *Metrics) IncDecision(decision, category string, approved float64) {
	if m != nil {
		m.Decisions.WithLabelValues(decision, category).Inc()
		m.ApprovedAmount.Observe(approved)
	}
}

// IncJudgeCall counts a judge call. category is empty for assessed calls.
func (m *Metrics) IncJudgeCall(result, category string) {
	if m != nil {
		m.JudgeCalls.WithLabelValues(result, category).Inc()
	}
}

func (m *Metrics) ObserveAdjudicate(d time.Duration) {
	if m != nil {
		m.AdjudicateLatency.Observe(d.Seconds())
	}
}
