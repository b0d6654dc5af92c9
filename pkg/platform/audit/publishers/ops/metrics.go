package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of a single Emit call.
const (
	outcomeTracked        = "tracked"
	outcomeSampled        = "sampled"
	outcomeBreakerDropped = "breaker_dropped"
	outcomePersistFailed  = "persist_failed"
)

// Metrics counts best-effort audit events by outcome. A nil *Metrics records
// nothing.
type Metrics struct {
	Events      *prometheus.CounterVec
	CircuitOpen prometheus.Gauge
}

// NewMetrics registers with reg, or the default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opdclaims_audit_ops_events_total",
			Help: "Operational audit events by outcome",
		}, []string{"action", "outcome"}),
		CircuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "opdclaims_audit_ops_circuit_open",
			Help: "1 while the audit store circuit is open",
		}),
	}
}

func (m *Metrics) count(action, outcome string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) circuit(open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.CircuitOpen.Set(v)
}
