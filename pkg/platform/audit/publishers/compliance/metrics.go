package compliance

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks compliance audit writes. A nil *Metrics records nothing.
type Metrics struct {
	Writes   *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewMetrics registers with reg, or the default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Writes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opdclaims_audit_compliance_writes_total",
			Help: "Compliance audit writes by action and result",
		}, []string{"action", "result"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "opdclaims_audit_compliance_write_duration_seconds",
			Help:    "Time to persist a compliance audit event",
			Buckets: prometheus.ExponentialBuckets(0.001, 2.5, 9),
		}),
	}
}

func (m *Metrics) observe(action string, err error, took time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Writes.WithLabelValues(action, result).Inc()
	m.Duration.Observe(took.Seconds())
}
