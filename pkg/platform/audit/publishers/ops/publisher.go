// Package ops is the best-effort audit publisher for operational and
// security events such as documents_processed and necessity_degraded.
//
// Events may be sampled out, and are dropped without touching the store
// while its circuit is open. Emit never fails the caller.
package ops

import (
	"context"
	"log/slog"
	"time"

	audit "opdclaims/pkg/platform/audit"
	"opdclaims/pkg/platform/circuit"
)

type Publisher struct {
	store   audit.Store
	sampler *Sampler
	breaker *circuit.Breaker
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Publisher)

func WithSampler(s *Sampler) Option {
	return func(p *Publisher) { p.sampler = s }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) { p.breaker = b }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// New keeps every event and opens the store circuit after five consecutive
// failures for one minute, unless options say otherwise.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:   store,
		sampler: NewSampler(1, nil),
		breaker: circuit.New("audit-ops", circuit.WithFailureThreshold(5), circuit.WithCooldown(time.Minute)),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit always returns nil.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	switch {
	case !p.sampler.Keep(event.Action):
		p.metrics.count(event.Action, outcomeSampled)
		return nil
	case !p.breaker.Allow():
		p.metrics.count(event.Action, outcomeBreakerDropped)
		return nil
	}

	err := p.store.Append(ctx, event.Stamped(p.now()))
	if err != nil {
		p.metrics.count(event.Action, outcomePersistFailed)
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.metrics.circuit(true)
			p.logger.WarnContext(ctx, "audit store circuit opened, dropping operational events",
				"action", event.Action,
				"error", err,
			)
		}
		return nil
	}

	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.metrics.circuit(false)
		p.logger.InfoContext(ctx, "audit store circuit closed")
	}
	p.metrics.count(event.Action, outcomeTracked)
	return nil
}
