// Package compliance is the fail-closed audit publisher for regulatory
// events: claim submissions, decisions and member changes.
//
// Emit returns only after the store accepted the event, and a store failure
// must fail the caller's operation. With the outbox store the write joins the
// caller's transaction, so a failed audit rolls back the claim write too.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	audit "opdclaims/pkg/platform/audit"
)

var (
	errNoAction  = errors.New("compliance event has no action")
	errNoSubject = errors.New("compliance event names neither a claim nor a member")
)

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	switch {
	case event.Action == "":
		return errNoAction
	case event.ClaimID == "" && event.MemberID == "":
		return fmt.Errorf("%s: %w", event.Action, errNoSubject)
	}

	start := p.now()
	err := p.store.Append(ctx, event.Stamped(start))
	p.metrics.observe(event.Action, err, time.Since(start))
	if err != nil {
		p.logger.ErrorContext(ctx, "compliance audit write failed",
			"action", event.Action,
			"claim_id", event.ClaimID,
			"member_id", event.MemberID,
			"error", err,
		)
		return fmt.Errorf("persist compliance event %s: %w", event.Action, err)
	}
	return nil
}
