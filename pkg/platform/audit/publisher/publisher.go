// Package publisher emits audit events to an audit.Store, either inline or
// through a bounded buffer drained by a background goroutine.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "opdclaims/pkg/platform/audit"
)

// ErrBufferFull is returned in async mode when the buffer cannot take more
// events.
var ErrBufferFull = errors.New("audit buffer full")

// ErrClosed is returned by Emit after Close in async mode.
var ErrClosed = errors.New("audit publisher closed")

// Publisher writes audit events. In sync mode Emit blocks until the store
// accepts the event; in async mode Emit only enqueues.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger
	now    func() time.Time

	buffer chan audit.Event
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan audit.Event, n)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
		now:   time.Now,
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		go p.drain()
	} else {
		close(p.done)
	}
	return p
}

// Emit stamps the event with an ID, timestamp and category when unset and
// hands it to the store.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	event = event.Stamped(p.now())

	if p.buffer == nil {
		return p.store.Append(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"action", event.Action,
				"claim_id", event.ClaimID,
			)
		}
		return ErrBufferFull
	}
}

// List returns the events recorded for a claim.
func (p *Publisher) List(ctx context.Context, claimID string) ([]audit.Event, error) {
	return p.store.ListByClaim(ctx, claimID)
}

// Close stops accepting events and, in async mode, drains the buffer.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if !p.closed && p.buffer != nil {
		close(p.buffer)
	}
	p.closed = true
	p.mu.Unlock()
	<-p.done
	return nil
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.buffer {
		// background writes outlive the request that emitted them
		if err := p.store.Append(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("failed to persist audit event",
				"action", event.Action,
				"claim_id", event.ClaimID,
				"error", err,
			)
		}
	}
}
