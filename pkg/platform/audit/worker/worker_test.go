package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// scriptedRelay returns the next scripted batch size on each call.
type scriptedRelay struct {
	mu      sync.Mutex
	batches []int
	calls   int
	err     error
}

func (r *scriptedRelay) RelayBatch(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	if len(r.batches) == 0 {
		return 0, nil
	}
	n := r.batches[0]
	r.batches = r.batches[1:]
	return n, nil
}

func (r *scriptedRelay) BatchSize() int { return 10 }

func (r *scriptedRelay) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerDrainsBacklogWithoutWaiting(t *testing.T) {
	relay := &scriptedRelay{batches: []int{10, 10, 3}}
	w := NewWorker(relay, time.Hour, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool { return relay.callCount() == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 3, relay.callCount(), "a short batch ends the drain until the next tick")
}

func TestWorkerKeepsRunningAfterRelayErrors(t *testing.T) {
	relay := &scriptedRelay{err: errors.New("broker unavailable")}
	w := NewWorker(relay, 5*time.Millisecond, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool { return relay.callCount() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
