package worker

import (
	"context"
	"log/slog"
	"time"
)

// BatchRelayer moves one batch of stored events to their destination.
type BatchRelayer interface {
	RelayBatch(ctx context.Context) (int, error)
	BatchSize() int
}

// Worker drives a relayer on an interval until its context ends. A full
// batch is followed immediately by another so a backlog drains without
// waiting for the next tick.
type Worker struct {
	relay    BatchRelayer
	interval time.Duration
	logger   *slog.Logger
}

func NewWorker(relay BatchRelayer, interval time.Duration, logger *slog.Logger) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{relay: relay, interval: interval, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.drain(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.RelayBatch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "audit relay batch failed", "error", err)
			}
			return
		}
		if n < w.relay.BatchSize() {
			return
		}
	}
}
