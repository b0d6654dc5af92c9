// Package consumer reads the audit topic and materializes events for
// querying.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Handler processes one record. A returned error means the record must be
// delivered again.
type Handler interface {
	Handle(ctx context.Context, rec *kgo.Record) error
}

// Consumer polls a consumer group and commits offsets only after every
// record of a poll was handled.
type Consumer struct {
	client   *kgo.Client
	handler  Handler
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

type Option func(*Consumer)

// WithRetry sets how often a failing record is retried before Run gives up.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Consumer) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		c.logger = logger
	}
}

// New joins group on topic. Offsets are committed manually.
func New(brokers []string, group, topic string, handler Handler, opts ...Option) (*Consumer, error) {
	if len(brokers) == 0 || group == "" || topic == "" {
		return nil, errors.New("consumer requires brokers, group and topic")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	c := &Consumer{
		client:   client,
		handler:  handler,
		attempts: 3,
		backoff:  500 * time.Millisecond,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run consumes until ctx ends. It returns an error without committing when a
// record keeps failing, so the group redelivers it after a restart.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		for _, fe := range fetches.Errors() {
			c.logger.WarnContext(ctx, "kafka fetch error",
				"topic", fe.Topic,
				"partition", fe.Partition,
				"error", fe.Err,
			)
		}

		for _, rec := range fetches.Records() {
			if err := c.handle(ctx, rec); err != nil {
				return err
			}
		}
		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.logger.WarnContext(ctx, "commit audit offsets failed", "error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, rec *kgo.Record) error {
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = c.handler.Handle(ctx, rec); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("audit record %s/%d@%d: %w", rec.Topic, rec.Partition, rec.Offset, err)
}

// Close leaves the group and closes the client.
func (c *Consumer) Close() {
	c.client.Close()
}
