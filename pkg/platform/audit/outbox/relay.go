// Package outbox relays audit events written to the Postgres outbox table
// onto a Kafka topic.
package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

const DefaultBatchSize = 100

// Producer is the subset of *kgo.Client the relay needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Relay publishes unprocessed outbox rows in creation order. Rows are locked
// with SKIP LOCKED so several relays can share one outbox; a row is marked
// processed only after the broker acknowledged it.
type Relay struct {
	db        *sql.DB
	producer  Producer
	topic     string
	batchSize int
	logger    *slog.Logger
}

type Option func(*Relay)

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(db *sql.DB, producer Producer, topic string, opts ...Option) (*Relay, error) {
	if db == nil || producer == nil {
		return nil, errors.New("outbox relay requires a database and a producer")
	}
	if topic == "" {
		return nil, errors.New("outbox relay requires a topic")
	}
	r := &Relay{
		db:        db,
		producer:  producer,
		topic:     topic,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// BatchSize is the maximum number of rows RelayBatch publishes.
func (r *Relay) BatchSize() int {
	return r.batchSize
}

// RelayBatch publishes one batch and returns how many rows it relayed.
func (r *Relay) RelayBatch(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin outbox batch: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload
		FROM outbox
		WHERE processed_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("select outbox batch: %w", err)
	}

	var (
		ids     []string
		records []*kgo.Record
	)
	for rows.Next() {
		var (
			id, aggregateID, eventType string
			payload                    []byte
		)
		if err := rows.Scan(&id, &aggregateID, &eventType, &payload); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan outbox entry: %w", err)
		}
		ids = append(ids, id)
		records = append(records, &kgo.Record{
			Topic: r.topic,
			// keyed by aggregate so one claim's events stay ordered
			Key:   []byte(aggregateID),
			Value: payload,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(eventType)},
				{Key: "outbox_id", Value: []byte(id)},
			},
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate outbox batch: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	if err := r.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return 0, fmt.Errorf("publish outbox batch: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE outbox SET processed_at = NOW() WHERE id = ANY($1::uuid[])`, ids); err != nil {
		return 0, fmt.Errorf("mark outbox processed: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit outbox batch: %w", err)
	}

	r.logger.DebugContext(ctx, "relayed audit events", "count", len(records), "topic", r.topic)
	return len(records), nil
}
