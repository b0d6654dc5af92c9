package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "opdclaims/pkg/platform/audit"
)

// EventStore materializes relayed events. Implementations must ignore
// events they have already stored.
type EventStore interface {
	AppendWithID(ctx context.Context, event audit.Event) error
}

// Materializer writes events from the audit topic into the query store.
//
// Failure policy by category:
//   - compliance: a store error is returned so the record is not committed
//   - security and operations: store errors are logged and the record committed
//   - malformed records of any category are logged and committed
type Materializer struct {
	store  EventStore
	logger *slog.Logger
}

func NewMaterializer(store EventStore, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{store: store, logger: logger}
}

// Handle processes one record.
func (m *Materializer) Handle(ctx context.Context, rec *kgo.Record) error {
	event, err := audit.Decode(rec.Value)
	if err != nil {
		m.logger.ErrorContext(ctx, "CRITICAL: malformed audit record",
			"key", string(rec.Key),
			"partition", rec.Partition,
			"offset", rec.Offset,
			"error", err,
		)
		return nil
	}

	if err := m.store.AppendWithID(ctx, event); err != nil {
		if event.Category == audit.CategoryCompliance {
			m.logger.ErrorContext(ctx, "failed to store compliance event",
				"event_id", event.ID,
				"action", event.Action,
				"error", err,
			)
			return fmt.Errorf("store compliance event: %w", err)
		}
		m.logger.WarnContext(ctx, "dropping audit event after store failure",
			"event_id", event.ID,
			"category", event.Category,
			"action", event.Action,
			"error", err,
		)
		return nil
	}

	m.logger.DebugContext(ctx, "stored audit event",
		"event_id", event.ID,
		"action", event.Action,
		"claim_id", event.ClaimID,
	)
	return nil
}
