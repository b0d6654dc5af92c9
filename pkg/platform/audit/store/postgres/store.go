// Package postgres is the durable audit store. Writes go to the outbox table
// in the caller's transaction; the Kafka consumer materializes them into
// audit_events, which is what the read methods query.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "opdclaims/pkg/platform/audit"
	txcontext "opdclaims/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// aggregate keys an outbox row, and therefore its Kafka partition, by the
// claim or member the event concerns.
func aggregate(e audit.Event) (kind, id string) {
	switch {
	case e.ClaimID != "":
		return "claim", e.ClaimID
	case e.MemberID != "":
		return "member", e.MemberID
	}
	return "audit", e.ID
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	event = event.Stamped(time.Now())
	payload, err := audit.Encode(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	kind, id := aggregate(event)

	const q = `INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, q,
		uuid.New(), kind, id, event.Action, payload, event.Timestamp,
	); err != nil {
		return fmt.Errorf("write outbox row for %s: %w", event.Action, err)
	}
	return nil
}

// AppendWithID materializes a relayed event. Redelivery of the same event ID
// is a no-op.
func (s *Store) AppendWithID(ctx context.Context, event audit.Event) error {
	id, err := uuid.Parse(event.ID)
	if err != nil {
		return fmt.Errorf("audit event id %q: %w", event.ID, err)
	}
	details := []byte("{}")
	if len(event.Details) > 0 {
		if details, err = json.Marshal(event.Details); err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
	}

	const q = `INSERT INTO audit_events (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, q,
		id, event.ClaimID, event.MemberID, event.Action, details,
		event.RequestID, event.ActorID, event.Client, event.Timestamp,
	); err != nil {
		return fmt.Errorf("materialize audit event %s: %w", event.ID, err)
	}
	return nil
}

const columns = `id, claim_id, member_id, action, details, request_id, actor, client, occurred_at`

// ListByClaim returns a claim's events oldest first.
func (s *Store) ListByClaim(ctx context.Context, claimID string) ([]audit.Event, error) {
	return s.query(ctx, `SELECT `+columns+` FROM audit_events
		WHERE claim_id = $1 ORDER BY occurred_at, id`, claimID)
}

// ListRecent returns up to limit events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return s.query(ctx, `SELECT `+columns+` FROM audit_events
		ORDER BY occurred_at DESC LIMIT $1`, limit)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	events := []audit.Event{}
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read audit events: %w", err)
	}
	return events, nil
}

func scan(rows *sql.Rows) (audit.Event, error) {
	var (
		e       audit.Event
		id      uuid.UUID
		details []byte
	)
	if err := rows.Scan(&id, &e.ClaimID, &e.MemberID, &e.Action, &details,
		&e.RequestID, &e.ActorID, &e.Client, &e.Timestamp); err != nil {
		return audit.Event{}, fmt.Errorf("scan audit event: %w", err)
	}
	e.ID = id.String()
	e.Category = audit.AuditEvent(e.Action).Category()
	if len(details) > 0 && string(details) != "{}" {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return audit.Event{}, fmt.Errorf("decode details of %s: %w", e.ID, err)
		}
	}
	return e, nil
}
