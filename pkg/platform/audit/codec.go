package audit

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireEvent is the JSON form of an Event on the outbox and the Kafka topic.
type wireEvent struct {
	ID        string         `json:"id"`
	Category  string         `json:"category"`
	Timestamp string         `json:"timestamp"`
	ClaimID   string         `json:"claim_id,omitempty"`
	MemberID  string         `json:"member_id,omitempty"`
	Action    string         `json:"action"`
	Decision  string         `json:"decision,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	ActorID   string         `json:"actor_id,omitempty"`
	Client    string         `json:"client,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Encode serialises an event for the outbox and the event topic.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(wireEvent{
		ID:        e.ID,
		Category:  string(e.Category),
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		ClaimID:   e.ClaimID,
		MemberID:  e.MemberID,
		Action:    e.Action,
		Decision:  e.Decision,
		Reason:    e.Reason,
		RequestID: e.RequestID,
		ActorID:   e.ActorID,
		Client:    e.Client,
		Details:   e.Details,
	})
}

// Decode is the inverse of Encode. ID and Action are required.
func Decode(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("decode audit event: %w", err)
	}
	if w.ID == "" || w.Action == "" {
		return Event{}, fmt.Errorf("audit event requires id and action")
	}
	e := Event{
		ID:        w.ID,
		Category:  EventCategory(w.Category),
		ClaimID:   w.ClaimID,
		MemberID:  w.MemberID,
		Action:    w.Action,
		Decision:  w.Decision,
		Reason:    w.Reason,
		RequestID: w.RequestID,
		ActorID:   w.ActorID,
		Client:    w.Client,
		Details:   w.Details,
	}
	if w.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, w.Timestamp)
		if err != nil {
			return Event{}, fmt.Errorf("audit event timestamp: %w", err)
		}
		e.Timestamp = ts
	}
	if e.Category == "" {
		e.Category = AuditEvent(e.Action).Category()
	}
	return e, nil
}
