package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: claim
	// submissions, decisions and changes to member records. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring, such as
	// rejected operator tokens.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled or aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Category  EventCategory
	Timestamp time.Time
	ClaimID   string
	MemberID  string
	Action    string
	Decision  string
	Reason    string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
	// ActorID is the operator that triggered the action, when authenticated.
	ActorID string
	// Client is a short user agent summary ("Chrome 120 on macOS").
	Client string
	// Details carries action-specific values, e.g. document_count.
	Details map[string]any
}

type AuditEvent string

const (
	// Claim lifecycle
	EventClaimSubmitted      AuditEvent = "claim_submitted"
	EventDocumentsProcessed  AuditEvent = "documents_processed"
	EventNecessityDegraded   AuditEvent = "necessity_degraded"
	EventDecisionMade        AuditEvent = "decision_made"
	EventAnnualLimitConsumed AuditEvent = "annual_limit_consumed"

	// Member events
	EventMemberCreated AuditEvent = "member_created"
	EventMembersSeeded AuditEvent = "members_seeded"

	// Access events
	EventAuthFailed AuditEvent = "auth_failed"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventClaimSubmitted:      CategoryCompliance,
	EventDecisionMade:        CategoryCompliance,
	EventAnnualLimitConsumed: CategoryCompliance,
	EventMemberCreated:       CategoryCompliance,

	EventAuthFailed: CategorySecurity,

	EventDocumentsProcessed: CategoryOperations,
	EventNecessityDegraded:  CategoryOperations,
	EventMembersSeeded:      CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Emitter accepts audit events for recording.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Stamped fills in ID, timestamp and category when they are unset.
func (e Event) Stamped(now time.Time) Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	if e.Category == "" {
		e.Category = AuditEvent(e.Action).Category()
	}
	return e
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByClaim(ctx context.Context, claimID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
