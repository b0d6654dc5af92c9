// Package ports declares what the adjudication core needs from the outside
// world. The validation pipeline depends only on these interfaces; stores,
// the judge client and the audit publisher implement them.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks MemberLookup,ClaimHistory,NecessityJudge,AuditPublisher

import (
	"context"
	"time"

	"opdclaims/internal/claims/models"
	"opdclaims/pkg/platform/audit"
)

// MemberLookup resolves members by ID.
type MemberLookup interface {
	// FindMember returns sentinel.ErrNotFound when no member has the ID.
	FindMember(ctx context.Context, memberID string) (*models.Member, error)
}

// ClaimHistory answers the read-only history questions asked by fraud
// detection. excludeClaimID is the claim being adjudicated, which may
// already be persisted.
type ClaimHistory interface {
	// CountSameDay counts non-rejected claims by the member with a treatment
	// date on day.
	CountSameDay(ctx context.Context, memberID string, day time.Time, excludeClaimID string) (int, error)

	// CountInWindow counts claims of any status by the member with a treatment
	// date in [from, to].
	CountInWindow(ctx context.Context, memberID string, from, to time.Time, excludeClaimID string) (int, error)

	// BillNumberInUse reports whether a non-rejected claim carries billNumber.
	BillNumberInUse(ctx context.Context, billNumber string, excludeClaimID string) (bool, error)
}

// NecessityJudge evaluates whether a treatment is medically necessary. Errors
// are expected; the pipeline substitutes a neutral assessment for them.
type NecessityJudge interface {
	Assess(ctx context.Context, req models.NecessityRequest) (models.Assessment, error)
}

// AuditPublisher records claim lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
