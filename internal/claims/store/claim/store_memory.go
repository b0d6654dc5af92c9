// Package claim persists claims, their documents and decisions, and answers
// the claim-history questions asked by fraud detection.
//
// Error Contract:
//   - GetClaim, UpdateClaim and Decision return sentinel.ErrNotFound for an unknown claim
//   - CreateClaim and SaveDecision return sentinel.ErrConflict on a duplicate
//   - infrastructure failures are wrapped with fmt.Errorf
package claim

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"opdclaims/internal/claims/models"
	"opdclaims/pkg/platform/sentinel"
)

// InMemory keeps claims in maps guarded by one lock. Callers receive copies.
type InMemory struct {
	mu        sync.RWMutex
	claims    map[string]models.ClaimRecord
	documents map[string][]models.StoredDocument
	decisions map[string]models.DecisionRecord
}

func NewInMemory() *InMemory {
	return &InMemory{
		claims:    make(map[string]models.ClaimRecord),
		documents: make(map[string][]models.StoredDocument),
		decisions: make(map[string]models.DecisionRecord),
	}
}

func (s *InMemory) CreateClaim(_ context.Context, rec *models.ClaimRecord, docs []models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[rec.ID]; ok {
		return fmt.Errorf("claim %s: %w", rec.ID, sentinel.ErrConflict)
	}
	s.claims[rec.ID] = *rec
	stored := make([]models.StoredDocument, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		stored = append(stored, models.StoredDocument{ClaimID: rec.ID, Document: d, CreatedAt: rec.CreatedAt})
	}
	s.documents[rec.ID] = stored
	return nil
}

func (s *InMemory) GetClaim(_ context.Context, claimID string) (*models.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.claims[claimID]
	if !ok {
		return nil, fmt.Errorf("claim %s: %w", claimID, sentinel.ErrNotFound)
	}
	return &rec, nil
}

func (s *InMemory) UpdateClaim(_ context.Context, rec *models.ClaimRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[rec.ID]; !ok {
		return fmt.Errorf("claim %s: %w", rec.ID, sentinel.ErrNotFound)
	}
	s.claims[rec.ID] = *rec
	return nil
}

// ListClaims returns claims newest first.
func (s *InMemory) ListClaims(_ context.Context, filter models.ClaimFilter) ([]*models.ClaimRecord, error) {
	filter = filter.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.ClaimRecord, 0)
	for _, rec := range s.claims {
		if filter.MemberID != "" && rec.MemberID != filter.MemberID {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		matched = append(matched, &rec)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	if filter.Skip >= len(matched) {
		return []*models.ClaimRecord{}, nil
	}
	end := min(filter.Skip+filter.Limit, len(matched))
	return matched[filter.Skip:end], nil
}

// Documents returns the claim's documents in submission order.
func (s *InMemory) Documents(_ context.Context, claimID string) ([]models.StoredDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.documents[claimID]
	out := make([]models.StoredDocument, len(docs))
	copy(out, docs)
	return out, nil
}

func (s *InMemory) SaveDecision(_ context.Context, rec *models.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[rec.ClaimID]; !ok {
		return fmt.Errorf("claim %s: %w", rec.ClaimID, sentinel.ErrNotFound)
	}
	if _, ok := s.decisions[rec.ClaimID]; ok {
		return fmt.Errorf("decision for claim %s: %w", rec.ClaimID, sentinel.ErrConflict)
	}
	s.decisions[rec.ClaimID] = *rec
	return nil
}

func (s *InMemory) Decision(_ context.Context, claimID string) (*models.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.decisions[claimID]
	if !ok {
		return nil, fmt.Errorf("decision for claim %s: %w", claimID, sentinel.ErrNotFound)
	}
	return &rec, nil
}

// -----------------------------------------------------------------------------
// Claim history
// -----------------------------------------------------------------------------

// live reports whether a claim counts towards same-day and duplicate bill
// checks. History only sees decided claims: a PROCESSING row is either the
// claim being validated or one whose validation was aborted.
func live(status models.ClaimStatus) bool {
	return status != models.ClaimStatusRejected && status != models.ClaimStatusProcessing
}

func (s *InMemory) CountSameDay(_ context.Context, memberID string, day time.Time, excludeClaimID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := day.Format(dateLayout)
	n := 0
	for _, rec := range s.claims {
		if rec.ID == excludeClaimID || rec.MemberID != memberID || !live(rec.Status) {
			continue
		}
		if rec.TreatmentDate.Format(dateLayout) == want {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) CountInWindow(_ context.Context, memberID string, from, to time.Time, excludeClaimID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lo, hi := from.Format(dateLayout), to.Format(dateLayout)
	n := 0
	for _, rec := range s.claims {
		if rec.ID == excludeClaimID || rec.MemberID != memberID || rec.Status == models.ClaimStatusProcessing {
			continue
		}
		d := rec.TreatmentDate.Format(dateLayout)
		if d >= lo && d <= hi {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) BillNumberInUse(_ context.Context, billNumber string, excludeClaimID string) (bool, error) {
	if billNumber == "" {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.claims {
		if rec.ID == excludeClaimID || !live(rec.Status) {
			continue
		}
		if rec.BillNumber == billNumber {
			return true, nil
		}
	}
	return false, nil
}
