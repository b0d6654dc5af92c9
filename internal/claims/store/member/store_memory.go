// Package member persists policy members and their used annual limit.
//
// Error Contract:
//   - FindMember and AddToAnnualLimitUsed return sentinel.ErrNotFound for an unknown ID
//   - CreateMember returns sentinel.ErrConflict when the ID is taken
//   - infrastructure failures are wrapped with fmt.Errorf
package member

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"opdclaims/internal/claims/models"
	"opdclaims/pkg/platform/sentinel"
)

// InMemory keeps members in a map. Callers receive copies.
type InMemory struct {
	mu      sync.RWMutex
	members map[string]models.Member
}

func NewInMemory() *InMemory {
	return &InMemory{members: make(map[string]models.Member)}
}

func (s *InMemory) FindMember(_ context.Context, memberID string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberID]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", memberID, sentinel.ErrNotFound)
	}
	return &m, nil
}

func (s *InMemory) ListMembers(_ context.Context) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) CreateMember(_ context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.ID]; ok {
		return fmt.Errorf("member %s: %w", m.ID, sentinel.ErrConflict)
	}
	s.members[m.ID] = *m
	return nil
}

// AddToAnnualLimitUsed adds amount under the write lock and returns the new
// total.
func (s *InMemory) AddToAnnualLimitUsed(_ context.Context, memberID string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("annual limit increment must not be negative: %.2f", amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberID]
	if !ok {
		return 0, fmt.Errorf("member %s: %w", memberID, sentinel.ErrNotFound)
	}
	m.AnnualLimitUsed += amount
	s.members[memberID] = m
	return m.AnnualLimitUsed, nil
}

// Seed inserts members whose IDs are not present yet and reports how many
// were added.
func (s *InMemory) Seed(_ context.Context, members []*models.Member) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, m := range members {
		if _, ok := s.members[m.ID]; ok {
			continue
		}
		s.members[m.ID] = *m
		added++
	}
	return added, nil
}
