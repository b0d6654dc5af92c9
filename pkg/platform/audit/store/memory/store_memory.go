package memory

import (
	"context"
	"sort"
	"sync"

	audit "opdclaims/pkg/platform/audit"
)

// InMemoryStore keeps events in insertion order, indexed by claim.
type InMemoryStore struct {
	mu      sync.RWMutex
	events  []audit.Event
	byClaim map[string][]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byClaim: make(map[string][]int)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.byClaim = make(map[string][]int)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if event.ClaimID != "" {
		s.byClaim[event.ClaimID] = append(s.byClaim[event.ClaimID], len(s.events)-1)
	}
	return nil
}

// ListByClaim returns a claim's events in the order they were appended.
func (s *InMemoryStore) ListByClaim(_ context.Context, claimID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.byClaim[claimID]
	out := make([]audit.Event, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.events[i])
	}
	return out, nil
}

// ListRecent returns up to limit events, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	all := append([]audit.Event{}, s.events...)
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
