package compliance

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "opdclaims/pkg/platform/audit"
	"opdclaims/pkg/platform/audit/store/memory"
)

type failingStore struct {
	*memory.InMemoryStore
}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("disk full")
}

func TestEmitPersistsStampedEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	metrics := NewMetrics(prometheus.NewRegistry())
	p := New(store, WithMetrics(metrics))

	err := p.Emit(context.Background(), audit.Event{
		Action:  string(audit.EventDecisionMade),
		ClaimID: "CLM_00000001",
	})
	require.NoError(t, err)

	events, err := store.ListByClaim(context.Background(), "CLM_00000001")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Writes.WithLabelValues("decision_made", "ok")), 0)
}

func TestEmitRejectsIncompleteEvents(t *testing.T) {
	p := New(memory.NewInMemoryStore())

	assert.ErrorIs(t, p.Emit(context.Background(), audit.Event{ClaimID: "CLM_00000001"}), errNoAction)
	assert.ErrorIs(t, p.Emit(context.Background(), audit.Event{Action: string(audit.EventDecisionMade)}), errNoSubject)
	assert.NoError(t, p.Emit(context.Background(), audit.Event{
		Action:   string(audit.EventMemberCreated),
		MemberID: "EMP001",
	}))
}

func TestEmitFailsClosed(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	p := New(failingStore{memory.NewInMemoryStore()}, WithMetrics(metrics))

	err := p.Emit(context.Background(), audit.Event{
		Action:  string(audit.EventClaimSubmitted),
		ClaimID: "CLM_00000001",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Writes.WithLabelValues("claim_submitted", "error")), 0)
}
