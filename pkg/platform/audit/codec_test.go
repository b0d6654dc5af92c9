package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePreservesEvent(t *testing.T) {
	in := Event{
		ID:        "3f8a2c1e-0000-4000-8000-000000000001",
		Category:  CategoryCompliance,
		Timestamp: time.Date(2024, 11, 1, 10, 15, 0, 123, time.UTC),
		ClaimID:   "CLM_0000ABCD",
		MemberID:  "EMP001",
		Action:    string(EventDecisionMade),
		Decision:  "APPROVED",
		RequestID: "req-1",
		Details:   map[string]any{"approved_amount": 4500.0},
	}

	raw, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, in.ID, out.ID)
	assert.True(t, in.Timestamp.Equal(out.Timestamp))
	assert.Equal(t, in.ClaimID, out.ClaimID)
	assert.Equal(t, in.Decision, out.Decision)
	assert.Equal(t, 4500.0, out.Details["approved_amount"])
}

func TestDecodeRejectsIncompleteEvents(t *testing.T) {
	_, err := Decode([]byte(`{"action":"decision_made"}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeDerivesMissingCategory(t *testing.T) {
	e, err := Decode([]byte(`{"id":"x","action":"auth_failed"}`))
	require.NoError(t, err)
	assert.Equal(t, CategorySecurity, e.Category)
}

func TestStampedKeepsExistingValues(t *testing.T) {
	now := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	e := Event{Action: string(EventDocumentsProcessed)}.Stamped(now)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, now, e.Timestamp)
	assert.Equal(t, CategoryOperations, e.Category)

	again := e.Stamped(now.Add(time.Hour))
	assert.Equal(t, e, again)
}
