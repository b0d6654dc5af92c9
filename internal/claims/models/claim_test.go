package models_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opdclaims/internal/claims/models"
)

var claimIDPattern = regexp.MustCompile(`^CLM_[0-9A-F]{8}$`)

func TestNewClaimID(t *testing.T) {
	seen := map[string]bool{}
	for range 50 {
		id := models.NewClaimID()
		assert.Regexp(t, claimIDPattern, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestClaimRecordLifecycle(t *testing.T) {
	now := time.Date(2024, 11, 1, 10, 0, 0, 0, time.UTC)
	total := 1500.0
	sub := models.Submission{
		ClaimID:       "CLM_0000ABCD",
		MemberID:      "EMP001",
		TreatmentDate: time.Date(2024, 10, 30, 0, 0, 0, 0, time.UTC),
		Documents: []models.Document{
			{Type: models.DocumentBill, Bill: &models.BillData{
				HospitalName: "Apollo Hospitals", BillNumber: "B-1", TotalAmount: &total,
			}},
		},
	}

	rec := models.NewClaimRecord(sub, now)
	assert.Equal(t, models.ClaimStatusProcessing, rec.Status)
	assert.Equal(t, 1500.0, rec.TotalAmount)
	assert.Equal(t, "B-1", rec.BillNumber)
	assert.Nil(t, rec.ApprovedAmount)

	cc := models.NewClaimContext(sub)
	cc.Limits.TotalAmount = 1500
	cc.Coverage = models.CoverageFacts{Category: models.CategoryConsultation, Resolved: true}
	cc.Settlement.IsNetwork = true

	outcome := models.DecisionOutcome{Decision: models.DecisionApproved, ApprovedAmount: 1080}
	require.NoError(t, rec.Finalize(cc, outcome, now.Add(time.Second)))
	assert.Equal(t, models.ClaimStatusApproved, rec.Status)
	require.NotNil(t, rec.ApprovedAmount)
	assert.Equal(t, 1080.0, *rec.ApprovedAmount)
	assert.Equal(t, models.CategoryConsultation, rec.Category)
	assert.True(t, rec.IsNetwork)

	err := rec.Finalize(cc, outcome, now)
	assert.Error(t, err, "a finalized claim cannot be finalized again")
}

func TestClaimFilterNormalize(t *testing.T) {
	assert.Equal(t, models.ClaimFilter{Limit: 20}, models.ClaimFilter{}.Normalize())
	assert.Equal(t, models.ClaimFilter{Limit: 100}, models.ClaimFilter{Skip: -3, Limit: 500}.Normalize())
	assert.Equal(t, models.ClaimFilter{Skip: 5, Limit: 7}, models.ClaimFilter{Skip: 5, Limit: 7}.Normalize())
}

func TestParseClaimStatus(t *testing.T) {
	st, err := models.ParseClaimStatus(" manual_review ")
	require.NoError(t, err)
	assert.Equal(t, models.ClaimStatusManualReview, st)

	_, err = models.ParseClaimStatus("PENDING")
	assert.Error(t, err)
}

func TestJudgment(t *testing.T) {
	assessed := models.Assessed(models.Assessment{IsNecessary: false, Confidence: 0.9})
	assert.False(t, assessed.IsDegraded())

	degraded := models.Degraded(errors.New("deadline exceeded"))
	assert.True(t, degraded.IsDegraded())
	assert.Equal(t, models.NeutralAssessment(), degraded.Assessment)
	assert.Equal(t, []string{"Automatic validation failed"}, degraded.Assessment.Flags)

	assert.True(t, models.Degraded(nil).IsDegraded())
}

func TestSeedMembers(t *testing.T) {
	members := models.SeedMembers("PLUM_OPD_2024", time.Now())
	require.Len(t, members, 10)
	assert.Equal(t, "EMP001", members[0].ID)
	assert.Equal(t, "Vikram Joshi", members[4].Name)
	assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), members[4].JoinDate)
	assert.Equal(t, models.GenderFemale, members[1].Gender)
}

func TestNewMemberInvariants(t *testing.T) {
	join := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := models.NewMember("", "A", "P", join, models.GenderMale, join)
	assert.Error(t, err)
	_, err = models.NewMember("E1", " ", "P", join, models.GenderMale, join)
	assert.Error(t, err)
	_, err = models.NewMember("E1", "A", "P", time.Time{}, models.GenderMale, join)
	assert.Error(t, err)

	m, err := models.NewMember(" E1 ", "Asha Rao", "P", join, models.GenderFemale, join)
	require.NoError(t, err)
	assert.Equal(t, "E1", m.ID)
	assert.Equal(t, 42.5, (&models.Member{AnnualLimitUsed: 57.5}).RemainingLimit(100))
}
