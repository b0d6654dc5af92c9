package policy

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	terms, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "PLUM_OPD_2024", terms.PolicyID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), terms.EffectiveFrom())
	assert.Equal(t, 30, terms.WaitingPeriods.InitialWaiting)
	assert.True(t, strings.HasPrefix(terms.Hash(), "sha256:"))

	consult, ok := terms.Category("consultation_fees")
	require.True(t, ok)
	assert.True(t, consult.Covered)
	assert.Equal(t, 10.0, consult.CopayPercentage)
	require.NotNil(t, consult.SubLimit)
	assert.Equal(t, 5000.0, *consult.SubLimit)

	t.Run("specific ailments keep declaration order", func(t *testing.T) {
		var conditions []string
		for _, a := range terms.WaitingPeriods.SpecificAilments {
			conditions = append(conditions, a.Condition)
		}
		assert.Equal(t, []string{"diabetes", "hypertension", "thyroid", "joint replacement", "cataract"}, conditions)
	})

	t.Run("network hospital match is case-insensitive and exact", func(t *testing.T) {
		assert.True(t, terms.IsNetworkHospital("APOLLO HOSPITALS"))
		assert.True(t, terms.IsNetworkHospital("  fortis healthcare "))
		assert.False(t, terms.IsNetworkHospital("Apollo Hospitals Jayanagar"))
		assert.False(t, terms.IsNetworkHospital(""))
	})
}

func TestLoadJSONPolicy(t *testing.T) {
	terms, err := Load("testdata/policy.json")
	require.NoError(t, err)

	assert.Equal(t, "TEST_OPD", terms.PolicyID)
	assert.Equal(t, []string{"cosmetic", "dental"}, terms.ExclusionTerms())
	require.Len(t, terms.WaitingPeriods.SpecificAilments, 2)
	assert.Equal(t, AilmentWait{Condition: "Hypertension", Days: 60}, terms.WaitingPeriods.SpecificAilments[0])

	consult, ok := terms.Category("consultation_fees")
	require.True(t, ok)
	assert.Nil(t, consult.SubLimit)

	_, ok = terms.Category("dental")
	assert.False(t, ok)
}

func TestCoverageDetailsShapes(t *testing.T) {
	const head = "effective_date: \"2024-01-01\"\n"
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "categories beside the limits",
			doc: head + `coverage_details:
  annual_limit: 20000
  per_claim_limit: 8000
  consultation_fees: {covered: true, copay_percentage: 10}
  dental: {covered: false}`,
		},
		{
			name: "categories nested under a key",
			doc: head + `coverage_details:
  annual_limit: 20000
  per_claim_limit: 8000
  categories:
    consultation_fees: {covered: true, copay_percentage: 10}
    dental: {covered: false}`,
		},
		{
			name: "flat JSON",
			doc: `{"effective_date": "2024-01-01", "coverage_details": {"annual_limit": 20000,
  "per_claim_limit": 8000, "consultation_fees": {"covered": true, "copay_percentage": 10},
  "dental": {"covered": false}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms, err := Parse([]byte(tt.doc))
			require.NoError(t, err)

			assert.Equal(t, 20000.0, terms.Coverage.AnnualLimit)
			assert.Equal(t, 8000.0, terms.Coverage.PerClaimLimit)
			assert.Len(t, terms.Coverage.Categories, 2)

			consult, ok := terms.Category("consultation_fees")
			require.True(t, ok)
			assert.True(t, consult.Covered)
			assert.Equal(t, 10.0, consult.CopayPercentage)

			dental, ok := terms.Category("dental")
			require.True(t, ok)
			assert.False(t, dental.Covered)
		})
	}

	t.Run("a category declared in both places is rejected", func(t *testing.T) {
		_, err := Parse([]byte(head + `coverage_details:
  annual_limit: 1
  per_claim_limit: 1
  dental: {covered: true}
  categories:
    dental: {covered: false}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "declared twice")
	})
}

func TestParseRejectsInvalidTerms(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "missing effective date",
			doc:     "coverage_details: {annual_limit: 1, per_claim_limit: 1, x: {covered: true}}",
			wantErr: "effective_date is required",
		},
		{
			name:    "malformed effective date",
			doc:     "effective_date: 01/01/2024",
			wantErr: "YYYY-MM-DD",
		},
		{
			name: "copay out of range",
			doc: `effective_date: "2024-01-01"
coverage_details:
  annual_limit: 100
  per_claim_limit: 100
  pharmacy: {covered: true, copay_percentage: 120}`,
			wantErr: "copay_percentage",
		},
		{
			name: "unknown category field",
			doc: `effective_date: "2024-01-01"
coverage_details:
  annual_limit: 100
  per_claim_limit: 100
  pharmacy: {covered: true, copay: 10}`,
			wantErr: "field copay not found",
		},
		{
			name: "category that is not a mapping",
			doc: `effective_date: "2024-01-01"
coverage_details:
  annual_limit: 100
  per_claim_limit: 100
  surprise: true`,
			wantErr: "coverage_details.surprise",
		},
		{
			name: "no categories",
			doc: `effective_date: "2024-01-01"
coverage_details: {annual_limit: 100, per_claim_limit: 100}`,
			wantErr: "at least one category",
		},
		{
			name:    "unknown field",
			doc:     "effective_date: \"2024-01-01\"\nsurprise: true",
			wantErr: "surprise",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHashTracksSourceBytes(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Parse(append([]byte("# revised\n"), defaultPolicy...))
	require.NoError(t, err)

	assert.NotEqual(t, a.Hash(), b.Hash())
}
