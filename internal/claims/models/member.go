package models

import (
	"strings"
	"time"

	dErrors "opdclaims/pkg/domain-errors"
)

// Member is an insured person under the policy.
//
// Invariants:
//   - ID and Name are non-empty
//   - AnnualLimitUsed never decreases and only grows by approved amounts
type Member struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	PolicyID        string    `json:"policy_id"`
	JoinDate        time.Time `json:"join_date"`
	Gender          Gender    `json:"gender,omitempty"`
	AnnualLimitUsed float64   `json:"annual_limit_used"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewMember validates and builds a member with no limit used.
func NewMember(id, name, policyID string, joinDate time.Time, gender Gender, now time.Time) (*Member, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member id cannot be empty")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member name cannot be empty")
	}
	if joinDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member join date is required")
	}
	return &Member{
		ID:        id,
		Name:      name,
		PolicyID:  policyID,
		JoinDate:  joinDate,
		Gender:    gender,
		CreatedAt: now,
	}, nil
}

// RemainingLimit is what is left of annualLimit after prior approvals.
func (m *Member) RemainingLimit(annualLimit float64) float64 {
	return annualLimit - m.AnnualLimitUsed
}

// SeedMembers is the fixed roster loaded into fresh environments.
func SeedMembers(policyID string, now time.Time) []*Member {
	join := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	seed := []struct {
		id, name string
		gender   Gender
		joined   time.Time
	}{
		{"EMP001", "Rajesh Kumar", GenderMale, join},
		{"EMP002", "Priya Singh", GenderFemale, join},
		{"EMP003", "Amit Verma", GenderMale, join},
		{"EMP004", "Sneha Reddy", GenderFemale, join},
		{"EMP005", "Vikram Joshi", GenderMale, late},
		{"EMP006", "Kavita Nair", GenderFemale, join},
		{"EMP007", "Suresh Patil", GenderMale, join},
		{"EMP008", "Ravi Menon", GenderMale, join},
		{"EMP009", "Anita Desai", GenderFemale, join},
		{"EMP010", "Deepak Shah", GenderMale, join},
	}
	out := make([]*Member, 0, len(seed))
	for _, s := range seed {
		out = append(out, &Member{
			ID:        s.id,
			Name:      s.name,
			PolicyID:  policyID,
			JoinDate:  s.joined,
			Gender:    s.gender,
			CreatedAt: now,
		})
	}
	return out
}
