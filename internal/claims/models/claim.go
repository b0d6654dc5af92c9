package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewClaimID returns an identifier of the form CLM_XXXXXXXX.
func NewClaimID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CLM_" + strings.ToUpper(hex[:8])
}

// DecisionOutcome is the terminal artifact of adjudication. It is produced
// once per submission and never mutated afterwards.
type DecisionOutcome struct {
	Decision         Decision           `json:"decision"`
	ApprovedAmount   float64            `json:"approved_amount"`
	RejectedAmount   float64            `json:"rejected_amount"`
	RejectionReasons []Code             `json:"rejection_reasons"`
	ConfidenceScore  float64            `json:"confidence_score"`
	Reasoning        []string           `json:"reasoning"`
	Notes            string             `json:"notes"`
	NextSteps        string             `json:"next_steps"`
	Flags            []string           `json:"flags"`
	Deductions       map[string]float64 `json:"deductions"`
}

// ClaimRecord is a persisted claim.
type ClaimRecord struct {
	ID             string      `json:"id"`
	MemberID       string      `json:"member_id"`
	SubmittedAt    time.Time   `json:"submission_date"`
	TreatmentDate  time.Time   `json:"treatment_date"`
	TotalAmount    float64     `json:"total_amount"`
	ApprovedAmount *float64    `json:"approved_amount,omitempty"`
	Status         ClaimStatus `json:"status"`
	Category       Category    `json:"category,omitempty"`
	HospitalName   string      `json:"hospital_name,omitempty"`
	BillNumber     string      `json:"bill_number,omitempty"`
	IsNetwork      bool        `json:"is_network"`
	PreAuthNumber  string      `json:"pre_auth_number,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// NewClaimRecord builds a claim in PROCESSING state.
func NewClaimRecord(sub Submission, now time.Time) *ClaimRecord {
	rec := &ClaimRecord{
		ID:            sub.ClaimID,
		MemberID:      sub.MemberID,
		SubmittedAt:   now,
		TreatmentDate: sub.TreatmentDate,
		Status:        ClaimStatusProcessing,
		PreAuthNumber: sub.PreAuthNumber,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if b := sub.Bill(); b != nil {
		rec.TotalAmount = b.Total()
		rec.HospitalName = b.HospitalName
		rec.BillNumber = b.BillNumber
	}
	return rec
}

// Finalize applies the adjudication result. Only PROCESSING claims can be
// finalized.
func (c *ClaimRecord) Finalize(cc *ClaimContext, outcome DecisionOutcome, now time.Time) error {
	if c.Status != ClaimStatusProcessing {
		return fmt.Errorf("claim %s is %s, not %s", c.ID, c.Status, ClaimStatusProcessing)
	}
	approved := outcome.ApprovedAmount
	c.ApprovedAmount = &approved
	c.Status = StatusFor(outcome.Decision)
	if cc.Limits.TotalAmount > 0 {
		c.TotalAmount = cc.Limits.TotalAmount
	}
	if cc.Coverage.Resolved {
		c.Category = cc.Coverage.Category
	}
	c.IsNetwork = cc.Settlement.IsNetwork
	c.UpdatedAt = now
	return nil
}

// StoredDocument is a submitted document persisted against a claim.
type StoredDocument struct {
	ClaimID   string    `json:"claim_id"`
	Document  Document  `json:"document"`
	CreatedAt time.Time `json:"created_at"`
}

// DecisionRecord is a persisted decision. PolicyHash identifies the policy
// terms the claim was adjudicated against.
type DecisionRecord struct {
	ID         string    `json:"id"`
	ClaimID    string    `json:"claim_id"`
	PolicyHash string    `json:"policy_hash,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	DecisionOutcome
}

func NewDecisionRecord(claimID, policyHash string, outcome DecisionOutcome, now time.Time) *DecisionRecord {
	return &DecisionRecord{
		ID:              uuid.NewString(),
		ClaimID:         claimID,
		PolicyHash:      policyHash,
		CreatedAt:       now,
		DecisionOutcome: outcome,
	}
}

// ClaimFilter narrows claim listings. Zero values mean "no filter".
type ClaimFilter struct {
	MemberID string
	Status   ClaimStatus
	Skip     int
	Limit    int
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Normalize clamps paging to the supported range.
func (f ClaimFilter) Normalize() ClaimFilter {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return f
}
