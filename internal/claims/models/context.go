package models

import (
	"time"

	"opdclaims/internal/claims/policy"
)

// Submission is what the caller hands to the pipeline. It is never modified.
type Submission struct {
	ClaimID       string
	MemberID      string
	TreatmentDate time.Time
	Documents     []Document
	PreAuthNumber string
}

// HasDocument reports whether any document of type t was submitted.
func (s Submission) HasDocument(t DocumentType) bool {
	for _, d := range s.Documents {
		if d.Type == t {
			return true
		}
	}
	return false
}

// Prescription returns the extracted data of the first prescription
// document, or nil when the first prescription carries none.
func (s Submission) Prescription() *PrescriptionData {
	for _, d := range s.Documents {
		if d.Type == DocumentPrescription {
			return d.Prescription
		}
	}
	return nil
}

// ExtractedPrescription returns the first prescription that has extracted
// data, skipping empty ones.
func (s Submission) ExtractedPrescription() *PrescriptionData {
	for _, d := range s.Documents {
		if d.Type == DocumentPrescription && d.Prescription != nil {
			return d.Prescription
		}
	}
	return nil
}

// Bill returns the extracted data of the first bill document, or nil.
func (s Submission) Bill() *BillData {
	for _, d := range s.Documents {
		if d.Type == DocumentBill {
			return d.Bill
		}
	}
	return nil
}

// Diagnosis is the diagnosis text of the first prescription, if any.
func (s Submission) Diagnosis() string {
	if p := s.Prescription(); p != nil {
		return p.Diagnosis
	}
	return ""
}

// EligibilityFacts are written by the eligibility stage.
type EligibilityFacts struct {
	Member     *Member
	MemberName string
}

// CoverageFacts are written by the coverage stage.
type CoverageFacts struct {
	Category Category
	Terms    policy.CategoryTerms
	Resolved bool
}

// LimitFacts are written by the limit stage. CappedAmount is nil when neither
// the sub-limit nor the remaining annual limit applied.
type LimitFacts struct {
	TotalAmount  float64
	CappedAmount *float64
}

// NecessityFacts are written by the medical necessity stage. Score is nil
// when the judge was not consulted.
type NecessityFacts struct {
	Score    *float64
	Degraded bool
}

// FraudFacts are written by the fraud stage.
type FraudFacts struct {
	Flags                []string
	RequiresManualReview bool
}

// SettlementFacts are written by the decision engine's amount computation.
type SettlementFacts struct {
	CopayAmount     float64
	NetworkDiscount float64
	IsNetwork       bool
}

// ClaimContext is the typed accumulator threaded through the pipeline and into
// the decision engine.
//
// Each group has exactly one writer, named on its type. Later readers never
// recompute a group written earlier.
type ClaimContext struct {
	Submission  Submission
	Eligibility EligibilityFacts
	Coverage    CoverageFacts
	Limits      LimitFacts
	Necessity   NecessityFacts
	Fraud       FraudFacts
	Settlement  SettlementFacts
}

func NewClaimContext(sub Submission) *ClaimContext {
	return &ClaimContext{Submission: sub}
}

// HospitalName is the hospital on the first bill, if extracted.
func (c *ClaimContext) HospitalName() string {
	if b := c.Submission.Bill(); b != nil {
		return b.HospitalName
	}
	return ""
}

// BillNumber is the bill number on the first bill, if extracted.
func (c *ClaimContext) BillNumber() string {
	if b := c.Submission.Bill(); b != nil {
		return b.BillNumber
	}
	return ""
}
