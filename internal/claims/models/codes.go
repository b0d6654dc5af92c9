package models

import (
	"fmt"
	"strings"
)

// Code identifies a failure or warning raised by the validation pipeline.
// The set is closed: stages only ever record the constants below.
type Code string

const (
	CodeMemberNotCovered        Code = "MEMBER_NOT_COVERED"
	CodePolicyInactive          Code = "POLICY_INACTIVE"
	CodeWaitingPeriod           Code = "WAITING_PERIOD"
	CodeMissingDocuments        Code = "MISSING_DOCUMENTS"
	CodeDoctorRegInvalid        Code = "DOCTOR_REG_INVALID"
	CodeDateMismatch            Code = "DATE_MISMATCH"
	CodePatientMismatch         Code = "PATIENT_MISMATCH"
	CodeServiceNotCovered       Code = "SERVICE_NOT_COVERED"
	CodePreAuthMissing          Code = "PRE_AUTH_MISSING"
	CodeBelowMinAmount          Code = "BELOW_MIN_AMOUNT"
	CodePerClaimExceeded        Code = "PER_CLAIM_EXCEEDED"
	CodeSubLimitExceeded        Code = "SUB_LIMIT_EXCEEDED"
	CodeAnnualLimitExceeded     Code = "ANNUAL_LIMIT_EXCEEDED"
	CodePartialAnnualLimit      Code = "PARTIAL_ANNUAL_LIMIT"
	CodeMedicalNecessityUnknown Code = "MEDICAL_NECESSITY_UNKNOWN"
	CodeNotMedicallyNecessary   Code = "NOT_MEDICALLY_NECESSARY"
	CodeMedicalReviewNeeded     Code = "MEDICAL_REVIEW_NEEDED"
	CodeFraudIndicators         Code = "FRAUD_INDICATORS"
)

var validCodes = map[Code]bool{
	CodeMemberNotCovered:        true,
	CodePolicyInactive:          true,
	CodeWaitingPeriod:           true,
	CodeMissingDocuments:        true,
	CodeDoctorRegInvalid:        true,
	CodeDateMismatch:            true,
	CodePatientMismatch:         true,
	CodeServiceNotCovered:       true,
	CodePreAuthMissing:          true,
	CodeBelowMinAmount:          true,
	CodePerClaimExceeded:        true,
	CodeSubLimitExceeded:        true,
	CodeAnnualLimitExceeded:     true,
	CodePartialAnnualLimit:      true,
	CodeMedicalNecessityUnknown: true,
	CodeNotMedicallyNecessary:   true,
	CodeMedicalReviewNeeded:     true,
	CodeFraudIndicators:         true,
}

func (c Code) IsValid() bool {
	return validCodes[c]
}

func (c Code) String() string {
	return string(c)
}

// Check names a pipeline stage as recorded in ValidationResult.Passed.
type Check string

const (
	CheckEligibility      Check = "ELIGIBILITY_CHECK"
	CheckDocuments        Check = "DOCUMENT_VALIDATION"
	CheckCoverage         Check = "COVERAGE_CHECK"
	CheckLimits           Check = "LIMIT_VALIDATION"
	CheckMedicalNecessity Check = "MEDICAL_NECESSITY_CHECK"
	CheckFraud            Check = "FRAUD_CHECK"
)

func (c Check) String() string {
	return string(c)
}

// Category is the coverage category a claim is billed under.
type Category string

const (
	CategoryConsultation        Category = "consultation_fees"
	CategoryDiagnosticTests     Category = "diagnostic_tests"
	CategoryPharmacy            Category = "pharmacy"
	CategoryDental              Category = "dental"
	CategoryVision              Category = "vision"
	CategoryAlternativeMedicine Category = "alternative_medicine"
)

func (c Category) String() string {
	return string(c)
}

// Decision is the terminal outcome of adjudication.
type Decision string

const (
	DecisionApproved     Decision = "APPROVED"
	DecisionPartial      Decision = "PARTIAL"
	DecisionRejected     Decision = "REJECTED"
	DecisionManualReview Decision = "MANUAL_REVIEW"
)

func (d Decision) String() string {
	return string(d)
}

// ClaimStatus is the lifecycle state of a persisted claim. A claim is created
// PROCESSING and finalized to the status matching its decision.
type ClaimStatus string

const (
	ClaimStatusProcessing   ClaimStatus = "PROCESSING"
	ClaimStatusApproved     ClaimStatus = "APPROVED"
	ClaimStatusPartial      ClaimStatus = "PARTIAL"
	ClaimStatusRejected     ClaimStatus = "REJECTED"
	ClaimStatusManualReview ClaimStatus = "MANUAL_REVIEW"
)

var validClaimStatuses = map[ClaimStatus]bool{
	ClaimStatusProcessing:   true,
	ClaimStatusApproved:     true,
	ClaimStatusPartial:      true,
	ClaimStatusRejected:     true,
	ClaimStatusManualReview: true,
}

func (s ClaimStatus) IsValid() bool {
	return validClaimStatuses[s]
}

func (s ClaimStatus) String() string {
	return string(s)
}

// ParseClaimStatus is used by list filters; matching is case-insensitive.
func ParseClaimStatus(s string) (ClaimStatus, error) {
	status := ClaimStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("unknown claim status %q", s)
	}
	return status, nil
}

// StatusFor maps a decision to the claim status it finalizes to.
func StatusFor(d Decision) ClaimStatus {
	switch d {
	case DecisionApproved:
		return ClaimStatusApproved
	case DecisionPartial:
		return ClaimStatusPartial
	case DecisionRejected:
		return ClaimStatusRejected
	case DecisionManualReview:
		return ClaimStatusManualReview
	}
	return ClaimStatusProcessing
}

// Gender as recorded on the member.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = ""
)

// ParseGender folds the value; anything unrecognised is GenderUnknown.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	}
	return GenderUnknown
}
