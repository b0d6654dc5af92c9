package handler

import (
	"strings"
	"time"

	"opdclaims/internal/claims/models"
	"opdclaims/internal/claims/service"
	dErrors "opdclaims/pkg/domain-errors"
)

const maxDocuments = 20

// SubmitClaimRequest is the body of POST /claims. Documents carry data
// already extracted from the uploaded files.
type SubmitClaimRequest struct {
	MemberID      string            `json:"member_id"`
	TreatmentDate string            `json:"treatment_date"`
	PreAuthNumber string            `json:"pre_auth_number,omitempty"`
	Documents     []models.Document `json:"documents"`

	treatmentDate time.Time
}

func (r *SubmitClaimRequest) Validate() error {
	r.MemberID = strings.TrimSpace(r.MemberID)
	r.PreAuthNumber = strings.TrimSpace(r.PreAuthNumber)
	if r.MemberID == "" {
		return dErrors.New(dErrors.CodeValidation, "member_id is required")
	}
	day, err := ParseTreatmentDate(r.TreatmentDate)
	if err != nil {
		return err
	}
	r.treatmentDate = day
	if len(r.Documents) > maxDocuments {
		return dErrors.New(dErrors.CodeValidation, "too many documents")
	}
	return nil
}

func (r *SubmitClaimRequest) Submission() models.Submission {
	return models.Submission{
		MemberID:      r.MemberID,
		TreatmentDate: r.treatmentDate,
		Documents:     r.Documents,
		PreAuthNumber: r.PreAuthNumber,
	}
}

// ParseTreatmentDate accepts YYYY-MM-DD or RFC3339 and keeps the calendar
// day in UTC.
func ParseTreatmentDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "treatment_date is required")
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "treatment_date must be YYYY-MM-DD or RFC3339")
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// CreateMemberRequest is the body of POST /members.
type CreateMemberRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PolicyID string `json:"policy_id,omitempty"`
	JoinDate string `json:"join_date"`
	Gender   string `json:"gender,omitempty"`

	joinDate time.Time
}

func (r *CreateMemberRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	if r.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(r.JoinDate))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "join_date must be YYYY-MM-DD")
	}
	r.joinDate = day
	return nil
}

func (r *CreateMemberRequest) Input() service.NewMemberInput {
	return service.NewMemberInput{
		ID:       r.ID,
		Name:     r.Name,
		PolicyID: strings.TrimSpace(r.PolicyID),
		JoinDate: r.joinDate,
		Gender:   models.ParseGender(r.Gender),
	}
}

// ClaimListResponse wraps a page of claims.
type ClaimListResponse struct {
	Claims []*models.ClaimRecord `json:"claims"`
	Skip   int                   `json:"skip"`
	Limit  int                   `json:"limit"`
}
