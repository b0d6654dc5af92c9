package claims

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	StatusCode() int
	Body() []byte
	GetResponseField(field string) (any, error)
	Set(key, value string)
	Get(key string) string
}

// RegisterSteps registers claim submission and decision steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &claimSteps{tc: tc}

	ctx.Step(`^member "([^"]*)" submits a consultation bill of (\d+) for "([^"]*)" treated on "([^"]*)"$`, steps.submitConsultation)
	ctx.Step(`^the claim status should be "([^"]*)"$`, steps.claimStatusShouldBe)
	ctx.Step(`^the approved amount should be (\d+(?:\.\d+)?)$`, steps.approvedAmountShouldBe)
	ctx.Step(`^I fetch the decision for the submitted claim$`, steps.fetchDecision)
	ctx.Step(`^the decision should list rejection reason "([^"]*)"$`, steps.decisionShouldListReason)
}

type claimSteps struct {
	tc TestContext
}

func (s *claimSteps) submitConsultation(ctx context.Context, memberID string, total int, diagnosis, date string) error {
	amount := float64(total)
	// Bill numbers must be unique across runs against one server.
	billNumber := "E2E-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	body := map[string]any{
		"member_id":      memberID,
		"treatment_date": date,
		"documents": []map[string]any{
			{
				"document_type": "prescription",
				"filename":      "prescription.pdf",
				"extracted_data": map[string]any{
					"doctor_name":         "Dr. Sharma",
					"doctor_registration": "KA/45678/2015",
					"date":                date,
					"diagnosis":           diagnosis,
					"medicines_prescribed": []map[string]any{
						{"name": "Paracetamol 650mg", "dosage": "1-0-1", "duration": "3 days"},
					},
				},
			},
			{
				"document_type": "bill",
				"filename":      "bill.pdf",
				"extracted_data": map[string]any{
					"hospital_name": "City Clinic",
					"bill_number":   billNumber,
					"bill_date":     date,
					"line_items":    []map[string]any{{"description": "Consultation", "amount": amount}},
					"total_amount":  amount,
				},
			},
		},
	}
	if err := s.tc.POST("/claims", body); err != nil {
		return err
	}
	if id, err := s.tc.GetResponseField("claim_id"); err == nil {
		s.tc.Set("claim_id", fmt.Sprint(id))
	}
	return nil
}

func (s *claimSteps) claimStatusShouldBe(ctx context.Context, want string) error {
	got, err := s.tc.GetResponseField("status")
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected claim status %s, got %v: %s", want, got, s.tc.Body())
	}
	return nil
}

func (s *claimSteps) approvedAmountShouldBe(ctx context.Context, want float64) error {
	got, err := s.tc.GetResponseField("approved_amount")
	if err != nil {
		return err
	}
	amount, ok := got.(float64)
	if !ok || math.Abs(amount-want) > 0.005 {
		return fmt.Errorf("expected approved amount %.2f, got %v", want, got)
	}
	return nil
}

func (s *claimSteps) fetchDecision(ctx context.Context) error {
	id := s.tc.Get("claim_id")
	if id == "" {
		return fmt.Errorf("no claim was submitted in this scenario")
	}
	return s.tc.GET("/decisions/"+id, nil)
}

func (s *claimSteps) decisionShouldListReason(ctx context.Context, code string) error {
	got, err := s.tc.GetResponseField("rejection_reasons")
	if err != nil {
		return err
	}
	reasons, _ := got.([]any)
	for _, r := range reasons {
		if r == code {
			return nil
		}
	}
	return fmt.Errorf("rejection reasons %v do not include %s", reasons, code)
}
