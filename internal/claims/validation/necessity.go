package validation

import (
	"context"
	"errors"
	"strings"

	"opdclaims/internal/claims/models"
	pstrings "opdclaims/pkg/platform/strings"
)

// testTerms pick the bill line items passed to the judge as ordered tests.
var testTerms = []string{"test", "scan", "x-ray"}

// checkMedicalNecessity asks the judge whether the prescribed treatment fits
// the diagnosis. A negative verdict is a failure but never stops the fraud
// stage from running.
func (p *Pipeline) checkMedicalNecessity(ctx context.Context, cc *models.ClaimContext, result *models.ValidationResult) {
	sub := cc.Submission

	rx := sub.Prescription()
	if rx == nil {
		result.Warn(models.CodeMedicalNecessityUnknown, "Cannot validate medical necessity without prescription")
		return
	}
	if strings.TrimSpace(rx.Diagnosis) == "" {
		result.Warn(models.CodeMedicalNecessityUnknown, "Diagnosis not found in prescription")
		return
	}

	req := models.NecessityRequest{
		Diagnosis: rx.Diagnosis,
		Medicines: rx.MedicinesPrescribed,
		Tests:     orderedTests(sub.Bill()),
	}

	judgment := p.consultJudge(ctx, cc.Submission.ClaimID, req)
	verdict := judgment.Assessment
	score := verdict.Confidence
	cc.Necessity = models.NecessityFacts{Score: &score, Degraded: judgment.IsDegraded()}

	switch {
	case !verdict.IsNecessary:
		reason := verdict.Reasoning
		if reason == "" {
			reason = "Treatment not medically necessary"
		}
		issue := result.Fail(models.CodeNotMedicallyNecessary, reason)
		confidence := verdict.Confidence
		issue.Confidence = &confidence
	case len(verdict.Flags) > 0:
		result.Warn(models.CodeMedicalReviewNeeded, strings.Join(verdict.Flags, "; "))
	}

	result.Pass(models.CheckMedicalNecessity)
}

// consultJudge calls the judge under the configured timeout. Any error, or a
// verdict that fails validation, yields the neutral assessment instead.
func (p *Pipeline) consultJudge(ctx context.Context, claimID string, req models.NecessityRequest) models.Judgment {
	ctx, cancel := context.WithTimeout(ctx, p.judgeTimeout)
	defer cancel()

	assessment, err := p.judge.Assess(ctx, req)
	if err == nil {
		if verr := assessment.Validate(); verr != nil {
			err = invalidVerdict{verr}
		}
	}
	if err != nil {
		category := judgeFailureCategory(err)
		p.metrics.IncJudgeCall("degraded", category)
		p.logger.WarnContext(ctx, "medical necessity judge unavailable, using neutral assessment",
			"claim_id", claimID,
			"category", category,
			"error", err,
		)
		return models.Degraded(err)
	}

	p.metrics.IncJudgeCall("assessed", "")
	return models.Assessed(assessment)
}

// categorized is implemented by judge client errors that carry a failure
// category.
type categorized interface {
	FailureCategory() string
}

// invalidVerdict marks a well-formed response carrying unusable values.
type invalidVerdict struct{ error }

func (invalidVerdict) FailureCategory() string { return "bad_data" }

func (v invalidVerdict) Unwrap() error { return v.error }

func judgeFailureCategory(err error) string {
	var c categorized
	if errors.As(err, &c) {
		return c.FailureCategory()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "internal"
}

func orderedTests(bill *models.BillData) []string {
	if bill == nil {
		return nil
	}
	var tests []string
	for _, item := range bill.LineItems {
		if pstrings.ContainsAny(pstrings.Fold(item.Description), testTerms) {
			tests = append(tests, item.Description)
		}
	}
	return tests
}
