package validation

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"opdclaims/internal/claims/match"
	"opdclaims/internal/claims/models"
	pstrings "opdclaims/pkg/platform/strings"
)

const (
	sameDayThreshold   = 3
	frequencyThreshold = 10
	frequencyWindow    = 30
	manualReviewFlags  = 2
)

var (
	maleIncompatibleTerms   = []string{"pregnancy", "maternity", "menstrual"}
	femaleIncompatibleTerms = []string{"prostate"}
)

// claimHistory is what the fraud stage learns about the member's other claims.
type claimHistory struct {
	sameDay       int
	inWindow      int
	duplicateBill bool
}

// checkFraud gathers heuristic fraud flags. Flags are never terminal; two or
// more send the claim to manual review.
func (p *Pipeline) checkFraud(ctx context.Context, cc *models.ClaimContext, result *models.ValidationResult) error {
	sub := cc.Submission
	billNumber := strings.TrimSpace(cc.BillNumber())

	history, err := p.gatherHistory(ctx, sub, billNumber)
	if err != nil {
		return err
	}

	var flags []string
	if history.sameDay >= sameDayThreshold {
		flags = append(flags, "Multiple claims (3+) submitted for same date")
	}
	if history.inWindow > frequencyThreshold {
		flags = append(flags, fmt.Sprintf("Unusual claim frequency: %d claims in 30 days", history.inWindow))
	}
	if member := cc.Eligibility.Member; member != nil && genderIncompatible(member.Gender, sub.Diagnosis()) {
		flags = append(flags, "Diagnosis incompatible with member gender")
	}
	if history.duplicateBill {
		flags = append(flags, fmt.Sprintf("Potential duplicate bill number: %s", billNumber))
	}

	if len(flags) > 0 {
		issue := result.Warn(models.CodeFraudIndicators, strings.Join(flags, "; "))
		issue.Flags = flags
		cc.Fraud = models.FraudFacts{
			Flags:                flags,
			RequiresManualReview: len(flags) >= manualReviewFlags,
		}
	}

	result.Pass(models.CheckFraud)
	return nil
}

// gatherHistory runs the history lookups in parallel with shared
// cancellation. Each goroutine writes its own field.
func (p *Pipeline) gatherHistory(ctx context.Context, sub models.Submission, billNumber string) (claimHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, p.historyTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	var h claimHistory

	day := match.Day(sub.TreatmentDate)

	g.Go(func() error {
		n, err := p.history.CountSameDay(ctx, sub.MemberID, day, sub.ClaimID)
		if err != nil {
			return fmt.Errorf("count same-day claims: %w", err)
		}
		h.sameDay = n
		return nil
	})

	g.Go(func() error {
		from := match.AddDays(day, -frequencyWindow)
		n, err := p.history.CountInWindow(ctx, sub.MemberID, from, day, sub.ClaimID)
		if err != nil {
			return fmt.Errorf("count recent claims: %w", err)
		}
		h.inWindow = n
		return nil
	})

	if billNumber != "" {
		g.Go(func() error {
			used, err := p.history.BillNumberInUse(ctx, billNumber, sub.ClaimID)
			if err != nil {
				return fmt.Errorf("look up bill number: %w", err)
			}
			h.duplicateBill = used
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return claimHistory{}, err
	}
	return h, nil
}

func genderIncompatible(gender models.Gender, diagnosis string) bool {
	diagnosis = pstrings.Fold(diagnosis)
	if diagnosis == "" {
		return false
	}
	switch gender {
	case models.GenderMale:
		return pstrings.ContainsAny(diagnosis, maleIncompatibleTerms)
	case models.GenderFemale:
		return pstrings.ContainsAny(diagnosis, femaleIncompatibleTerms)
	}
	return false
}
