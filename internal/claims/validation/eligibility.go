package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"opdclaims/internal/claims/match"
	"opdclaims/internal/claims/models"
	"opdclaims/pkg/platform/sentinel"
	pstrings "opdclaims/pkg/platform/strings"
)

// checkEligibility confirms the member exists and that the treatment falls
// inside the policy period and outside any waiting period.
//
// Rule priority (fail-fast):
//  1. Member must exist
//  2. Treatment on or after the policy effective date
//  3. Condition-specific waiting periods, in policy order
//  4. Initial waiting period
func (p *Pipeline) checkEligibility(ctx context.Context, cc *models.ClaimContext, result *models.ValidationResult) error {
	sub := cc.Submission

	// Rule 1: member must exist
	member, err := p.members.FindMember(ctx, sub.MemberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			result.Fail(models.CodeMemberNotCovered,
				fmt.Sprintf("Member ID %s not found in policy records", sub.MemberID))
			return nil
		}
		return fmt.Errorf("find member %s: %w", sub.MemberID, err)
	}
	cc.Eligibility = models.EligibilityFacts{Member: member, MemberName: member.Name}

	// Rule 2: policy period
	treatment := match.Day(sub.TreatmentDate)
	if treatment.Before(p.terms.EffectiveFrom()) {
		result.Fail(models.CodePolicyInactive, "Treatment date is before policy start date")
		return nil
	}

	// negative when treatment predates the join date, so no waiting period
	// has elapsed
	daysSinceJoin := match.DaysSince(member.JoinDate, treatment)

	// Rule 3: condition-specific waiting periods
	diagnosis := ""
	if rx := sub.ExtractedPrescription(); rx != nil {
		diagnosis = pstrings.Fold(rx.Diagnosis)
	}
	if diagnosis != "" {
		for _, ailment := range p.terms.WaitingPeriods.SpecificAilments {
			if !strings.Contains(diagnosis, pstrings.Fold(ailment.Condition)) {
				continue
			}
			if daysSinceJoin < ailment.Days {
				eligible := match.FormatDay(match.AddDays(member.JoinDate, ailment.Days))
				issue := result.Fail(models.CodeWaitingPeriod, fmt.Sprintf(
					"%s has %d-day waiting period. Eligible from %s",
					title(ailment.Condition), ailment.Days, eligible))
				issue.EligibleFrom = eligible
				return nil
			}
		}
	}

	// Rule 4: initial waiting period
	initial := p.terms.WaitingPeriods.InitialWaiting
	if daysSinceJoin < initial {
		eligible := match.FormatDay(match.AddDays(member.JoinDate, initial))
		issue := result.Fail(models.CodeWaitingPeriod, fmt.Sprintf(
			"Initial %d-day waiting period not completed. Eligible from %s", initial, eligible))
		issue.EligibleFrom = eligible
		return nil
	}

	result.Pass(models.CheckEligibility)
	return nil
}
