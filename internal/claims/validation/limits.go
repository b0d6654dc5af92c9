package validation

import (
	"fmt"

	"opdclaims/internal/claims/models"
)

// checkLimits applies the monetary limits. Minimum, per-claim and an
// exhausted annual limit are terminal; the category sub-limit and a partly
// used annual limit only cap the payable amount.
func (p *Pipeline) checkLimits(cc *models.ClaimContext, result *models.ValidationResult) {
	bill := cc.Submission.Bill()
	if bill == nil || bill.TotalAmount == nil {
		result.Fail(models.CodeMissingDocuments, "Medical bill is required for limit validation")
		return
	}

	total := *bill.TotalAmount
	cc.Limits.TotalAmount = total

	minimum := p.terms.ClaimRequirements.MinimumClaimAmount
	if total < minimum {
		result.Fail(models.CodeBelowMinAmount,
			fmt.Sprintf("Claim amount ₹%s is below minimum of ₹%s", rupees(total), rupees(minimum)))
		return
	}

	perClaim := p.terms.Coverage.PerClaimLimit
	if total > perClaim {
		result.Fail(models.CodePerClaimExceeded,
			fmt.Sprintf("Claim amount ₹%s exceeds per-claim limit of ₹%s", rupees(total), rupees(perClaim)))
		return
	}

	var capped *float64
	if sub := cc.Coverage.Terms.SubLimit; sub != nil && total > *sub {
		result.Warn(models.CodeSubLimitExceeded, fmt.Sprintf(
			"Amount exceeds %s limit of ₹%s. Will be capped.", cc.Coverage.Category, rupees(*sub)))
		limit := *sub
		capped = &limit
	}

	if member := cc.Eligibility.Member; member != nil {
		annual := p.terms.Coverage.AnnualLimit
		remaining := member.RemainingLimit(annual)
		switch {
		case remaining <= 0:
			result.Fail(models.CodeAnnualLimitExceeded,
				fmt.Sprintf("Annual limit of ₹%s has been exhausted", rupees(annual)))
			return
		case total > remaining:
			result.Warn(models.CodePartialAnnualLimit, fmt.Sprintf(
				"Only ₹%s remaining in annual limit. Claim will be capped.", rupees(remaining)))
			if capped == nil || remaining < *capped {
				capped = &remaining
			}
		}
	}

	cc.Limits.CappedAmount = capped
	result.Pass(models.CheckLimits)
}
