package validation

import (
	"fmt"
	"strings"

	"opdclaims/internal/claims/models"
	pstrings "opdclaims/pkg/platform/strings"
)

// preAuthThreshold is the bill total above which categories that require
// pre-authorization need a pre-auth number.
const preAuthThreshold = 10000.0

// Keyword sets used to categorize bill line items. The first three are
// matched item by item; the last two across the whole bill.
var (
	dentalTerms      = []string{"dental", "tooth", "root canal", "extraction", "filling"}
	visionTerms      = []string{"eye", "vision", "glasses", "spectacles", "lens"}
	alternativeTerms = []string{"ayurveda", "ayurvedic", "homeopathy", "homeopathic", "unani"}
	diagnosticTerms  = []string{"test", "scan", "x-ray", "ultrasound", "mri", "ct", "ecg", "blood"}
	pharmacyTerms    = []string{"tablet", "capsule", "syrup", "medicine", "drug", "tab", "cap"}
)

// checkCoverage rejects excluded treatments and uncovered categories, and
// records the category the claim is settled under.
func (p *Pipeline) checkCoverage(cc *models.ClaimContext, result *models.ValidationResult) {
	sub := cc.Submission

	var diagnosis, treatment string
	if rx := sub.Prescription(); rx != nil {
		diagnosis = pstrings.Fold(rx.Diagnosis)
		treatment = pstrings.Fold(rx.Treatment)
	}
	if term, excluded := pstrings.FirstContained(p.terms.ExclusionTerms(), diagnosis, treatment); excluded {
		result.Fail(models.CodeServiceNotCovered, fmt.Sprintf("'%s' is excluded from coverage", title(term)))
		return
	}

	bill := sub.Bill()
	category := Categorize(bill)
	if term, excluded := p.excludedCategory(category); excluded {
		result.Fail(models.CodeServiceNotCovered, fmt.Sprintf("'%s' is excluded from coverage", title(term)))
		return
	}
	terms, ok := p.terms.Category(string(category))
	if !ok || !terms.Covered {
		result.Fail(models.CodeServiceNotCovered,
			fmt.Sprintf("Category '%s' is not covered under this policy", category))
		return
	}

	if terms.PreAuthorizationRequired && bill.Total() > preAuthThreshold && sub.PreAuthNumber == "" {
		result.Fail(models.CodePreAuthMissing,
			fmt.Sprintf("%s above ₹10,000 requires pre-authorization", category))
		return
	}

	cc.Coverage = models.CoverageFacts{Category: category, Terms: terms, Resolved: true}
	result.Pass(models.CheckCoverage)
}

// excludedCategory reports an exclusion that names the category itself, as
// its key ("alternative_medicine") or spelled with spaces.
func (p *Pipeline) excludedCategory(category models.Category) (string, bool) {
	key := string(category)
	spaced := strings.ReplaceAll(key, "_", " ")
	for _, term := range p.terms.ExclusionTerms() {
		if term == key || term == spaced {
			return term, true
		}
	}
	return "", false
}

// Categorize picks the coverage category from the bill's line items. Dental,
// vision and alternative medicine are checked per item in item order, so the
// first item decides between them. Diagnostic tests and then pharmacy are
// checked across all items. Anything else, including a missing bill, is a
// consultation.
func Categorize(bill *models.BillData) models.Category {
	if bill == nil {
		return models.CategoryConsultation
	}

	descriptions := make([]string, 0, len(bill.LineItems))
	for _, item := range bill.LineItems {
		descriptions = append(descriptions, pstrings.Fold(item.Description))
	}

	for _, desc := range descriptions {
		switch {
		case pstrings.ContainsAny(desc, dentalTerms):
			return models.CategoryDental
		case pstrings.ContainsAny(desc, visionTerms):
			return models.CategoryVision
		case pstrings.ContainsAny(desc, alternativeTerms):
			return models.CategoryAlternativeMedicine
		}
	}

	if anyContains(descriptions, diagnosticTerms) {
		return models.CategoryDiagnosticTests
	}
	if anyContains(descriptions, pharmacyTerms) {
		return models.CategoryPharmacy
	}
	return models.CategoryConsultation
}

func anyContains(texts, terms []string) bool {
	for _, t := range texts {
		if pstrings.ContainsAny(t, terms) {
			return true
		}
	}
	return false
}
