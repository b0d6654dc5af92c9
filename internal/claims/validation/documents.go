package validation

import (
	"fmt"
	"strings"

	"opdclaims/internal/claims/match"
	"opdclaims/internal/claims/models"
)

const minNameSimilarity = 0.8

// checkDocuments requires a prescription and a bill, then cross-checks what
// was extracted from them. Only a missing document or a missing doctor
// registration is terminal.
func (p *Pipeline) checkDocuments(cc *models.ClaimContext, result *models.ValidationResult) {
	sub := cc.Submission

	if !sub.HasDocument(models.DocumentPrescription) {
		result.Fail(models.CodeMissingDocuments, "Prescription from registered doctor is required")
	}
	if !sub.HasDocument(models.DocumentBill) {
		result.Fail(models.CodeMissingDocuments, "Medical bill/receipt is required")
	}
	if result.HasFailures() {
		return
	}

	if rx := sub.Prescription(); rx != nil {
		reg := strings.TrimSpace(rx.DoctorRegistration)
		switch {
		case reg == "":
			result.Fail(models.CodeDoctorRegInvalid, "Doctor registration number is missing")
		case !match.ValidRegistration(reg):
			result.Warn(models.CodeDoctorRegInvalid,
				fmt.Sprintf("Doctor registration format may be invalid: %s", reg))
		}
	}

	if dates := distinctDocumentDates(sub.Documents); len(dates) > 1 {
		result.Warn(models.CodeDateMismatch,
			fmt.Sprintf("Document dates differ: %s", strings.Join(dates, ", ")))
	}

	if patient := firstPatientName(sub.Documents); patient != "" && cc.Eligibility.MemberName != "" {
		similarity := match.NameSimilarity(cc.Eligibility.MemberName, patient)
		if similarity < minNameSimilarity {
			result.Warn(models.CodePatientMismatch, fmt.Sprintf(
				"Patient name mismatch: Policy=%s, Document=%s (similarity: %.2f)",
				cc.Eligibility.MemberName, patient, similarity))
		}
	}

	if !result.HasFailures() {
		result.Pass(models.CheckDocuments)
	}
}

// distinctDocumentDates lists each document's date in first-seen order.
func distinctDocumentDates(docs []models.Document) []string {
	seen := make(map[string]struct{}, len(docs))
	var dates []string
	for _, d := range docs {
		date := d.DocumentDate()
		if date == "" {
			continue
		}
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		dates = append(dates, date)
	}
	return dates
}

func firstPatientName(docs []models.Document) string {
	for _, d := range docs {
		if name := strings.TrimSpace(d.PatientName()); name != "" {
			return name
		}
	}
	return ""
}
