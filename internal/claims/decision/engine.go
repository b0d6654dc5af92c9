// Package decision turns a validation result into a financial decision.
package decision

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"opdclaims/internal/claims/models"
	"opdclaims/internal/claims/policy"
)

const (
	highValueThreshold = 25000.0
	minConfidence      = 0.7
	maxWarnings        = 3
	partialRatio       = 0.9
)

const (
	notesRejected     = "Please review rejection reasons. You may resubmit with corrections if applicable."
	nextStepsRejected = "Contact support at support@plum.com if you believe this decision is incorrect or need clarification"
	notesReview       = "Your claim has been escalated to our review team for detailed evaluation"
	nextStepsReview   = "You will be contacted within 48 hours. Additional information may be requested."
	notesPartial      = "Partial approval due to policy limits or exclusions. See reasoning for details."
	nextStepsPartial  = "Approved amount will be credited. The rejected portion cannot be claimed."
	notesClean        = "No issues found"
	nextStepsApproved = "Amount will be credited to registered bank account within 3-5 business days"
)

// approvalChecklist opens every approval's reasoning.
var approvalChecklist = []string{
	"✓ All required documents validated",
	"✓ Treatment covered under policy",
	"✓ Within applicable limits",
	"✓ Medical necessity established",
}

// Engine decides claims under one set of policy terms. Decide makes no
// external calls and is safe for concurrent use.
type Engine struct {
	terms  *policy.Terms
	logger *slog.Logger
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func New(terms *policy.Terms, opts ...Option) (*Engine, error) {
	if terms == nil {
		return nil, errors.New("policy terms are required")
	}
	e := &Engine{terms: terms, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Decide selects the outcome for a validated claim. It records the settlement
// amounts on cc when an amount is computed.
//
// Rule priority (first match wins):
//  1. Any failure rejects
//  2. High value, low confidence, fraud or many warnings need a human
//  3. Less than 90% payable is a partial approval
//  4. Otherwise approved
func (e *Engine) Decide(cc *models.ClaimContext, result *models.ValidationResult) models.DecisionOutcome {
	outcome := e.decide(cc, result)
	e.logger.Debug("claim decided",
		"claim_id", cc.Submission.ClaimID,
		"decision", outcome.Decision,
		"approved_amount", outcome.ApprovedAmount,
		"confidence", outcome.ConfidenceScore,
	)
	return outcome
}

func (e *Engine) decide(cc *models.ClaimContext, result *models.ValidationResult) models.DecisionOutcome {
	confidence := Confidence(cc, result)
	total := claimedTotal(cc)

	// Rule 1: failures reject
	if result.HasFailures() {
		return rejected(total, confidence, result)
	}

	// Rule 2: manual review
	if flags := reviewFlags(cc, result, total, confidence); len(flags) > 0 {
		return manualReview(confidence, flags)
	}

	approved := e.settle(cc, total)
	deductions := deductionsOf(cc.Settlement)

	// Rule 3: partial approval
	if approved < total*partialRatio {
		return partial(total, approved, confidence, deductions, result)
	}

	// Rule 4: approval
	return approvedOutcome(approved, confidence, deductions, result)
}

// settle computes the payable amount and writes the settlement facts.
func (e *Engine) settle(cc *models.ClaimContext, total float64) float64 {
	amount := total
	if capped := cc.Limits.CappedAmount; capped != nil {
		amount = math.Min(amount, *capped)
	}

	terms := cc.Coverage.Terms
	var s models.SettlementFacts

	s.CopayAmount = amount * terms.CopayPercentage / 100
	amount -= s.CopayAmount

	if e.terms.IsNetworkHospital(cc.HospitalName()) {
		s.IsNetwork = true
		s.NetworkDiscount = amount * terms.NetworkDiscount / 100
		amount -= s.NetworkDiscount
	}

	cc.Settlement = s
	return roundCents(amount)
}

// reviewFlags lists why a claim needs a human. An empty list means it does
// not. A fraud referral with no other trigger still reviews, carrying only
// the fraud flags.
func reviewFlags(cc *models.ClaimContext, result *models.ValidationResult, total, confidence float64) []string {
	triggered := cc.Fraud.RequiresManualReview
	flags := []string{}

	if total > highValueThreshold {
		flags = append(flags, "High value claim (>₹25,000)")
	}
	if confidence < minConfidence {
		flags = append(flags, fmt.Sprintf("Low confidence score (%.2f)", confidence))
	}
	if n := len(result.Warnings); n >= maxWarnings {
		flags = append(flags, fmt.Sprintf("Multiple warnings (%d)", n))
	}
	if len(flags) == 0 && !triggered {
		return nil
	}

	for _, w := range result.Warnings {
		if w.Code == models.CodeFraudIndicators {
			flags = append(flags, w.Flags...)
		}
	}
	return flags
}

func rejected(total, confidence float64, result *models.ValidationResult) models.DecisionOutcome {
	reasoning := make([]string, 0, len(result.Failed))
	for _, f := range result.Failed {
		reasoning = append(reasoning, "✗ "+f.Message)
	}
	return models.DecisionOutcome{
		Decision:         models.DecisionRejected,
		ApprovedAmount:   0,
		RejectedAmount:   total,
		RejectionReasons: result.FailureCodes(),
		ConfidenceScore:  confidence,
		Reasoning:        reasoning,
		Notes:            notesRejected,
		NextSteps:        nextStepsRejected,
		Flags:            []string{},
		Deductions:       map[string]float64{},
	}
}

func manualReview(confidence float64, flags []string) models.DecisionOutcome {
	reasoning := make([]string, 0, len(flags)+1)
	reasoning = append(reasoning, "Claim requires human review due to:")
	for _, f := range flags {
		reasoning = append(reasoning, "• "+f)
	}
	return models.DecisionOutcome{
		Decision:         models.DecisionManualReview,
		RejectionReasons: []models.Code{},
		ConfidenceScore:  confidence,
		Reasoning:        reasoning,
		Notes:            notesReview,
		NextSteps:        nextStepsReview,
		Flags:            flags,
		Deductions:       map[string]float64{},
	}
}

func partial(total, approved, confidence float64, deductions map[string]float64, result *models.ValidationResult) models.DecisionOutcome {
	reasoning := make([]string, 0, len(result.Warnings)+1)
	reasoning = append(reasoning, fmt.Sprintf("Approved ₹%.2f out of ₹%.2f claimed", approved, total))
	for _, w := range result.Warnings {
		reasoning = append(reasoning, "⚠ "+w.Message)
	}
	return models.DecisionOutcome{
		Decision:         models.DecisionPartial,
		ApprovedAmount:   approved,
		RejectedAmount:   total - approved,
		RejectionReasons: result.WarningCodes(),
		ConfidenceScore:  confidence,
		Reasoning:        reasoning,
		Notes:            notesPartial,
		NextSteps:        nextStepsPartial,
		Flags:            []string{},
		Deductions:       deductions,
	}
}

func approvedOutcome(approved, confidence float64, deductions map[string]float64, result *models.ValidationResult) models.DecisionOutcome {
	reasoning := make([]string, 0, len(approvalChecklist)+len(result.Passed))
	reasoning = append(reasoning, approvalChecklist...)
	caser := cases.Title(language.Und)
	for _, check := range result.Passed {
		reasoning = append(reasoning, "✓ "+caser.String(strings.ReplaceAll(string(check), "_", " ")))
	}

	notes := notesClean
	if len(result.Warnings) > 0 {
		messages := make([]string, 0, len(result.Warnings))
		for _, w := range result.Warnings {
			messages = append(messages, w.Message)
		}
		notes = strings.Join(messages, "; ")
	}

	return models.DecisionOutcome{
		Decision:         models.DecisionApproved,
		ApprovedAmount:   approved,
		RejectedAmount:   0,
		RejectionReasons: []models.Code{},
		ConfidenceScore:  confidence,
		Reasoning:        reasoning,
		Notes:            notes,
		NextSteps:        nextStepsApproved,
		Flags:            []string{},
		Deductions:       deductions,
	}
}

func deductionsOf(s models.SettlementFacts) map[string]float64 {
	d := map[string]float64{}
	if s.CopayAmount != 0 {
		d["copay"] = s.CopayAmount
	}
	if s.NetworkDiscount != 0 {
		d["network_discount"] = s.NetworkDiscount
	}
	return d
}

// claimedTotal is the total the limit stage recorded, or the bill total when
// the run stopped before limits.
func claimedTotal(cc *models.ClaimContext) float64 {
	if cc.Limits.TotalAmount > 0 {
		return cc.Limits.TotalAmount
	}
	return cc.Submission.Bill().Total()
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
