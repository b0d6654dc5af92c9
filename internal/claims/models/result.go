package models

import "strings"

// Issue is one failure or warning. Optional fields are only set by the
// stages that produce them.
type Issue struct {
	Code         Code     `json:"code"`
	Message      string   `json:"message"`
	EligibleFrom string   `json:"eligible_from,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`
	Flags        []string `json:"flags,omitempty"`
}

// ValidationResult accumulates stage outcomes in execution order.
//
// Invariants:
//   - Passed is in execution order
//   - any entry in Failed means the claim cannot be approved as submitted
//   - the pipeline is the only writer; the decision engine only reads
type ValidationResult struct {
	Passed   []Check `json:"passed"`
	Failed   []Issue `json:"failed"`
	Warnings []Issue `json:"warnings"`
}

func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Passed:   []Check{},
		Failed:   []Issue{},
		Warnings: []Issue{},
	}
}

func (r *ValidationResult) Pass(c Check) {
	r.Passed = append(r.Passed, c)
}

// Fail records a failure. The returned pointer is only valid until the next
// Fail call.
func (r *ValidationResult) Fail(code Code, message string) *Issue {
	r.Failed = append(r.Failed, Issue{Code: code, Message: message})
	return &r.Failed[len(r.Failed)-1]
}

// Warn records a warning; see Fail for the pointer lifetime.
func (r *ValidationResult) Warn(code Code, message string) *Issue {
	r.Warnings = append(r.Warnings, Issue{Code: code, Message: message})
	return &r.Warnings[len(r.Warnings)-1]
}

func (r *ValidationResult) HasFailures() bool {
	return len(r.Failed) > 0
}

// FailureCodes returns failure codes in the order they were recorded.
func (r *ValidationResult) FailureCodes() []Code {
	return codesOf(r.Failed)
}

// WarningCodes returns warning codes in the order they were recorded.
func (r *ValidationResult) WarningCodes() []Code {
	return codesOf(r.Warnings)
}

// Warning returns the first warning with code, if any.
func (r *ValidationResult) Warning(code Code) (Issue, bool) {
	for _, w := range r.Warnings {
		if w.Code == code {
			return w, true
		}
	}
	return Issue{}, false
}

// Failure returns the first failure with code, if any.
func (r *ValidationResult) Failure(code Code) (Issue, bool) {
	for _, f := range r.Failed {
		if f.Code == code {
			return f, true
		}
	}
	return Issue{}, false
}

// Summary is a compact single-line form used in logs.
func (r *ValidationResult) Summary() string {
	var b strings.Builder
	b.WriteString("passed=")
	for i, c := range r.Passed {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(c))
	}
	writeCodes(&b, " failed=", r.Failed)
	writeCodes(&b, " warnings=", r.Warnings)
	return b.String()
}

func writeCodes(b *strings.Builder, label string, issues []Issue) {
	b.WriteString(label)
	for i, is := range issues {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(is.Code))
	}
}

func codesOf(issues []Issue) []Code {
	codes := make([]Code, 0, len(issues))
	for _, is := range issues {
		codes = append(codes, is.Code)
	}
	return codes
}
