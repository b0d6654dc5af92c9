package models

import (
	"errors"
	"fmt"
)

// NecessityRequest is what the medical necessity judge evaluates.
type NecessityRequest struct {
	Diagnosis string     `json:"diagnosis"`
	Medicines []Medicine `json:"medicines"`
	Tests     []string   `json:"tests"`
}

// Assessment is the judge's verdict.
type Assessment struct {
	IsNecessary bool     `json:"is_necessary"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	Flags       []string `json:"flags"`
}

// Validate rejects verdicts the pipeline cannot use.
func (a Assessment) Validate() error {
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", a.Confidence)
	}
	return nil
}

// NeutralAssessment is substituted whenever the judge cannot be consulted.
func NeutralAssessment() Assessment {
	return Assessment{
		IsNecessary: true,
		Confidence:  0.5,
		Reasoning:   "Unable to validate medical necessity automatically",
		Flags:       []string{"Automatic validation failed"},
	}
}

// Judgment is the outcome of one judge call: either the judge's own
// assessment, or the neutral assessment plus the reason it was used.
type Judgment struct {
	Assessment Assessment
	Cause      error
}

// Assessed wraps a verdict returned by the judge.
func Assessed(a Assessment) Judgment {
	return Judgment{Assessment: a}
}

// Degraded records that the neutral assessment stands in for the judge.
func Degraded(cause error) Judgment {
	if cause == nil {
		cause = errors.New("judge unavailable")
	}
	return Judgment{Assessment: NeutralAssessment(), Cause: cause}
}

func (j Judgment) IsDegraded() bool {
	return j.Cause != nil
}
