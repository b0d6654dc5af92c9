// Package necessity holds the medical necessity judge adapters: the Gemini
// client, a circuit breaker guard and a Redis-backed verdict cache.
package necessity

import (
	"context"
	"errors"
	"fmt"
)

// Category is the normalized failure taxonomy for judge calls.
type Category string

const (
	CategoryTimeout     Category = "timeout"
	CategoryBadData     Category = "bad_data"
	CategoryOutage      Category = "outage"
	CategoryRateLimited Category = "rate_limited"
	CategoryAuth        Category = "auth"
	CategoryInternal    Category = "internal"
)

// ErrCircuitOpen is returned while the breaker refuses calls.
var ErrCircuitOpen = errors.New("judge circuit open")

// JudgeError wraps a judge failure with its category.
type JudgeError struct {
	Category   Category
	Message    string
	Underlying error
}

func (e *JudgeError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("necessity judge [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("necessity judge [%s]: %s", e.Category, e.Message)
}

func (e *JudgeError) Unwrap() error {
	return e.Underlying
}

// FailureCategory lets callers label failures without importing this package.
func (e *JudgeError) FailureCategory() string {
	return string(e.Category)
}

func newJudgeError(category Category, message string, underlying error) *JudgeError {
	return &JudgeError{Category: category, Message: message, Underlying: underlying}
}

// CategoryOf extracts the category from err. Context errors are timeouts;
// anything unclassified is internal.
func CategoryOf(err error) Category {
	var je *JudgeError
	if errors.As(err, &je) {
		return je.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	return CategoryInternal
}

// tripsBreaker reports whether a failure says the judge itself is unhealthy.
// Bad payloads and auth problems do not open the circuit.
func tripsBreaker(err error) bool {
	switch CategoryOf(err) {
	case CategoryTimeout, CategoryOutage, CategoryRateLimited:
		return true
	}
	return false
}
