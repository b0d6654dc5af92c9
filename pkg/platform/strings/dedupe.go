// Package strings holds the text normalisation shared by policy loading and
// claim matching.
package strings

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold trims s and applies Unicode case folding, so "ROOT Canal " and
// "root canal" compare equal.
func Fold(s string) string {
	// Casers carry state and are not safe to share across goroutines.
	return cases.Fold().String(strings.TrimSpace(s))
}

// DedupeAndFold folds every element, drops empties and duplicates, and keeps
// first-seen order. Policy term lists rely on that order for tie-breaks.
//
// Example:
//
//	DedupeAndFold([]string{"  Cosmetic ", "obesity", "COSMETIC", ""})
//	// Returns: []string{"cosmetic", "obesity"}
func DedupeAndFold(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		folded := Fold(v)
		if folded == "" {
			continue
		}
		if _, ok := seen[folded]; !ok {
			seen[folded] = struct{}{}
			result = append(result, folded)
		}
	}

	return result
}

// ContainsAny reports whether text contains any of terms as a substring.
// Both sides must already be folded.
func ContainsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// FirstContained returns the first term found in any of texts.
func FirstContained(terms []string, texts ...string) (string, bool) {
	for _, term := range terms {
		for _, text := range texts {
			if strings.Contains(text, term) {
				return term, true
			}
		}
	}
	return "", false
}
