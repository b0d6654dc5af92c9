// Package match holds the small comparison helpers the validation stages share:
// calendar-day arithmetic, doctor registration checks and patient name
// similarity.
package match

import (
	"regexp"
	"strings"
	"time"

	pstrings "opdclaims/pkg/platform/strings"
)

const dayLayout = "2006-01-02"

var registrationPattern = regexp.MustCompile(`^[A-Z]{2,5}/\d{5}/\d{4}$`)

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysSince counts whole calendar days from start to t. It is negative when
// t falls before start.
func DaysSince(start, t time.Time) int {
	return int(Day(t).Sub(Day(start)).Hours() / 24)
}

// AddDays moves t forward by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// FormatDay renders t as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(dayLayout)
}

// ValidRegistration reports whether reg looks like a state medical council
// number, e.g. KA/45678/2015.
func ValidRegistration(reg string) bool {
	return registrationPattern.MatchString(reg)
}

// NameSimilarity is the Jaccard index of the two names' lowercase word sets.
// Identical names score 1 and an empty name scores 0. The result is symmetric.
func NameSimilarity(a, b string) float64 {
	a, b = pstrings.Fold(a), pstrings.Fold(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	left := wordSet(a)
	right := wordSet(b)
	union := len(left)
	shared := 0
	for w := range right {
		if _, ok := left[w]; ok {
			shared++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
