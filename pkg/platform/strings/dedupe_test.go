package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndFold(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "folds and trims",
			input:    []string{"  Apollo Hospitals ", "FORTIS HEALTHCARE"},
			expected: []string{"apollo hospitals", "fortis healthcare"},
		},
		{
			name:     "case-insensitive duplicates keep first position",
			input:    []string{"cosmetic", "Obesity", "COSMETIC", "infertility", "obesity"},
			expected: []string{"cosmetic", "obesity", "infertility"},
		},
		{
			name:     "drops blank entries",
			input:    []string{"", "   ", "dental"},
			expected: []string{"dental"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndFold(tt.input))
		})
	}
}

func TestFirstContainedHonoursTermOrder(t *testing.T) {
	terms := []string{"obesity", "cosmetic"}

	term, ok := FirstContained(terms, "cosmetic rhinoplasty", "obesity management")
	assert.True(t, ok)
	assert.Equal(t, "obesity", term, "term order wins over text order")

	_, ok = FirstContained(terms, "viral fever", "")
	assert.False(t, ok)
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("chest x-ray pa view", []string{"scan", "x-ray"}))
	assert.False(t, ContainsAny("consultation", []string{"scan", "x-ray"}))
	assert.False(t, ContainsAny("anything", nil))
}
