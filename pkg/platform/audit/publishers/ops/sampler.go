package ops

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Sampler decides which operational events reach the store. Rates are fixed
// at construction and safe for concurrent use.
type Sampler struct {
	base  float64
	rates map[string]float64
	draw  func() float64
}

// NewSampler keeps events at base, with per-action overrides. Rates are
// clamped to [0,1].
func NewSampler(base float64, overrides map[string]float64) *Sampler {
	rates := make(map[string]float64, len(overrides))
	for action, r := range overrides {
		rates[action] = clampRate(r)
	}
	return &Sampler{
		base:  clampRate(base),
		rates: rates,
		draw:  rand.Float64, //nolint:gosec // sampling needs no crypto rand
	}
}

// Keep reports whether an event with the given action is persisted.
func (s *Sampler) Keep(action string) bool {
	rate, ok := s.rates[action]
	if !ok {
		rate = s.base
	}
	switch {
	case rate >= 1:
		return true
	case rate <= 0:
		return false
	}
	return s.draw() < rate
}

// ParseRates reads "action=rate" pairs separated by commas, for example
// "auth_failed=0.1,members_seeded=0".
func ParseRates(list string) (map[string]float64, error) {
	out := make(map[string]float64)
	for pair := range strings.SplitSeq(list, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		action, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("sample rate %q: want action=rate", pair)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("sample rate for %s: %w", action, err)
		}
		out[strings.TrimSpace(action)] = rate
	}
	return out, nil
}

func clampRate(rate float64) float64 {
	return max(0, min(1, rate))
}
