package decision

import "opdclaims/internal/claims/models"

const (
	warningPenalty       = 0.05
	missingOCRConfidence = 0.8
)

// Confidence scores how much the automatic decision can be trusted. Each
// warning costs 0.05; the necessity score and the mean OCR confidence are
// then averaged in when present. The result is clamped to [0,1].
func Confidence(cc *models.ClaimContext, result *models.ValidationResult) float64 {
	score := 1.0 - warningPenalty*float64(len(result.Warnings))

	if n := cc.Necessity.Score; n != nil {
		score = (score + *n) / 2
	}

	if ocr, ok := meanOCRConfidence(cc.Submission.Documents); ok {
		score = (score + ocr) / 2
	}

	return clamp(score, 0, 1)
}

// meanOCRConfidence averages OCR confidence over all documents, counting a
// missing value as 0.8. It reports false when no document carries one.
func meanOCRConfidence(docs []models.Document) (float64, bool) {
	var sum float64
	var any bool
	for _, d := range docs {
		if d.OCRConfidence == nil {
			sum += missingOCRConfidence
			continue
		}
		any = true
		sum += *d.OCRConfidence
	}
	if !any {
		return 0, false
	}
	return sum / float64(len(docs)), true
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
