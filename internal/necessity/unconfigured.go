package necessity

import (
	"context"

	"opdclaims/internal/claims/models"
)

// Unconfigured stands in when no judge endpoint is configured. Every call
// fails as an outage, so claims adjudicate on the neutral assessment.
type Unconfigured struct{}

func (Unconfigured) Assess(context.Context, models.NecessityRequest) (models.Assessment, error) {
	return models.Assessment{}, newJudgeError(CategoryOutage, "no necessity judge configured", nil)
}
