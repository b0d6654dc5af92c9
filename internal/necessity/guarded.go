package necessity

import (
	"context"
	"log/slog"

	"opdclaims/internal/claims/models"
	"opdclaims/internal/claims/ports"
	"opdclaims/pkg/platform/circuit"
)

// GuardedJudge stops calling an unhealthy judge. While the breaker is open,
// calls fail fast with ErrCircuitOpen and the pipeline degrades without
// waiting out its timeout.
type GuardedJudge struct {
	next    ports.NecessityJudge
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuardedJudge(next ports.NecessityJudge, breaker *circuit.Breaker, logger *slog.Logger) *GuardedJudge {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuardedJudge{next: next, breaker: breaker, logger: logger}
}

func (g *GuardedJudge) Assess(ctx context.Context, req models.NecessityRequest) (models.Assessment, error) {
	if !g.breaker.Allow() {
		return models.Assessment{}, newJudgeError(CategoryOutage, "skipped", ErrCircuitOpen)
	}

	a, err := g.next.Assess(ctx, req)
	if err != nil {
		if tripsBreaker(err) {
			if _, change := g.breaker.RecordFailure(); change.Opened {
				g.logger.WarnContext(ctx, "necessity judge circuit opened",
					"breaker", g.breaker.Name(),
					"category", CategoryOf(err),
				)
			}
		}
		return models.Assessment{}, err
	}

	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "necessity judge circuit closed", "breaker", g.breaker.Name())
	}
	return a, nil
}
