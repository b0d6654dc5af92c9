package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"opdclaims/internal/claims/ports"
	"opdclaims/internal/necessity"
	"opdclaims/internal/platform/config"
	redisclient "opdclaims/internal/platform/redis"
	"opdclaims/pkg/platform/circuit"
)

// buildJudge assembles Gemini, guarded by a breaker and cached in Redis when
// a client is available. Without an API key every claim degrades to the
// neutral assessment.
func buildJudge(ctx context.Context, cfg config.Necessity, redis *redisclient.Client, log *slog.Logger) (ports.NecessityJudge, error) {
	if cfg.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set, medical necessity will degrade to neutral")
		return necessity.Unconfigured{}, nil
	}

	opts := []necessity.GeminiOption{
		necessity.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		necessity.WithGeminiLogger(log),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, necessity.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, necessity.WithModel(cfg.Model))
	}
	gemini, err := necessity.NewGeminiClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("build gemini client: %w", err)
	}

	breaker := circuit.New("necessity-judge",
		circuit.WithFailureThreshold(cfg.BreakerFailures),
		circuit.WithCooldown(cfg.BreakerCooldown),
	)
	var judge ports.NecessityJudge = necessity.NewGuardedJudge(gemini, breaker, log)

	if redis == nil {
		return judge, nil
	}
	cached, err := necessity.NewCachedJudge(judge, redis.Client,
		necessity.WithTTL(cfg.CacheTTL),
		necessity.WithCacheLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("build judge cache: %w", err)
	}
	return cached, nil
}
