package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"opdclaims/internal/claims/decision"
	"opdclaims/internal/claims/handler"
	claimmetrics "opdclaims/internal/claims/metrics"
	"opdclaims/internal/claims/policy"
	"opdclaims/internal/claims/service"
	"opdclaims/internal/claims/validation"
	"opdclaims/internal/platform/config"
	"opdclaims/internal/platform/httpserver"
	"opdclaims/internal/platform/jwt"
	"opdclaims/internal/platform/logger"
	platformmetrics "opdclaims/internal/platform/metrics"
	redisclient "opdclaims/internal/platform/redis"
	authmw "opdclaims/pkg/platform/middleware/auth"
	"opdclaims/pkg/platform/middleware/metadata"
	"opdclaims/pkg/platform/middleware/request"
	"opdclaims/pkg/platform/middleware/requesttime"
)

// main wires configuration, storage, the necessity judge and the audit
// pipeline, then serves the claims API until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	terms, err := policy.LoadOrDefault(cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	stores, err := openStores(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	redis, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redis != nil {
		defer redis.Close()
	}

	judge, err := buildJudge(ctx, cfg.Necessity, redis, log)
	if err != nil {
		return err
	}

	claimMetrics := claimmetrics.New()
	pipeline, err := validation.New(terms, stores.members, stores.claims, judge,
		validation.WithLogger(log),
		validation.WithMetrics(claimMetrics),
		validation.WithJudgeTimeout(cfg.Necessity.Timeout),
	)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	engine, err := decision.New(terms, decision.WithLogger(log))
	if err != nil {
		return fmt.Errorf("build decision engine: %w", err)
	}

	audit, err := buildAudit(ctx, cfg.Kafka, cfg.Audit, stores, log)
	if err != nil {
		return err
	}
	defer audit.Close()

	svc, err := service.New(stores.claims, stores.members, pipeline, engine, terms,
		service.WithTxRunner(stores.tx),
		service.WithAuditPublisher(audit.emitter),
		service.WithLogger(log),
		service.WithMetrics(claimMetrics),
	)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	if cfg.Server.SeedMembers {
		added, err := svc.SeedMembers(ctx)
		if err != nil {
			return fmt.Errorf("seed members: %w", err)
		}
		log.Info("members seeded", "added", added)
	}

	router, err := newRouter(cfg.Server, svc, audit, stores, redis, log)
	if err != nil {
		return err
	}

	policyID, hash := svc.Policy()
	log.Info("starting opdclaims",
		"addr", cfg.Server.Addr,
		"store", stores.kind,
		"policy_id", policyID,
		"policy_hash", hash,
		"auth", cfg.Server.AuthEnabled,
		"necessity_cache", redis != nil,
		"audit", audit.kind,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, httpserver.New(cfg.Server.Addr, router), log)
	})
	for _, bg := range audit.background {
		g.Go(func() error {
			if err := bg(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func newRouter(cfg config.Server, svc *service.Service, audit *auditStack, stores *storeSet, redis *redisclient.Client, log *slog.Logger) (chi.Router, error) {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(platformmetrics.New(nil).Middleware)

	checks := map[string]handler.Check{}
	if stores.db != nil {
		checks["database"] = stores.db.PingContext
	}
	if redis != nil {
		checks["redis"] = redis.Health
	}
	r.Get("/health", handler.Health(checks))
	r.Handle("/metrics", promhttp.Handler())

	claims := handler.New(svc, log)
	if !cfg.AuthEnabled {
		claims.Register(r)
		return r, nil
	}

	tokens, err := jwt.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	if err != nil {
		return nil, fmt.Errorf("build token validator: %w", err)
	}
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(tokens, audit.emitter, log))
		claims.Register(r)
	})
	return r, nil
}
