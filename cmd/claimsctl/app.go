package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"opdclaims/internal/claims/decision"
	"opdclaims/internal/claims/policy"
	"opdclaims/internal/claims/ports"
	"opdclaims/internal/claims/service"
	"opdclaims/internal/claims/store/claim"
	"opdclaims/internal/claims/store/member"
	"opdclaims/internal/claims/validation"
	"opdclaims/internal/necessity"
	"opdclaims/internal/platform/config"
	"opdclaims/internal/platform/database"
	"opdclaims/internal/platform/logger"
	"opdclaims/pkg/platform/audit/publisher"
	"opdclaims/pkg/platform/audit/store/memory"
	txcontext "opdclaims/pkg/platform/tx"
)

// app is one service instance over the SQLite ledger.
type app struct {
	cfg    *config.Config
	db     *sql.DB
	svc    *service.Service
	audit  *publisher.Publisher
	logger *slog.Logger
}

func (a *app) Close() {
	_ = a.audit.Close()
	_ = a.db.Close()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// openApp logs to logOut so command output stays machine readable.
func openApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(logOut, cfg.Log.Level, "text")

	terms, err := policy.LoadOrDefault(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	db, err := database.OpenAndMigrate(ctx, database.Config{Dialect: database.SQLite, URL: globalFlags.ledger})
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	claims := claim.NewSQL(db, database.SQLite)
	members := member.NewSQL(db, database.SQLite)

	var judge ports.NecessityJudge = necessity.Unconfigured{}
	if cfg.Necessity.APIKey != "" {
		opts := []necessity.GeminiOption{necessity.WithGeminiLogger(log)}
		if cfg.Necessity.BaseURL != "" {
			opts = append(opts, necessity.WithBaseURL(cfg.Necessity.BaseURL))
		}
		if cfg.Necessity.Model != "" {
			opts = append(opts, necessity.WithModel(cfg.Necessity.Model))
		}
		if judge, err = necessity.NewGeminiClient(ctx, cfg.Necessity.APIKey, opts...); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("build gemini client: %w", err)
		}
	}

	pipeline, err := validation.New(terms, members, claims, judge,
		validation.WithLogger(log),
		validation.WithJudgeTimeout(cfg.Necessity.Timeout),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	engine, err := decision.New(terms, decision.WithLogger(log))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	audit := publisher.NewPublisher(memory.NewInMemoryStore(), publisher.WithLogger(log))
	svc, err := service.New(claims, members, pipeline, engine, terms,
		service.WithTxRunner(txcontext.NewRunner(db, 5*time.Second)),
		service.WithAuditPublisher(audit),
		service.WithLogger(log),
	)
	if err != nil {
		_ = audit.Close()
		_ = db.Close()
		return nil, err
	}
	return &app{cfg: cfg, db: db, svc: svc, audit: audit, logger: log}, nil
}
