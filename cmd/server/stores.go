package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"opdclaims/internal/claims/ports"
	"opdclaims/internal/claims/service"
	"opdclaims/internal/claims/store/claim"
	"opdclaims/internal/claims/store/member"
	"opdclaims/internal/platform/config"
	"opdclaims/internal/platform/database"
	txcontext "opdclaims/pkg/platform/tx"
)

const txTimeout = 5 * time.Second

// claimBackend is both the persistence and the fraud history of claims.
type claimBackend interface {
	service.ClaimStore
	ports.ClaimHistory
}

// storeSet holds the claim and member stores of one backend.
type storeSet struct {
	kind    string
	db      *sql.DB
	dialect database.Dialect
	claims  claimBackend
	members service.MemberStore
	tx      service.TxRunner
}

func (s *storeSet) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// openStores selects SQL stores when a database URL is configured and the
// in-memory stores otherwise.
func openStores(ctx context.Context, cfg config.Database, log *slog.Logger) (*storeSet, error) {
	if cfg.URL == "" {
		log.Warn("DATABASE_URL not set, claims are kept in memory")
		return &storeSet{
			kind:    "memory",
			claims:  claim.NewInMemory(),
			members: member.NewInMemory(),
			tx:      service.NewMemberLockRunner(0),
		}, nil
	}

	dialect, err := database.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := database.OpenAndMigrate(ctx, database.Config{
		Dialect:      dialect,
		URL:          cfg.URL,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &storeSet{
		kind:    dialect.String(),
		db:      db,
		dialect: dialect,
		claims:  claim.NewSQL(db, dialect),
		members: member.NewSQL(db, dialect),
		tx:      txcontext.NewRunner(db, txTimeout),
	}, nil
}
