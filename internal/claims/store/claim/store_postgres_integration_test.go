//go:build integration

package claim_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"opdclaims/internal/claims/store/claim"
	"opdclaims/internal/claims/store/member"
	"opdclaims/internal/platform/database"
	"opdclaims/pkg/testutil/containers"
)

func TestPostgresClaimStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, &ClaimStoreSuite{newBackend: func(t *testing.T) backend {
		pg := containers.GetManager().GetPostgres(t)
		// Truncate in dependency order
		if err := pg.TruncateTables(context.Background(), "decisions", "claim_documents", "claims", "members"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return backend{
			claims:  claim.NewSQL(pg.DB, database.Postgres),
			members: member.NewSQL(pg.DB, database.Postgres),
		}
	}})
}
