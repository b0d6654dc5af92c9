//go:build integration

package outbox_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "opdclaims/pkg/platform/audit"
	"opdclaims/pkg/platform/audit/consumer"
	"opdclaims/pkg/platform/audit/outbox"
	"opdclaims/pkg/platform/audit/store/postgres"
	"opdclaims/pkg/testutil/containers"
)

// =============================================================================
// Audit Relay Integration Suite
// =============================================================================
//
// Exercises the full audit path: outbox insert, relay to the broker, consumer
// materialization into audit_events.

type RelaySuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	brokers  []string
	store    *postgres.Store
	producer *kgo.Client
	topic    string
	logger   *slog.Logger
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.brokers = containers.GetManager().GetRedpanda(s.T()).Brokers
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	producer, err := outbox.NewClient(s.brokers)
	s.Require().NoError(err)
	s.producer = producer
}

func (s *RelaySuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *RelaySuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "outbox", "audit_events"))
	s.store = postgres.New(s.pg.DB)
	s.topic = "claims.audit.relay-test"
	s.Require().NoError(outbox.EnsureTopic(context.Background(), s.producer, s.topic, 1, 1))
}

func (s *RelaySuite) TestEventsReachTheQueryStore() {
	ctx := context.Background()
	submitted := time.Date(2024, 11, 1, 10, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: submitted,
		ClaimID:   "CLM_0000ABCD",
		Action:    string(audit.EventClaimSubmitted),
		Details:   map[string]any{"member_id": "EMP001"},
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: submitted.Add(time.Second),
		ClaimID:   "CLM_0000ABCD",
		Action:    string(audit.EventDecisionMade),
		Details:   map[string]any{"decision": "APPROVED"},
	}))

	relay, err := outbox.NewRelay(s.pg.DB, s.producer, s.topic, outbox.WithLogger(s.logger))
	s.Require().NoError(err)
	n, err := relay.RelayBatch(ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = relay.RelayBatch(ctx)
	s.Require().NoError(err)
	s.Zero(n, "relayed rows are marked processed")

	c, err := consumer.New(s.brokers, "relay-test", s.topic,
		consumer.NewMaterializer(s.store, s.logger),
		consumer.WithLogger(s.logger),
	)
	s.Require().NoError(err)
	defer c.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = c.Run(runCtx) }()

	s.Eventually(func() bool {
		events, err := s.store.ListByClaim(ctx, "CLM_0000ABCD")
		return err == nil && len(events) == 2
	}, 30*time.Second, 200*time.Millisecond)

	events, err := s.store.ListByClaim(ctx, "CLM_0000ABCD")
	s.Require().NoError(err)
	s.Equal(string(audit.EventClaimSubmitted), events[0].Action)
	s.Equal(audit.CategoryCompliance, events[1].Category)
	s.Equal("APPROVED", events[1].Details["decision"])
}
