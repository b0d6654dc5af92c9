package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"opdclaims/internal/platform/config"
	"opdclaims/internal/platform/database"
	audit "opdclaims/pkg/platform/audit"
	"opdclaims/pkg/platform/audit/consumer"
	"opdclaims/pkg/platform/audit/outbox"
	"opdclaims/pkg/platform/audit/publishers"
	"opdclaims/pkg/platform/audit/publishers/compliance"
	"opdclaims/pkg/platform/audit/publishers/ops"
	"opdclaims/pkg/platform/audit/store/memory"
	"opdclaims/pkg/platform/audit/store/postgres"
	"opdclaims/pkg/platform/audit/worker"
)

// auditStack is the event router plus the goroutines that move events from
// the outbox to the query store.
type auditStack struct {
	kind       string
	emitter    *publishers.Router
	background []func(ctx context.Context) error
	closers    []func()
}

func (a *auditStack) Close() {
	for _, c := range a.closers {
		c()
	}
}

// buildAudit writes events to the Postgres outbox when claims live in
// Postgres, and relays them through Kafka when brokers are configured.
// Other backends keep events in memory.
func buildAudit(ctx context.Context, cfg config.Kafka, sampling config.Audit, stores *storeSet, log *slog.Logger) (*auditStack, error) {
	overrides, err := ops.ParseRates(sampling.OpsSampleRates)
	if err != nil {
		return nil, fmt.Errorf("AUDIT_OPS_SAMPLE_RATES: %w", err)
	}

	var store audit.Store = memory.NewInMemoryStore()
	kind := "memory"

	var pg *postgres.Store
	if stores.db != nil && stores.dialect == database.Postgres {
		pg = postgres.New(stores.db)
		store, kind = pg, "outbox"
	}

	stack := &auditStack{
		kind: kind,
		emitter: publishers.NewRouter(
			compliance.New(store, compliance.WithLogger(log), compliance.WithMetrics(compliance.NewMetrics(nil))),
			ops.New(store,
				ops.WithSampler(ops.NewSampler(sampling.OpsSampleRate, overrides)),
				ops.WithLogger(log),
				ops.WithMetrics(ops.NewMetrics(nil)),
			),
		),
	}

	if pg == nil || len(cfg.Brokers) == 0 {
		if pg != nil {
			log.Warn("KAFKA_BROKERS not set, audit outbox rows will not be relayed")
		}
		return stack, nil
	}

	producer, err := outbox.NewClient(cfg.Brokers, kgo.ProducerLinger(0))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	stack.closers = append(stack.closers, producer.Close)

	if err := outbox.EnsureTopic(ctx, producer, cfg.AuditTopic, 1, 1); err != nil {
		stack.Close()
		return nil, err
	}

	relay, err := outbox.NewRelay(stores.db, producer, cfg.AuditTopic, outbox.WithLogger(log))
	if err != nil {
		stack.Close()
		return nil, fmt.Errorf("build outbox relay: %w", err)
	}
	stack.background = append(stack.background, worker.NewWorker(relay, cfg.PollInterval, log).Run)

	c, err := consumer.New(cfg.Brokers, cfg.ConsumerGroup, cfg.AuditTopic,
		consumer.NewMaterializer(pg, log),
		consumer.WithLogger(log),
	)
	if err != nil {
		stack.Close()
		return nil, err
	}
	stack.closers = append(stack.closers, c.Close)
	stack.background = append(stack.background, c.Run)
	stack.kind = "outbox+kafka"
	return stack, nil
}
