// Package service orchestrates claim adjudication: it persists the
// submission, runs the validation pipeline and decision engine, and commits
// the decision together with the member's annual limit update.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"opdclaims/internal/claims/metrics"
	"opdclaims/internal/claims/models"
	"opdclaims/internal/claims/policy"
	"opdclaims/internal/claims/ports"
	txcontext "opdclaims/pkg/platform/tx"
	"opdclaims/pkg/requestcontext"
)

// ClaimStore persists claims, their documents and decisions.
type ClaimStore interface {
	CreateClaim(ctx context.Context, rec *models.ClaimRecord, docs []models.Document) error
	GetClaim(ctx context.Context, claimID string) (*models.ClaimRecord, error)
	UpdateClaim(ctx context.Context, rec *models.ClaimRecord) error
	ListClaims(ctx context.Context, filter models.ClaimFilter) ([]*models.ClaimRecord, error)
	Documents(ctx context.Context, claimID string) ([]models.StoredDocument, error)
	SaveDecision(ctx context.Context, rec *models.DecisionRecord) error
	Decision(ctx context.Context, claimID string) (*models.DecisionRecord, error)
}

// MemberStore persists members and their annual limit usage.
type MemberStore interface {
	FindMember(ctx context.Context, memberID string) (*models.Member, error)
	ListMembers(ctx context.Context) ([]*models.Member, error)
	CreateMember(ctx context.Context, m *models.Member) error
	// AddToAnnualLimitUsed atomically adds amount and returns the new total.
	AddToAnnualLimitUsed(ctx context.Context, memberID string, amount float64) (float64, error)
	Seed(ctx context.Context, members []*models.Member) (int, error)
}

// TxRunner runs fn so that every store call made with the ctx it receives
// commits or rolls back together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Validator runs the validation pipeline.
type Validator interface {
	Validate(ctx context.Context, sub models.Submission) (*models.ClaimContext, *models.ValidationResult, error)
}

// Decider turns a validation result into a decision.
type Decider interface {
	Decide(cc *models.ClaimContext, result *models.ValidationResult) models.DecisionOutcome
}

type Service struct {
	claims    ClaimStore
	members   MemberStore
	validator Validator
	decider   Decider
	terms     *policy.Terms

	tx      TxRunner
	audit   ports.AuditPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Service)

// WithTxRunner sets the transaction boundary. Without one, the service uses
// a per-member lock suitable for the in-memory stores.
func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithAuditPublisher(p ports.AuditPublisher) Option {
	return func(s *Service) {
		s.audit = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithClock overrides the time source used for claim and decision
// timestamps. By default the request-scoped time is used.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(claims ClaimStore, members MemberStore, validator Validator, decider Decider, terms *policy.Terms, opts ...Option) (*Service, error) {
	if claims == nil {
		return nil, errors.New("claim store is required")
	}
	if members == nil {
		return nil, errors.New("member store is required")
	}
	if validator == nil {
		return nil, errors.New("validator is required")
	}
	if decider == nil {
		return nil, errors.New("decider is required")
	}
	if terms == nil {
		return nil, errors.New("policy terms are required")
	}

	s := &Service{
		claims:    claims,
		members:   members,
		validator: validator,
		decider:   decider,
		terms:     terms,
		logger:    slog.Default(),
		tracer:    otel.Tracer("opdclaims/internal/claims/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewMemberLockRunner(0)
	}
	if s.audit == nil {
		s.audit = nopPublisher{}
	}
	return s, nil
}

// timeNow is the request time unless a clock was injected.
func (s *Service) timeNow(ctx context.Context) time.Time {
	if s.now != nil {
		return s.now()
	}
	return requestcontext.Now(ctx)
}

var _ TxRunner = (*txcontext.Runner)(nil)
