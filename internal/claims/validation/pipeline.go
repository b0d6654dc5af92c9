// Package validation runs the six policy checks a claim goes through before a
// decision is made. Checks record business outcomes in a ValidationResult;
// only infrastructure faults are returned as errors.
package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"opdclaims/internal/claims/metrics"
	"opdclaims/internal/claims/models"
	"opdclaims/internal/claims/policy"
	"opdclaims/internal/claims/ports"
)

const (
	defaultJudgeTimeout   = 10 * time.Second
	defaultHistoryTimeout = 5 * time.Second
)

// Stage is one check of the pipeline.
type Stage int

const (
	StageEligibility Stage = iota
	StageDocuments
	StageCoverage
	StageLimits
	StageMedicalNecessity
	StageFraud
)

// stageOrder is the execution order. Every stage before
// StageMedicalNecessity ends the run when it leaves a failure behind.
var stageOrder = [...]Stage{
	StageEligibility,
	StageDocuments,
	StageCoverage,
	StageLimits,
	StageMedicalNecessity,
	StageFraud,
}

func (s Stage) String() string {
	switch s {
	case StageEligibility:
		return "eligibility"
	case StageDocuments:
		return "documents"
	case StageCoverage:
		return "coverage"
	case StageLimits:
		return "limits"
	case StageMedicalNecessity:
		return "medical_necessity"
	case StageFraud:
		return "fraud"
	}
	return "unknown"
}

// gating stages stop the run when a failure has been recorded.
func (s Stage) gating() bool {
	return s < StageMedicalNecessity
}

// Pipeline validates claims against one immutable set of policy terms. It is
// safe for concurrent use; each Validate call owns its context and result.
type Pipeline struct {
	terms   *policy.Terms
	members ports.MemberLookup
	history ports.ClaimHistory
	judge   ports.NecessityJudge

	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	judgeTimeout   time.Duration
	historyTimeout time.Duration
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithJudgeTimeout bounds each medical necessity judge call.
func WithJudgeTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.judgeTimeout = d
		}
	}
}

// WithHistoryTimeout bounds the fraud stage's history lookups.
func WithHistoryTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.historyTimeout = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

func New(terms *policy.Terms, members ports.MemberLookup, history ports.ClaimHistory, judge ports.NecessityJudge, opts ...Option) (*Pipeline, error) {
	if terms == nil {
		return nil, errors.New("policy terms are required")
	}
	if members == nil {
		return nil, errors.New("member lookup is required")
	}
	if history == nil {
		return nil, errors.New("claim history is required")
	}
	if judge == nil {
		return nil, errors.New("necessity judge is required")
	}

	p := &Pipeline{
		terms:          terms,
		members:        members,
		history:        history,
		judge:          judge,
		logger:         slog.Default(),
		tracer:         otel.Tracer("opdclaims/internal/claims/validation"),
		judgeTimeout:   defaultJudgeTimeout,
		historyTimeout: defaultHistoryTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Validate runs the checks in order and returns the enriched claim context
// with the accumulated result. The error is non-nil only for infrastructure
// faults; the context and result are returned as far as they got.
func (p *Pipeline) Validate(ctx context.Context, sub models.Submission) (*models.ClaimContext, *models.ValidationResult, error) {
	ctx, span := p.tracer.Start(ctx, "validation.Validate", trace.WithAttributes(
		attribute.String("claim.id", sub.ClaimID),
		attribute.String("member.id", sub.MemberID),
		attribute.Int("documents", len(sub.Documents)),
	))
	defer span.End()

	cc := models.NewClaimContext(sub)
	result := models.NewValidationResult()

	for _, stage := range stageOrder {
		if err := p.runStage(ctx, stage, cc, result); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return cc, result, fmt.Errorf("%s check: %w", stage, err)
		}
		if stage.gating() && result.HasFailures() {
			break
		}
	}

	p.recordIssues(result)
	span.SetAttributes(
		attribute.Int("validation.failed", len(result.Failed)),
		attribute.Int("validation.warnings", len(result.Warnings)),
	)
	p.logger.DebugContext(ctx, "claim validated",
		"claim_id", sub.ClaimID,
		"result", result.Summary(),
	)
	return cc, result, nil
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, cc *models.ClaimContext, result *models.ValidationResult) error {
	ctx, span := p.tracer.Start(ctx, "validation."+stage.String())
	defer span.End()
	start := time.Now()
	defer func() {
		p.metrics.ObserveStage(stage.String(), time.Since(start))
	}()

	var err error
	switch stage {
	case StageEligibility:
		err = p.checkEligibility(ctx, cc, result)
	case StageDocuments:
		p.checkDocuments(cc, result)
	case StageCoverage:
		p.checkCoverage(cc, result)
	case StageLimits:
		p.checkLimits(cc, result)
	case StageMedicalNecessity:
		p.checkMedicalNecessity(ctx, cc, result)
	case StageFraud:
		err = p.checkFraud(ctx, cc, result)
	default:
		err = fmt.Errorf("unknown stage %d", stage)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}

	p.logger.DebugContext(ctx, "validation stage finished",
		"claim_id", cc.Submission.ClaimID,
		"stage", stage.String(),
		"failed", len(result.Failed),
		"warnings", len(result.Warnings),
	)
	return err
}

func (p *Pipeline) recordIssues(result *models.ValidationResult) {
	for _, f := range result.Failed {
		p.metrics.IncIssue(string(f.Code), "failed")
	}
	for _, w := range result.Warnings {
		p.metrics.IncIssue(string(w.Code), "warning")
	}
}

// rupees renders an amount the way policy messages quote it: no trailing
// zeros, no grouping.
func rupees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// title upper-cases the first letter of each word. Casers are not safe for
// concurrent use, so one is made per call.
func title(s string) string {
	return cases.Title(language.Und).String(s)
}
