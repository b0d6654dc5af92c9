package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"opdclaims/internal/claims/models"
	dErrors "opdclaims/pkg/domain-errors"
	"opdclaims/pkg/platform/audit"
	"opdclaims/pkg/requestcontext"
)

// Adjudication summarises one processed claim.
type Adjudication struct {
	ClaimID         string             `json:"claim_id"`
	Status          models.ClaimStatus `json:"status"`
	ApprovedAmount  float64            `json:"approved_amount"`
	ConfidenceScore float64            `json:"confidence_score"`
	Message         string             `json:"message"`

	// Outcome and Result are kept for callers that render the full decision.
	Outcome models.DecisionOutcome   `json:"-"`
	Result  *models.ValidationResult `json:"-"`
}

// Adjudicate processes a new submission end to end. The submission's ClaimID
// is assigned here. An unknown member is reported as CodeNotFound before any
// claim is stored; every other business outcome is carried by the decision.
func (s *Service) Adjudicate(ctx context.Context, sub models.Submission) (*Adjudication, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "service.Adjudicate", trace.WithAttributes(
		attribute.String("member.id", sub.MemberID),
		attribute.Int("documents", len(sub.Documents)),
	))
	defer span.End()

	adj, err := s.adjudicate(ctx, sub)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("claim.id", adj.ClaimID),
		attribute.String("claim.status", string(adj.Status)),
		attribute.Float64("claim.approved_amount", adj.ApprovedAmount),
	)
	s.metrics.ObserveAdjudicate(time.Since(start))
	return adj, nil
}

func (s *Service) adjudicate(ctx context.Context, sub models.Submission) (*Adjudication, error) {
	if sub.MemberID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "member_id is required")
	}
	if sub.TreatmentDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "treatment_date is required")
	}
	if _, err := s.members.FindMember(ctx, sub.MemberID); err != nil {
		return nil, translate(err, "member")
	}

	sub.ClaimID = models.NewClaimID()
	rec := models.NewClaimRecord(sub, s.timeNow(ctx).UTC())

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.claims.CreateClaim(ctx, rec, sub.Documents); err != nil {
			return err
		}
		if err := s.emit(ctx, audit.EventClaimSubmitted, rec.ID, rec.MemberID, map[string]any{
			"member_id":      rec.MemberID,
			"treatment_date": rec.TreatmentDate.Format(time.DateOnly),
		}); err != nil {
			return err
		}
		return s.emit(ctx, audit.EventDocumentsProcessed, rec.ID, rec.MemberID, map[string]any{
			"document_count": len(sub.Documents),
		})
	})
	if err != nil {
		return nil, translate(err, "claim")
	}
	s.logger.InfoContext(ctx, "claim created",
		"claim_id", rec.ID,
		"member_id", rec.MemberID,
		"documents", len(sub.Documents),
	)

	cc, result, err := s.validator.Validate(ctx, sub)
	if err != nil {
		// the claim stays PROCESSING; nothing was decided
		s.logger.ErrorContext(ctx, "claim validation failed",
			"claim_id", rec.ID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "claim could not be validated")
	}
	if cc.Necessity.Degraded {
		s.emitBestEffort(ctx, audit.EventNecessityDegraded, rec.ID, rec.MemberID, nil)
	}

	outcome := s.decide(ctx, cc, result)

	if err := s.finalize(ctx, rec, cc, outcome); err != nil {
		s.logger.ErrorContext(ctx, "claim finalization failed",
			"claim_id", rec.ID,
			"error", err,
		)
		return nil, translate(err, "claim")
	}

	s.metrics.IncDecision(string(outcome.Decision), string(rec.Category), outcome.ApprovedAmount)
	s.logger.InfoContext(ctx, "claim adjudicated",
		"claim_id", rec.ID,
		"decision", outcome.Decision,
		"approved_amount", outcome.ApprovedAmount,
		"confidence", outcome.ConfidenceScore,
	)

	return &Adjudication{
		ClaimID:         rec.ID,
		Status:          rec.Status,
		ApprovedAmount:  outcome.ApprovedAmount,
		ConfidenceScore: outcome.ConfidenceScore,
		Message:         fmt.Sprintf("Claim processed. Status: %s", outcome.Decision),
		Outcome:         outcome,
		Result:          result,
	}, nil
}

func (s *Service) decide(ctx context.Context, cc *models.ClaimContext, result *models.ValidationResult) models.DecisionOutcome {
	_, span := s.tracer.Start(ctx, "decision.Decide")
	defer span.End()

	outcome := s.decider.Decide(cc, result)
	span.SetAttributes(
		attribute.String("decision", string(outcome.Decision)),
		attribute.Float64("confidence", outcome.ConfidenceScore),
	)
	return outcome
}

// finalize commits the claim's final state, its decision and, for approvals,
// the member's limit usage in one transaction.
func (s *Service) finalize(ctx context.Context, rec *models.ClaimRecord, cc *models.ClaimContext, outcome models.DecisionOutcome) error {
	now := s.timeNow(ctx).UTC()
	if err := rec.Finalize(cc, outcome, now); err != nil {
		return err
	}
	decision := models.NewDecisionRecord(rec.ID, s.terms.Hash(), outcome, now)

	return s.tx.RunInTx(withTxMember(ctx, rec.MemberID), func(ctx context.Context) error {
		if err := s.claims.UpdateClaim(ctx, rec); err != nil {
			return err
		}
		if err := s.claims.SaveDecision(ctx, decision); err != nil {
			return err
		}
		if outcome.Decision == models.DecisionApproved && outcome.ApprovedAmount > 0 {
			used, err := s.members.AddToAnnualLimitUsed(ctx, rec.MemberID, outcome.ApprovedAmount)
			if err != nil {
				return fmt.Errorf("update annual limit: %w", err)
			}
			if err := s.emit(ctx, audit.EventAnnualLimitConsumed, rec.ID, rec.MemberID, map[string]any{
				"amount":            outcome.ApprovedAmount,
				"annual_limit_used": used,
			}); err != nil {
				return err
			}
		}
		return s.emit(ctx, audit.EventDecisionMade, rec.ID, rec.MemberID, map[string]any{
			"decision":        string(outcome.Decision),
			"approved_amount": outcome.ApprovedAmount,
			"confidence":      outcome.ConfidenceScore,
		})
	})
}

// emit records an audit event carrying the request's correlation data.
func (s *Service) emit(ctx context.Context, action audit.AuditEvent, claimID, memberID string, details map[string]any) error {
	event := audit.Event{
		ClaimID:   claimID,
		MemberID:  memberID,
		Action:    string(action),
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.Operator(ctx),
		Client:    requestcontext.Client(ctx),
		Details:   details,
	}
	if d, ok := details["decision"].(string); ok {
		event.Decision = d
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}

// emitBestEffort records an event whose loss must not fail the operation.
// Failures are logged at Warn.
func (s *Service) emitBestEffort(ctx context.Context, action audit.AuditEvent, claimID, memberID string, details map[string]any) {
	if err := s.emit(ctx, action, claimID, memberID, details); err != nil {
		s.logger.WarnContext(ctx, "audit event dropped",
			"action", string(action),
			"claim_id", claimID,
			"member_id", memberID,
			"error", err,
		)
	}
}

type nopPublisher struct{}

func (nopPublisher) Emit(context.Context, audit.Event) error { return nil }
