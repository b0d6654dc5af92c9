package service

import (
	"context"
	"time"

	"opdclaims/internal/claims/models"
	"opdclaims/pkg/platform/audit"
)

func (s *Service) GetClaim(ctx context.Context, claimID string) (*models.ClaimRecord, error) {
	rec, err := s.claims.GetClaim(ctx, claimID)
	if err != nil {
		return nil, translate(err, "claim")
	}
	return rec, nil
}

// ListClaims returns claims newest first. Paging is clamped to the supported
// range.
func (s *Service) ListClaims(ctx context.Context, filter models.ClaimFilter) ([]*models.ClaimRecord, error) {
	claims, err := s.claims.ListClaims(ctx, filter.Normalize())
	if err != nil {
		return nil, translate(err, "claims")
	}
	return claims, nil
}

// ClaimDocuments returns the documents submitted with a claim, in submission
// order.
func (s *Service) ClaimDocuments(ctx context.Context, claimID string) ([]models.StoredDocument, error) {
	if _, err := s.claims.GetClaim(ctx, claimID); err != nil {
		return nil, translate(err, "claim")
	}
	docs, err := s.claims.Documents(ctx, claimID)
	if err != nil {
		return nil, translate(err, "documents")
	}
	return docs, nil
}

func (s *Service) Decision(ctx context.Context, claimID string) (*models.DecisionRecord, error) {
	rec, err := s.claims.Decision(ctx, claimID)
	if err != nil {
		return nil, translate(err, "decision")
	}
	return rec, nil
}

func (s *Service) ListMembers(ctx context.Context) ([]*models.Member, error) {
	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return nil, translate(err, "members")
	}
	return members, nil
}

func (s *Service) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	m, err := s.members.FindMember(ctx, memberID)
	if err != nil {
		return nil, translate(err, "member")
	}
	return m, nil
}

// NewMemberInput is what an operator supplies to enroll a member. An empty
// PolicyID enrolls under the loaded policy.
type NewMemberInput struct {
	ID       string
	Name     string
	PolicyID string
	JoinDate time.Time
	Gender   models.Gender
}

// CreateMember enrolls a member. A duplicate ID is CodeConflict.
func (s *Service) CreateMember(ctx context.Context, in NewMemberInput) (*models.Member, error) {
	policyID := in.PolicyID
	if policyID == "" {
		policyID = s.terms.PolicyID
	}
	m, err := models.NewMember(in.ID, in.Name, policyID, in.JoinDate, in.Gender, s.timeNow(ctx).UTC())
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.members.CreateMember(ctx, m); err != nil {
			return err
		}
		return s.emit(ctx, audit.EventMemberCreated, "", m.ID, map[string]any{
			"policy_id": m.PolicyID,
			"join_date": m.JoinDate.Format(time.DateOnly),
		})
	})
	if err != nil {
		return nil, translate(err, "member")
	}
	s.logger.InfoContext(ctx, "member created", "member_id", m.ID)
	return m, nil
}

// SeedMembers loads the fixed roster, skipping members that already exist.
// It returns how many were added.
func (s *Service) SeedMembers(ctx context.Context) (int, error) {
	added, err := s.members.Seed(ctx, models.SeedMembers(s.terms.PolicyID, s.timeNow(ctx).UTC()))
	if err != nil {
		return 0, translate(err, "members")
	}
	if added > 0 {
		s.emitBestEffort(ctx, audit.EventMembersSeeded, "", "", map[string]any{"added": added})
	}
	s.logger.InfoContext(ctx, "members seeded", "added", added)
	return added, nil
}

// Policy exposes the loaded terms.
func (s *Service) Policy() (policyID, hash string) {
	return s.terms.PolicyID, s.terms.Hash()
}

