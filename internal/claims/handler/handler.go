// Package handler exposes claim adjudication over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"opdclaims/internal/claims/models"
	"opdclaims/internal/claims/service"
	dErrors "opdclaims/pkg/domain-errors"
	"opdclaims/pkg/platform/httputil"
	"opdclaims/pkg/requestcontext"
)

// Service defines the claim operations the handlers call.
type Service interface {
	Adjudicate(ctx context.Context, sub models.Submission) (*service.Adjudication, error)
	GetClaim(ctx context.Context, claimID string) (*models.ClaimRecord, error)
	ListClaims(ctx context.Context, filter models.ClaimFilter) ([]*models.ClaimRecord, error)
	ClaimDocuments(ctx context.Context, claimID string) ([]models.StoredDocument, error)
	Decision(ctx context.Context, claimID string) (*models.DecisionRecord, error)
	ListMembers(ctx context.Context) ([]*models.Member, error)
	GetMember(ctx context.Context, memberID string) (*models.Member, error)
	CreateMember(ctx context.Context, in service.NewMemberInput) (*models.Member, error)
}

// Handler serves the claim and member routes.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the routes on r. Authentication, if any, is applied by
// the caller.
func (h *Handler) Register(r chi.Router) {
	r.Route("/claims", func(r chi.Router) {
		r.Post("/", h.handleSubmitClaim)
		r.Get("/", h.handleListClaims)
		r.Get("/{id}", h.handleGetClaim)
		r.Get("/{id}/documents", h.handleClaimDocuments)
	})
	r.Get("/decisions/{claim_id}", h.handleGetDecision)
	r.Route("/members", func(r chi.Router) {
		r.Get("/", h.handleListMembers)
		r.Post("/", h.handleCreateMember)
		r.Get("/{id}", h.handleGetMember)
	})
}

func (h *Handler) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitClaimRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	adj, err := h.svc.Adjudicate(ctx, req.Submission())
	if err != nil {
		h.writeError(ctx, w, "failed to adjudicate claim", err)
		return
	}

	h.logger.InfoContext(ctx, "claim submitted",
		"request_id", requestID,
		"claim_id", adj.ClaimID,
		"status", adj.Status,
	)
	httputil.WriteJSON(w, http.StatusCreated, adj)
}

func (h *Handler) handleListClaims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := models.ClaimFilter{MemberID: q.Get("member_id")}
	if s := q.Get("status"); s != "" {
		status, err := models.ParseClaimStatus(s)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
			return
		}
		filter.Status = status
	}
	var err error
	if filter.Skip, err = intParam(q.Get("skip")); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "skip must be a non-negative integer"))
		return
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer"))
		return
	}
	filter = filter.Normalize()

	claims, err := h.svc.ListClaims(ctx, filter)
	if err != nil {
		h.writeError(ctx, w, "failed to list claims", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ClaimListResponse{Claims: claims, Skip: filter.Skip, Limit: filter.Limit})
}

func (h *Handler) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.svc.GetClaim(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, "failed to get claim", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleClaimDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docs, err := h.svc.ClaimDocuments(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, "failed to list claim documents", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.svc.Decision(ctx, chi.URLParam(r, "claim_id"))
	if err != nil {
		h.writeError(ctx, w, "failed to get decision", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	members, err := h.svc.ListMembers(ctx)
	if err != nil {
		h.writeError(ctx, w, "failed to list members", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) handleGetMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, err := h.svc.GetMember(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, "failed to get member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateMemberRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	m, err := h.svc.CreateMember(ctx, req.Input())
	if err != nil {
		h.writeError(ctx, w, "failed to create member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

// writeError logs server-side failures and writes the mapped response.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	if de, ok := dErrors.As(err); ok {
		status = httputil.StatusFor(de.Code)
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
