package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"opdclaims/internal/claims/handler/mocks"
	"opdclaims/internal/claims/models"
	"opdclaims/internal/claims/service"
	dErrors "opdclaims/pkg/domain-errors"
	"opdclaims/pkg/requestcontext"
	"opdclaims/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service

// =============================================================================
// Claims Handler Test Suite
// =============================================================================
//
// Justification for unit tests: request decoding, query parsing and the
// error-to-status mapping are handler concerns the service tests never see.

type ClaimsHandlerSuite struct {
	suite.Suite
	svc    *mocks.MockService
	router chi.Router
}

func TestClaimsHandlerSuite(t *testing.T) {
	suite.Run(t, new(ClaimsHandlerSuite))
}

func (s *ClaimsHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.svc = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func submitBody() map[string]any {
	return map[string]any{
		"member_id":      "EMP001",
		"treatment_date": "2024-11-01",
		"documents": []models.Document{
			{ID: "d1", Type: models.DocumentPrescription, Filename: "rx.pdf"},
			{ID: "d2", Type: models.DocumentBill, Filename: "bill.pdf"},
		},
	}
}

func (s *ClaimsHandlerSuite) TestSubmitClaim() {
	s.Run("adjudicates and returns the outcome", func() {
		s.svc.EXPECT().Adjudicate(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, sub models.Submission) (*service.Adjudication, error) {
				s.Equal("EMP001", sub.MemberID)
				s.Equal(time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), sub.TreatmentDate)
				s.Len(sub.Documents, 2)
				return &service.Adjudication{
					ClaimID:         "CLM_0000ABCD",
					Status:          models.ClaimStatusApproved,
					ApprovedAmount:  1350,
					ConfidenceScore: 0.95,
					Message:         "Claim processed. Status: APPROVED",
				}, nil
			})

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/claims", submitBody()))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal("CLM_0000ABCD", (*resp)["claim_id"])
		s.Equal("APPROVED", (*resp)["status"])
		s.InDelta(1350, (*resp)["approved_amount"], 0.001)
	})

	s.Run("accepts an RFC3339 treatment date", func() {
		body := submitBody()
		body["treatment_date"] = "2024-11-01T18:30:00+05:30"
		s.svc.EXPECT().Adjudicate(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, sub models.Submission) (*service.Adjudication, error) {
				s.Equal(2024, sub.TreatmentDate.Year())
				s.Equal(time.November, sub.TreatmentDate.Month())
				s.Equal(1, sub.TreatmentDate.Day())
				return &service.Adjudication{ClaimID: "CLM_0000ABCE"}, nil
			})

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/claims", body))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("passes request identity through to the service", func() {
		s.svc.EXPECT().Adjudicate(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ models.Submission) (*service.Adjudication, error) {
				s.Equal("ops-7", requestcontext.Operator(ctx))
				s.Equal("req-42", requestcontext.RequestID(ctx))
				return &service.Adjudication{ClaimID: "CLM_0000ABCF"}, nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/claims", submitBody())
		req = testutil.WithRequestID(testutil.WithOperator(req, "ops-7"), "req-42")
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusCreated)
	})

	s.Run("rejects a missing member id without calling the service", func() {
		body := submitBody()
		delete(body, "member_id")
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/claims", body))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, dErrors.CodeValidation)
	})

	s.Run("rejects a malformed date", func() {
		body := submitBody()
		body["treatment_date"] = "01/11/2024"
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/claims", body))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, dErrors.CodeValidation)
	})

	s.Run("rejects invalid JSON", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/claims", "{"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, dErrors.CodeBadRequest)
	})

	s.Run("unknown member is 404", func() {
		s.svc.EXPECT().Adjudicate(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "member not found"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/claims", submitBody()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, dErrors.CodeNotFound)
	})

	s.Run("unexpected failure does not leak details", func() {
		s.svc.EXPECT().Adjudicate(gomock.Any(), gomock.Any()).Return(nil, errors.New("pq: connection reset"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/claims", submitBody()))
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		s.NotContains(rr.Body.String(), "pq:")
	})
}

func (s *ClaimsHandlerSuite) TestListClaims() {
	s.Run("parses filters", func() {
		s.svc.EXPECT().ListClaims(gomock.Any(), models.ClaimFilter{
			MemberID: "EMP001",
			Status:   models.ClaimStatusRejected,
			Skip:     5,
			Limit:    10,
		}).Return([]*models.ClaimRecord{{ID: "CLM_0000ABCD"}}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/claims?member_id=EMP001&status=rejected&skip=5&limit=10"))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[ClaimListResponse](s.T(), rr)
		s.Len(resp.Claims, 1)
		s.Equal(10, resp.Limit)
	})

	s.Run("defaults the page size", func() {
		s.svc.EXPECT().ListClaims(gomock.Any(), models.ClaimFilter{Limit: 20}).Return(nil, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/claims"))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("rejects an unknown status", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/claims?status=LOST"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("rejects a negative skip", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/claims?skip=-1"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *ClaimsHandlerSuite) TestClaimReads() {
	s.Run("claim by id", func() {
		s.svc.EXPECT().GetClaim(gomock.Any(), "CLM_0000ABCD").Return(&models.ClaimRecord{ID: "CLM_0000ABCD"}, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/claims/CLM_0000ABCD"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "id", "CLM_0000ABCD")
	})

	s.Run("missing claim is 404", func() {
		s.svc.EXPECT().GetClaim(gomock.Any(), "CLM_FFFFFFFF").Return(nil, dErrors.New(dErrors.CodeNotFound, "claim not found"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/claims/CLM_FFFFFFFF"))
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})

	s.Run("claim documents", func() {
		s.svc.EXPECT().ClaimDocuments(gomock.Any(), "CLM_0000ABCD").Return([]models.StoredDocument{{}, {}}, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/claims/CLM_0000ABCD/documents"))
		testutil.AssertStatusOK(s.T(), rr)
		docs := testutil.UnmarshalResponse[[]map[string]any](s.T(), rr)
		s.Len(*docs, 2)
	})

	s.Run("decision", func() {
		s.svc.EXPECT().Decision(gomock.Any(), "CLM_0000ABCD").Return(&models.DecisionRecord{}, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/decisions/CLM_0000ABCD"))
		testutil.AssertStatusOK(s.T(), rr)
	})
}

func (s *ClaimsHandlerSuite) TestMembers() {
	s.Run("creates a member", func() {
		s.svc.EXPECT().CreateMember(gomock.Any(), service.NewMemberInput{
			ID:       "EMP100",
			Name:     "Asha Rao",
			JoinDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Gender:   models.GenderFemale,
		}).Return(&models.Member{ID: "EMP100", Name: "Asha Rao"}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/members", map[string]string{
			"id": "EMP100", "name": "Asha Rao", "join_date": "2024-01-15", "gender": "female",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("duplicate member is 409", func() {
		s.svc.EXPECT().CreateMember(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "member already exists"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/members", map[string]string{
			"id": "EMP001", "name": "Rajesh Kumar", "join_date": "2024-04-01",
		}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, dErrors.CodeConflict)
	})

	s.Run("join date is required", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/members", map[string]string{
			"id": "EMP100", "name": "Asha Rao",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("lists and fetches", func() {
		s.svc.EXPECT().ListMembers(gomock.Any()).Return([]*models.Member{{ID: "EMP001"}}, nil)
		s.svc.EXPECT().GetMember(gomock.Any(), "EMP001").Return(&models.Member{ID: "EMP001"}, nil)

		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/members")))
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/members/EMP001")))
	})
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	testutil.Given(t, "all checks pass", func(t *testing.T) {
		rr := testutil.DoRequest(Health(map[string]Check{"database": ok}), testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "healthy")
	})

	testutil.Given(t, "redis is unreachable", func(t *testing.T) {
		rr := testutil.DoRequest(Health(map[string]Check{"database": ok, "redis": down}), testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	})
}
