package necessity

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"opdclaims/internal/claims/models"
	"opdclaims/internal/claims/ports/mocks"
	"opdclaims/pkg/platform/circuit"
)

// =============================================================================
// Guarded Judge Test Suite
// =============================================================================
//
// Justification for unit tests: which failures open the circuit, and that an
// open circuit never reaches the judge, are decided here and nowhere else.

type GuardedSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	inner   *mocks.MockNecessityJudge
	now     time.Time
	breaker *circuit.Breaker
	judge   *GuardedJudge
}

func TestGuardedSuite(t *testing.T) {
	suite.Run(t, new(GuardedSuite))
}

func (s *GuardedSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.inner = mocks.NewMockNecessityJudge(s.ctrl)
	s.now = time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC)
	s.breaker = circuit.New("necessity",
		circuit.WithFailureThreshold(2),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return s.now }),
	)
	s.judge = NewGuardedJudge(s.inner, s.breaker, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *GuardedSuite) TestOutagesOpenTheCircuit() {
	outage := newJudgeError(CategoryOutage, "unexpected status 503", nil)
	s.inner.EXPECT().Assess(gomock.Any(), gomock.Any()).Return(models.Assessment{}, outage).Times(2)

	for range 2 {
		_, err := s.judge.Assess(context.Background(), models.NecessityRequest{Diagnosis: "Fever"})
		s.ErrorIs(err, outage)
	}
	s.True(s.breaker.IsOpen())

	// Open circuit fails fast without calling the judge
	_, err := s.judge.Assess(context.Background(), models.NecessityRequest{Diagnosis: "Fever"})
	s.ErrorIs(err, ErrCircuitOpen)
	s.Equal(CategoryOutage, CategoryOf(err))
}

func (s *GuardedSuite) TestProbeAfterCooldownCloses() {
	outage := newJudgeError(CategoryTimeout, "request did not complete", context.DeadlineExceeded)
	verdict := models.Assessment{IsNecessary: true, Confidence: 0.9}
	gomock.InOrder(
		s.inner.EXPECT().Assess(gomock.Any(), gomock.Any()).Return(models.Assessment{}, outage).Times(2),
		s.inner.EXPECT().Assess(gomock.Any(), gomock.Any()).Return(verdict, nil),
	)

	s.judge.Assess(context.Background(), models.NecessityRequest{})
	s.judge.Assess(context.Background(), models.NecessityRequest{})
	s.Require().True(s.breaker.IsOpen())

	s.now = s.now.Add(time.Minute)
	got, err := s.judge.Assess(context.Background(), models.NecessityRequest{})
	s.Require().NoError(err)
	s.Equal(verdict, got)
	s.False(s.breaker.IsOpen())
}

func (s *GuardedSuite) TestBadDataDoesNotOpenTheCircuit() {
	bad := newJudgeError(CategoryBadData, "decode verdict", nil)
	s.inner.EXPECT().Assess(gomock.Any(), gomock.Any()).Return(models.Assessment{}, bad).Times(3)

	for range 3 {
		_, err := s.judge.Assess(context.Background(), models.NecessityRequest{})
		s.Error(err)
	}
	s.False(s.breaker.IsOpen())
}
