package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// =============================================================================
// Breaker Test Suite
// =============================================================================
//
// Justification for unit tests: the judge and the ops audit publisher both
// depend on exact threshold and cooldown transitions that are awkward to
// provoke through their callers.

type BreakerSuite struct {
	suite.Suite
	now time.Time
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.now = time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC)
}

func (s *BreakerSuite) breaker(opts ...Option) *Breaker {
	return New("necessity-judge", append([]Option{WithClock(func() time.Time { return s.now })}, opts...)...)
}

func (s *BreakerSuite) failN(b *Breaker, n int) (useFallback bool, change StateChange) {
	for range n {
		useFallback, change = b.RecordFailure()
	}
	return useFallback, change
}

func (s *BreakerSuite) TestStartsClosed() {
	b := s.breaker()
	s.Equal(StateClosed, b.State())
	s.Equal("closed", b.State().String())
	s.Equal("necessity-judge", b.Name())
	s.True(b.Allow())
}

func (s *BreakerSuite) TestOpensOnConsecutiveFailures() {
	b := s.breaker(WithFailureThreshold(3))

	useFallback, change := s.failN(b, 2)
	s.False(useFallback)
	s.False(change.Opened)

	useFallback, change = b.RecordFailure()
	s.True(useFallback)
	s.True(change.Opened)
	s.Equal("open", b.State().String())

	_, change = b.RecordFailure()
	s.False(change.Opened, "already open")
}

func (s *BreakerSuite) TestSuccessClearsFailureStreak() {
	b := s.breaker(WithFailureThreshold(3))
	s.failN(b, 2)
	b.RecordSuccess()
	s.failN(b, 2)
	s.False(b.IsOpen())
	b.RecordFailure()
	s.True(b.IsOpen())
}

func (s *BreakerSuite) TestClosesAfterSuccessStreak() {
	b := s.breaker(WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()

	usePrimary, change := b.RecordSuccess()
	s.False(usePrimary)
	s.False(change.Closed)

	// A failure in between restarts the streak.
	b.RecordFailure()
	b.RecordSuccess()
	s.True(b.IsOpen())

	usePrimary, change = b.RecordSuccess()
	s.True(usePrimary)
	s.True(change.Closed)
}

func (s *BreakerSuite) TestCooldownGatesProbes() {
	b := s.breaker(WithFailureThreshold(2), WithSuccessThreshold(1), WithCooldown(30*time.Second))
	s.failN(b, 2)
	s.False(b.Allow())

	s.now = s.now.Add(30 * time.Second)
	s.True(b.Allow(), "probe after cooldown")

	b.RecordFailure()
	s.False(b.Allow(), "failed probe restarts the cooldown")

	s.now = s.now.Add(31 * time.Second)
	s.True(b.Allow())
	_, change := b.RecordSuccess()
	s.True(change.Closed)
	s.True(b.Allow())
}

func (s *BreakerSuite) TestWithoutCooldownOpenBreakerStillAllows() {
	b := s.breaker(WithFailureThreshold(1))
	b.RecordFailure()
	s.True(b.IsOpen())
	s.True(b.Allow())
}

func (s *BreakerSuite) TestReset() {
	b := s.breaker(WithFailureThreshold(1), WithCooldown(time.Minute))
	b.RecordFailure()
	b.Reset()
	s.Equal(StateClosed, b.State())
	s.True(b.Allow())
}
