//go:build integration

package necessity

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"opdclaims/internal/claims/models"
	"opdclaims/pkg/testutil/containers"
)

// countingJudge counts calls and can hold them until released.
type countingJudge struct {
	calls   atomic.Int32
	release chan struct{}
	verdict models.Assessment
	err     error
}

func (j *countingJudge) Assess(ctx context.Context, _ models.NecessityRequest) (models.Assessment, error) {
	j.calls.Add(1)
	if j.release != nil {
		select {
		case <-j.release:
		case <-ctx.Done():
			return models.Assessment{}, ctx.Err()
		}
	}
	return j.verdict, j.err
}

type CachedJudgeSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestCachedJudgeSuite(t *testing.T) {
	suite.Run(t, new(CachedJudgeSuite))
}

func (s *CachedJudgeSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CachedJudgeSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *CachedJudgeSuite) request() models.NecessityRequest {
	return models.NecessityRequest{
		Diagnosis: "Viral fever",
		Medicines: []models.Medicine{{Name: "Paracetamol 650mg"}},
	}
}

func (s *CachedJudgeSuite) TestSecondCallIsServedFromRedis() {
	inner := &countingJudge{verdict: models.Assessment{IsNecessary: true, Confidence: 0.92, Reasoning: "Standard care"}}
	judge, err := NewCachedJudge(inner, s.redis.Client, WithTTL(time.Minute))
	s.Require().NoError(err)
	ctx := context.Background()

	first, err := judge.Assess(ctx, s.request())
	s.Require().NoError(err)
	second, err := judge.Assess(ctx, s.request())
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(int32(1), inner.calls.Load())

	key, err := CacheKey(s.request())
	s.Require().NoError(err)
	ttl, err := s.redis.Client.TTL(ctx, key).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *CachedJudgeSuite) TestFailuresAreNotCached() {
	inner := &countingJudge{err: newJudgeError(CategoryOutage, "unexpected status 503", nil)}
	judge, err := NewCachedJudge(inner, s.redis.Client)
	s.Require().NoError(err)

	_, err = judge.Assess(context.Background(), s.request())
	s.Error(err)
	_, err = judge.Assess(context.Background(), s.request())
	s.Error(err)
	s.Equal(int32(2), inner.calls.Load())
}

func (s *CachedJudgeSuite) TestConcurrentIdenticalRequestsShareOneCall() {
	inner := &countingJudge{
		release: make(chan struct{}),
		verdict: models.Assessment{IsNecessary: true, Confidence: 0.8},
	}
	judge, err := NewCachedJudge(inner, s.redis.Client)
	s.Require().NoError(err)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]models.Assessment, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = judge.Assess(context.Background(), s.request())
		}()
	}

	// Let every caller reach the cache miss before the judge answers.
	s.Eventually(func() bool { return inner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	s.Equal(int32(1), inner.calls.Load())
	for _, r := range results {
		s.Equal(0.8, r.Confidence)
	}
}

func (s *CachedJudgeSuite) TestDistinctRequestsUseDistinctKeys() {
	a, err := CacheKey(models.NecessityRequest{Diagnosis: "Fever"})
	s.Require().NoError(err)
	b, err := CacheKey(models.NecessityRequest{Diagnosis: "Fever", Tests: []string{"CBC Test"}})
	s.Require().NoError(err)
	s.NotEqual(a, b)
	s.Contains(a, "necessity:v1:")
}
