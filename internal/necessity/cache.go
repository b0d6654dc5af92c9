package necessity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"opdclaims/internal/claims/models"
	"opdclaims/internal/claims/ports"
)

const (
	cacheKeyPrefix  = "necessity:v1:"
	DefaultCacheTTL = 24 * time.Hour
)

// CachedJudge remembers verdicts by request in Redis. Identical concurrent
// requests share one call to the wrapped judge. Cache faults are logged and
// never fail the call; failed verdicts are never stored.
type CachedJudge struct {
	next   ports.NecessityJudge
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

type CacheOption func(*CachedJudge)

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CachedJudge) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedJudge) {
		c.logger = logger
	}
}

func NewCachedJudge(next ports.NecessityJudge, client *redis.Client, opts ...CacheOption) (*CachedJudge, error) {
	if next == nil {
		return nil, errors.New("judge is required")
	}
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	c := &CachedJudge{
		next:   next,
		client: client,
		ttl:    DefaultCacheTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *CachedJudge) Assess(ctx context.Context, req models.NecessityRequest) (models.Assessment, error) {
	key, err := CacheKey(req)
	if err != nil {
		return c.next.Assess(ctx, req)
	}

	if a, ok := c.lookup(ctx, key); ok {
		return a, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		a, err := c.next.Assess(ctx, req)
		if err != nil {
			return models.Assessment{}, err
		}
		c.store(ctx, key, a)
		return a, nil
	})
	if shared {
		c.logger.DebugContext(ctx, "necessity verdict shared with concurrent caller", "key", key)
	}
	if err != nil {
		return models.Assessment{}, err
	}
	return v.(models.Assessment), nil
}

func (c *CachedJudge) lookup(ctx context.Context, key string) (models.Assessment, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Assessment{}, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "necessity cache read failed", "error", err)
		return models.Assessment{}, false
	}

	var a models.Assessment
	if err := json.Unmarshal(raw, &a); err != nil || a.Validate() != nil {
		c.logger.WarnContext(ctx, "discarding unreadable necessity cache entry", "key", key)
		return models.Assessment{}, false
	}
	return a, true
}

func (c *CachedJudge) store(ctx context.Context, key string, a models.Assessment) {
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "necessity cache write failed", "error", err)
	}
}

// CacheKey is the Redis key for a request: the prefix plus the SHA-256 of
// its JSON encoding.
func CacheKey(req models.NecessityRequest) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return cacheKeyPrefix + hex.EncodeToString(sum[:]), nil
}
