package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opdclaims/internal/platform/config"
)

func TestNewWithoutURLDisablesCache(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestOptions(t *testing.T) {
	t.Run("settings override the URL", func(t *testing.T) {
		opts, err := Options(config.RedisConfig{
			URL:         "redis://cache:6380/2",
			PoolSize:    8,
			ReadTimeout: 250 * time.Millisecond,
		})
		require.NoError(t, err)
		assert.Equal(t, "cache:6380", opts.Addr)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, 8, opts.PoolSize)
		assert.Equal(t, 250*time.Millisecond, opts.ReadTimeout)
	})

	t.Run("zero values keep client defaults", func(t *testing.T) {
		opts, err := Options(config.RedisConfig{URL: "redis://localhost:6379/0?dial_timeout=3s"})
		require.NoError(t, err)
		assert.Equal(t, 3*time.Second, opts.DialTimeout)
		assert.Zero(t, opts.PoolSize)
	})

	t.Run("bad scheme", func(t *testing.T) {
		_, err := Options(config.RedisConfig{URL: "http://localhost:6379"})
		assert.Error(t, err)
	})
}
