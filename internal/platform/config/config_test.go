package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	Bind(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.False(t, cfg.Server.AuthEnabled)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Necessity.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Necessity.CacheTTL)
	assert.Equal(t, "claims.audit", cfg.Kafka.AuditTopic)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.InDelta(t, 1.0, cfg.Audit.OpsSampleRate, 0)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("NECESSITY_TIMEOUT", "2s")
	t.Setenv("KAFKA_BROKERS", "localhost:9092, localhost:9093,")
	t.Setenv("DATABASE_URL", "postgres://claims@localhost/claims")
	t.Setenv("LOG_FORMAT", "TEXT")

	v := viper.New()
	Bind(v)
	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Necessity.Timeout)
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, cfg.Kafka.Brokers)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFile(t *testing.T) {
	t.Run("missing file falls back to the environment", func(t *testing.T) {
		cfg, err := LoadFile(filepath.Join(t.TempDir(), ".env"))
		require.NoError(t, err)
		assert.Equal(t, ":8000", cfg.Server.Addr)
	})

	t.Run("file values apply", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("SERVER_ADDR=:7070\nLOG_LEVEL=debug\n"), 0o600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Server.Addr)
	})

	t.Run("unreadable file is an error", func(t *testing.T) {
		dir := t.TempDir()

		_, err := LoadFile(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config file")
	})
}

func TestValidateRejectsInconsistentSettings(t *testing.T) {
	t.Run("auth without key", func(t *testing.T) {
		t.Setenv("AUTH_ENABLED", "true")
		v := viper.New()
		Bind(v)
		_, err := FromViper(v)
		assert.ErrorContains(t, err, "JWT_SIGNING_KEY")
	})

	t.Run("kafka without database", func(t *testing.T) {
		t.Setenv("KAFKA_BROKERS", "localhost:9092")
		v := viper.New()
		Bind(v)
		_, err := FromViper(v)
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("sample rate out of range", func(t *testing.T) {
		t.Setenv("AUDIT_OPS_SAMPLE_RATE", "1.5")
		v := viper.New()
		Bind(v)
		_, err := FromViper(v)
		assert.ErrorContains(t, err, "AUDIT_OPS_SAMPLE_RATE")
	})

	t.Run("unknown log format", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "xml")
		v := viper.New()
		Bind(v)
		_, err := FromViper(v)
		assert.ErrorContains(t, err, "LOG_FORMAT")
	})
}
