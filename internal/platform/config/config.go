// Package config loads service configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	AuthEnabled   bool
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	SeedMembers   bool
}

// Database selects the claim store. An empty URL keeps everything in memory.
type Database struct {
	URL          string
	Driver       string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig configures the judge verdict cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the audit outbox relay. No brokers means audit events stay
// in the configured store.
type Kafka struct {
	Brokers       []string
	AuditTopic    string
	ConsumerGroup string
	PollInterval  time.Duration
}

// Necessity configures the medical necessity judge chain.
type Necessity struct {
	BaseURL         string
	APIKey          string
	Model           string
	Timeout         time.Duration
	CacheTTL        time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
}

// Audit tunes the best-effort operational audit stream.
type Audit struct {
	OpsSampleRate  float64
	OpsSampleRates string
}

type Log struct {
	Level  string
	Format string
}

type Config struct {
	Server     Server
	Database   Database
	Redis      RedisConfig
	Kafka      Kafka
	Necessity  Necessity
	Audit      Audit
	PolicyFile string
	Log        Log
}

// keys maps every configuration key to its default. A nil default means
// the key is only bound to its environment variable.
var keys = map[string]any{
	"SERVER_ADDR":                ":8000",
	"AUTH_ENABLED":               false,
	"JWT_SIGNING_KEY":            "",
	"JWT_ISSUER":                 "opdclaims",
	"JWT_AUDIENCE":               "claims-api",
	"SEED_MEMBERS":               false,
	"DATABASE_URL":               "",
	"DATABASE_DRIVER":            "postgres",
	"DB_MAX_OPEN_CONNS":          20,
	"DB_MAX_IDLE_CONNS":          5,
	"REDIS_URL":                  "",
	"REDIS_POOL_SIZE":            10,
	"REDIS_MIN_IDLE_CONNS":       2,
	"REDIS_DIAL_TIMEOUT":         5 * time.Second,
	"REDIS_READ_TIMEOUT":         3 * time.Second,
	"REDIS_WRITE_TIMEOUT":        3 * time.Second,
	"KAFKA_BROKERS":              "",
	"KAFKA_AUDIT_TOPIC":          "claims.audit",
	"KAFKA_CONSUMER_GROUP":       "opdclaims-audit",
	"OUTBOX_POLL_INTERVAL":       time.Second,
	"GEMINI_BASE_URL":            "",
	"GEMINI_API_KEY":             "",
	"GEMINI_MODEL":               "",
	"NECESSITY_TIMEOUT":          10 * time.Second,
	"NECESSITY_CACHE_TTL":        24 * time.Hour,
	"NECESSITY_BREAKER_FAILURES": 5,
	"NECESSITY_BREAKER_COOLDOWN": 30 * time.Second,
	"AUDIT_OPS_SAMPLE_RATE":      1.0,
	"AUDIT_OPS_SAMPLE_RATES":     "",
	"POLICY_FILE":                "",
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "json",
}

// Bind registers defaults and environment bindings on v. Callers may bind
// flags to the same keys before calling FromViper.
func Bind(v *viper.Viper) {
	for key, def := range keys {
		v.SetDefault(key, def)
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()
}

// Load reads the environment and, when present, a .env file in the working
// directory.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file. Only a missing file is
// tolerated; one that exists but cannot be read or parsed is an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	Bind(v)
	if err := v.ReadInConfig(); err != nil && !missingFile(err) {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	return FromViper(v)
}

func missingFile(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// FromViper builds a Config from an already bound viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: Server{
			Addr:          v.GetString("SERVER_ADDR"),
			AuthEnabled:   v.GetBool("AUTH_ENABLED"),
			JWTSigningKey: v.GetString("JWT_SIGNING_KEY"),
			JWTIssuer:     v.GetString("JWT_ISSUER"),
			JWTAudience:   v.GetString("JWT_AUDIENCE"),
			SeedMembers:   v.GetBool("SEED_MEMBERS"),
		},
		Database: Database{
			URL:          v.GetString("DATABASE_URL"),
			Driver:       v.GetString("DATABASE_DRIVER"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("REDIS_URL"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
		},
		Kafka: Kafka{
			Brokers:       splitList(v.GetString("KAFKA_BROKERS")),
			AuditTopic:    v.GetString("KAFKA_AUDIT_TOPIC"),
			ConsumerGroup: v.GetString("KAFKA_CONSUMER_GROUP"),
			PollInterval:  v.GetDuration("OUTBOX_POLL_INTERVAL"),
		},
		Necessity: Necessity{
			BaseURL:         v.GetString("GEMINI_BASE_URL"),
			APIKey:          v.GetString("GEMINI_API_KEY"),
			Model:           v.GetString("GEMINI_MODEL"),
			Timeout:         v.GetDuration("NECESSITY_TIMEOUT"),
			CacheTTL:        v.GetDuration("NECESSITY_CACHE_TTL"),
			BreakerFailures: v.GetInt("NECESSITY_BREAKER_FAILURES"),
			BreakerCooldown: v.GetDuration("NECESSITY_BREAKER_COOLDOWN"),
		},
		Audit: Audit{
			OpsSampleRate:  v.GetFloat64("AUDIT_OPS_SAMPLE_RATE"),
			OpsSampleRates: v.GetString("AUDIT_OPS_SAMPLE_RATES"),
		},
		PolicyFile: v.GetString("POLICY_FILE"),
		Log: Log{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks combinations the individual defaults cannot express.
func (c *Config) Validate() error {
	if c.Server.AuthEnabled && c.Server.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY is required when AUTH_ENABLED is set")
	}
	if c.Necessity.Timeout <= 0 {
		return fmt.Errorf("NECESSITY_TIMEOUT must be positive")
	}
	if r := c.Audit.OpsSampleRate; r < 0 || r > 1 {
		return fmt.Errorf("AUDIT_OPS_SAMPLE_RATE must be within [0,1], got %v", r)
	}
	if len(c.Kafka.Brokers) > 0 && c.Database.URL == "" {
		return fmt.Errorf("KAFKA_BROKERS requires DATABASE_URL for the audit outbox")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
