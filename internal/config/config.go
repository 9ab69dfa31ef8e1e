// Package config loads and validates all runtime configuration for the gateway.
//
// Configuration is read from environment variables (preferred for containers)
// or from a config.yaml file in the working directory. Environment
// variables take precedence over the YAML file.
//
// Naming convention: env vars use UPPER_SNAKE_CASE; the YAML file uses the
// same names in lower_snake_case. For example OPENAI_API_KEY becomes
// openai_api_key in YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config is the top-level configuration container.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Default: 8080.
	Port int

	// LogLevel controls the minimum log level. One of: debug, info, warn, error.
	// Default: info.
	LogLevel string

	// DatabaseURL is the Postgres DSN for the tenant/credential store. Required.
	DatabaseURL string

	// RedisURL is the Redis connection URL used for the response cache, the
	// single-flight lock, and the rate limiter's fixed-window counters.
	// Optional — when empty, the gateway falls back to an in-process memory
	// store (single-replica local/dev use only: locks and rate-limit
	// counters are then per-process, not fleet-wide).
	RedisURL string

	// APIKeyPepper is mixed into every credential's HMAC before it is
	// compared against the stored hash. Required; never logged.
	APIKeyPepper string

	// InferenceBackend selects the fallback/no-prefix-match backend:
	//   "dummy" — tenant-aware echo backend (default).
	//   "local" — simulated local-processing backend.
	InferenceBackend string

	// Provider API keys. Each is optional; a provider with an empty key is
	// routed to through its prefix but falls back to InferenceBackend until
	// configured.
	OpenAI    ProviderConfig
	Gemini    ProviderConfig
	Anthropic ProviderConfig

	// RateLimit controls the per-(tenant, credential) fixed-window request limiter.
	RateLimit RateLimitConfig

	// CircuitBreaker controls per-provider breaker thresholds.
	CircuitBreaker CircuitBreakerConfig

	// Cache controls the response cache.
	Cache CacheConfig

	// ClickHouseDSN is the audit-log sink connection string. Optional — when
	// empty, audit events are emitted through slog only.
	ClickHouseDSN string

	// CORSOrigins is the list of allowed CORS origins.
	CORSOrigins []string
}

// ProviderConfig holds configuration for a single LLM provider.
type ProviderConfig struct {
	// APIKey is the provider API key. Leave empty to disable the provider.
	APIKey string
}

// RateLimitConfig controls the per-(tenant, credential) fixed-window rate limiter.
type RateLimitConfig struct {
	// RequestsPerMinute is the maximum number of requests a single
	// credential may make per one-minute window. Default: 10.
	RequestsPerMinute int
}

// CircuitBreakerConfig controls per-provider circuit breaker settings.
type CircuitBreakerConfig struct {
	// RemoteThreshold is the number of consecutive failures that opens a
	// remote provider's breaker. Default: 3.
	RemoteThreshold int
	// RemoteCooldown is how long a remote provider's breaker stays open
	// before allowing a probe. Default: 60s.
	RemoteCooldown time.Duration
	// LocalThreshold is the failure threshold for the local/dummy fallback
	// slot. Default: 5.
	LocalThreshold int
	// LocalCooldown is the cooldown for the local/dummy fallback slot.
	// Default: 30s.
	LocalCooldown time.Duration
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	// TTL is the default time-to-live for cached responses. Default: 5m.
	TTL time.Duration
}

// Load reads configuration from environment variables and (optionally) from
// config.yaml in the current working directory.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// ── Defaults ──────────────────────────────────────────────────────────
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("INFERENCE_BACKEND", "dummy")
	v.SetDefault("RATE_LIMIT_RPM", 10)
	v.SetDefault("CB_REMOTE_THRESHOLD", 3)
	v.SetDefault("CB_REMOTE_COOLDOWN", "60s")
	v.SetDefault("CB_LOCAL_THRESHOLD", 5)
	v.SetDefault("CB_LOCAL_COOLDOWN", "30s")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("CORS_ORIGINS", []string{"*"})

	cfg := &Config{
		Port:     v.GetInt("PORT"),
		LogLevel: strings.ToLower(v.GetString("LOG_LEVEL")),

		DatabaseURL:  v.GetString("DATABASE_URL"),
		RedisURL:     v.GetString("REDIS_URL"),
		APIKeyPepper: v.GetString("API_KEY_PEPPER"),

		InferenceBackend: strings.ToLower(v.GetString("INFERENCE_BACKEND")),

		OpenAI:    ProviderConfig{APIKey: v.GetString("OPENAI_API_KEY")},
		Gemini:    ProviderConfig{APIKey: v.GetString("GEMINI_API_KEY")},
		Anthropic: ProviderConfig{APIKey: v.GetString("ANTHROPIC_API_KEY")},

		RateLimit: RateLimitConfig{
			RequestsPerMinute: v.GetInt("RATE_LIMIT_RPM"),
		},

		CircuitBreaker: CircuitBreakerConfig{
			RemoteThreshold: v.GetInt("CB_REMOTE_THRESHOLD"),
			RemoteCooldown:  v.GetDuration("CB_REMOTE_COOLDOWN"),
			LocalThreshold:  v.GetInt("CB_LOCAL_THRESHOLD"),
			LocalCooldown:   v.GetDuration("CB_LOCAL_COOLDOWN"),
		},

		Cache: CacheConfig{
			TTL: v.GetDuration("CACHE_TTL"),
		},

		ClickHouseDSN: v.GetString("CLICKHOUSE_DSN"),
		CORSOrigins:   v.GetStringSlice("CORS_ORIGINS"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks all semantic constraints that cannot be expressed as defaults.
func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.APIKeyPepper == "" {
		return fmt.Errorf("config: API_KEY_PEPPER is required")
	}

	switch c.InferenceBackend {
	case "dummy", "local":
	default:
		return fmt.Errorf("config: invalid INFERENCE_BACKEND %q; must be one of: dummy, local", c.InferenceBackend)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid LOG_LEVEL %q; must be one of: debug, info, warn, error", c.LogLevel)
	}

	if c.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("config: RATE_LIMIT_RPM must be ≥ 1, got %d", c.RateLimit.RequestsPerMinute)
	}
	if c.CircuitBreaker.RemoteThreshold < 1 {
		return fmt.Errorf("config: CB_REMOTE_THRESHOLD must be ≥ 1, got %d", c.CircuitBreaker.RemoteThreshold)
	}
	if c.CircuitBreaker.RemoteCooldown <= 0 {
		return fmt.Errorf("config: CB_REMOTE_COOLDOWN must be a positive duration")
	}
	if c.CircuitBreaker.LocalThreshold < 1 {
		return fmt.Errorf("config: CB_LOCAL_THRESHOLD must be ≥ 1, got %d", c.CircuitBreaker.LocalThreshold)
	}
	if c.CircuitBreaker.LocalCooldown <= 0 {
		return fmt.Errorf("config: CB_LOCAL_COOLDOWN must be a positive duration")
	}

	return nil
}

// loadDotEnv populates process env vars from a .env file when present.
func loadDotEnv(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config: %s is a directory, expected a file", path)
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	return nil
}
