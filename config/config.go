package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hongliangan/inflight/observe"
	"github.com/hongliangan/inflight/store"
)

// Config is the root configuration for the library.
type Config struct {
	Cache       CacheConfig       `yaml:"cache"`
	Retry       RetryConfig       `yaml:"retry"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Timeout     TimeoutConfig     `yaml:"timeout"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Observe     ObserveConfig     `yaml:"observe"`
}

// CacheConfig configures the persistent result cache.
type CacheConfig struct {
	// Directory holds payload files and the metadata index.
	Directory string `yaml:"directory"`

	// SizeBudgetBytes bounds the aggregate payload size before eviction.
	SizeBudgetBytes int64 `yaml:"size_budget_bytes"`

	// EvictTargetFraction is the post-eviction size as a fraction of the budget.
	EvictTargetFraction float64 `yaml:"evict_target_fraction"`

	// TTLOverrides replaces a category's default entry lifetime.
	// Keys are category names.
	TTLOverrides map[string]Duration `yaml:"ttl_overrides"`
}

// RetryConfig configures retry of transient backend failures.
type RetryConfig struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	InitialDelay Duration `yaml:"initial_delay"`
	MaxDelay     Duration `yaml:"max_delay"`
	Jitter       bool     `yaml:"jitter"`
}

// ConcurrencyConfig configures the adaptive concurrency controller.
type ConcurrencyConfig struct {
	// MaxConcurrent caps the limit regardless of adaptive ceilings.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// TimeoutConfig configures the executor timeout budget.
type TimeoutConfig struct {
	// Base is the deadline before multipliers are applied.
	Base Duration `yaml:"base"`

	// OperationMultipliers scales the base per operation kind.
	OperationMultipliers map[string]float64 `yaml:"operation_multipliers"`
}

// RateLimitConfig configures the backend token bucket.
type RateLimitConfig struct {
	// RequestsPerSecond caps executor calls. Zero disables the limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// ObserveConfig configures telemetry.
type ObserveConfig struct {
	ServiceName string        `yaml:"service_name"`
	Version     string        `yaml:"version"`
	Tracing     TracingConfig `yaml:"tracing"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Logging     LoggingConfig `yaml:"logging"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Exporter  string  `yaml:"exporter"`
	SamplePct float64 `yaml:"sample_pct"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
}

// ObserverConfig converts the telemetry section into the observe package's
// configuration.
func (c ObserveConfig) ObserverConfig() observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Version:     c.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Tracing.Enabled,
			Exporter:  c.Tracing.Exporter,
			SamplePct: c.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Metrics.Enabled,
			Exporter: c.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: c.Logging.Enabled,
			Level:   c.Logging.Level,
		},
	}
}

// Default returns the configuration used when no file is supplied. The cache
// directory lands under the user cache dir, falling back to the system temp
// directory.
func Default() Config {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}

	return Config{
		Cache: CacheConfig{
			Directory:           filepath.Join(base, "inflight"),
			SizeBudgetBytes:     100 << 20,
			EvictTargetFraction: 0.7,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: Duration(time.Second),
			MaxDelay:     Duration(30 * time.Second),
		},
		Concurrency: ConcurrencyConfig{
			MaxConcurrent: 6,
		},
		Timeout: TimeoutConfig{
			Base: Duration(10 * time.Second),
		},
		Observe: ObserveConfig{
			ServiceName: "inflight",
			Logging:     LoggingConfig{Enabled: true, Level: "info"},
		},
	}
}

// Load reads a YAML file, expands ${VAR} environment references in its
// contents, and decodes it over the defaults.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded, err := ExpandEnvStrict(string(raw))
	if err != nil {
		return Config{}, fmt.Errorf("config: expand %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Cache.Directory == "" {
		return ErrMissingDirectory
	}
	if c.Cache.SizeBudgetBytes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSizeBudget, c.Cache.SizeBudgetBytes)
	}
	if c.Cache.EvictTargetFraction <= 0 || c.Cache.EvictTargetFraction > 1 {
		return fmt.Errorf("%w: %f", ErrInvalidEvictTarget, c.Cache.EvictTargetFraction)
	}
	for name, ttl := range c.Cache.TTLOverrides {
		if !store.Category(name).Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
		if ttl <= 0 {
			return fmt.Errorf("%w: ttl override for %q must be positive", ErrInvalidRetry, name)
		}
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1", ErrInvalidRetry)
	}
	if c.Retry.InitialDelay < 0 || c.Retry.MaxDelay < 0 {
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidRetry)
	}

	for op, mult := range c.Timeout.OperationMultipliers {
		if mult <= 0 {
			return fmt.Errorf("%w: operation %q: %f", ErrInvalidMultiplier, op, mult)
		}
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: %f", ErrInvalidRateLimit, c.RateLimit.RequestsPerSecond)
	}

	obs := c.Observe.ObserverConfig()
	if err := obs.Validate(); err != nil {
		return err
	}

	return nil
}
