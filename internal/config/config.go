// Package config loads client settings from YAML files.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultEndpoint   = "https://vectors.aetherfy.com"
	DefaultTimeoutSec = 30
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1000  // ms
	DefaultMaxDelay   = 30000 // ms
)

// Config holds the client configuration.
type Config struct {
	Endpoint   string          `yaml:"endpoint"`
	APIKey     string          `yaml:"api_key"`
	TimeoutSec float64         `yaml:"timeout_sec"`
	Retry      RetryConfig     `yaml:"retry"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	Logging    LoggingConfig   `yaml:"logging"`
	Embedding  EmbeddingConfig `yaml:"embedding"`
}

// RetryConfig holds backoff settings for write requests.
type RetryConfig struct {
	// MaxRetries is a pointer so that an explicit 0 (no retries) survives ApplyDefaults.
	MaxRetries  *int `yaml:"max_retries"`
	BaseDelayMS int  `yaml:"base_delay_ms"`
	MaxDelayMS  int  `yaml:"max_delay_ms"`
}

// RateLimitConfig holds client-side throttling. Zero RPS disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Format string `yaml:"format"` // json, console, none (default: none)
	Level  string `yaml:"level"`  // debug, info, warn, error
}

// EmbeddingConfig holds the optional text embedding provider.
// Provider is used as a metrics label. Instruction is prepended to every
// text, e.g. "passage: ".
type EmbeddingConfig struct {
	Provider    string       `yaml:"provider"`
	APIKey      string       `yaml:"api_key"`
	BaseURL     string       `yaml:"base_url"`
	Model       string       `yaml:"model"`
	Dimensions  int          `yaml:"dimensions"`
	Instruction string       `yaml:"instruction"`
	Budget      BudgetConfig `yaml:"budget"`
}

// BudgetConfig caps embedding tokens per UTC day and month. Zero limits are unlimited.
type BudgetConfig struct {
	DailyTokens   int64  `yaml:"daily_tokens"`
	MonthlyTokens int64  `yaml:"monthly_tokens"`
	Action        string `yaml:"action"` // warn, reject (default: reject)
}

// Enabled reports whether an embedding provider is configured.
func (e EmbeddingConfig) Enabled() bool { return e.Model != "" }

// Load reads configuration from a YAML file.
// ${VAR} and ${VAR:-default} are expanded from the environment before parsing.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes, defaults and validates YAML configuration.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	c.Endpoint = strings.TrimRight(c.Endpoint, "/")
	if c.TimeoutSec <= 0 {
		c.TimeoutSec = DefaultTimeoutSec
	}
	if c.Retry.MaxRetries == nil {
		n := DefaultMaxRetries
		c.Retry.MaxRetries = &n
	}
	if c.Retry.BaseDelayMS <= 0 {
		c.Retry.BaseDelayMS = DefaultBaseDelay
	}
	if c.Retry.MaxDelayMS <= 0 {
		c.Retry.MaxDelayMS = DefaultMaxDelay
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 1
	}
	if c.Embedding.Enabled() && c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint must be an absolute http(s) URL, got %q", c.Endpoint)
	}
	if c.Retry.MaxRetries != nil && *c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must be non-negative, got %d", *c.Retry.MaxRetries)
	}
	if c.Retry.MaxDelayMS < c.Retry.BaseDelayMS {
		return fmt.Errorf("retry.max_delay_ms (%d) must not be below retry.base_delay_ms (%d)",
			c.Retry.MaxDelayMS, c.Retry.BaseDelayMS)
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps must be non-negative, got %v", c.RateLimit.RPS)
	}
	switch c.Logging.Format {
	case "", "none", "json", "console":
		// ok
	default:
		return fmt.Errorf("logging.format must be \"json\", \"console\" or \"none\", got %q", c.Logging.Format)
	}
	if c.Embedding.Enabled() && c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must be non-negative, got %d", c.Embedding.Dimensions)
	}
	b := c.Embedding.Budget
	if b.DailyTokens < 0 || b.MonthlyTokens < 0 {
		return fmt.Errorf("embedding.budget limits must be non-negative")
	}
	switch b.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("embedding.budget.action must be \"warn\" or \"reject\", got %q", b.Action)
	}
	return nil
}

// Timeout returns the request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec * float64(time.Second))
}

// BaseDelay returns the initial backoff delay.
func (c *Config) BaseDelay() time.Duration {
	return time.Duration(c.Retry.BaseDelayMS) * time.Millisecond
}

// MaxDelay returns the backoff cap.
func (c *Config) MaxDelay() time.Duration {
	return time.Duration(c.Retry.MaxDelayMS) * time.Millisecond
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
