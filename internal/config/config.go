// Package config provides configuration management for the log analysis pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	perrors "github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/errors"
)

// InvocationMode controls how multiple tool invocations in one model
// response are handled.
type InvocationMode string

const (
	// FirstOnly processes the first invocation and discards the rest.
	FirstOnly InvocationMode = "first_only"
	// All processes every invocation sequentially.
	All InvocationMode = "all"
)

// TimestampUnit is the resolution of timestamps returned by the log store.
type TimestampUnit string

const (
	UnitNanoseconds TimestampUnit = "nanoseconds"
	UnitSeconds     TimestampUnit = "seconds"
)

// defaultContainers is the closed set of allowed container identifiers.
// Overridable via CONTAINERS_FILE.
var defaultContainers = []string{
	"/stage-bit-ponder", "/staging-cobi-v2", "/staging-evm-relay", "/staging-evm-watcher",
	"/staging-info-server", "/staging-quote", "/quote-staging", "/solana-relayer-staging",
	"/solana-watcher-staging", "/starkner-watcher-staging",
}

// Config holds all configuration for the pipeline
type Config struct {
	// Log Store Configuration
	BaseURL string `json:"base_url"`
	Token   string `json:"token,omitempty"` // Not stored in files, from env only

	// Language Model Configuration
	LLMBaseURL string `json:"llm_base_url"` // OpenAI-compatible endpoint (e.g. Ollama /v1)
	Model      string `json:"model"`

	// Container enumeration
	Containers       []string `json:"containers"`
	DefaultContainer string   `json:"default_container"`
	FuzzyThreshold   int      `json:"fuzzy_threshold"` // 0-100 scale

	// Query bounds
	DefaultTimeRange time.Duration `json:"default_time_range"` // window when the user gives no range
	MaxLookback      time.Duration `json:"max_lookback"`       // hard cap on end - start
	DefaultLimit     int           `json:"default_limit"`
	MaxLimit         int           `json:"max_limit"`

	// Analysis
	BatchSize      int            `json:"batch_size"`
	InvocationMode InvocationMode `json:"invocation_mode"`
	TimestampUnit  TimestampUnit  `json:"timestamp_unit"`

	// Stage Timeouts
	InterpretTimeout time.Duration `json:"interpret_timeout"` // intent model call
	RetrievalTimeout time.Duration `json:"retrieval_timeout"` // log store call
	AnalyzeTimeout   time.Duration `json:"analyze_timeout"`   // per-batch model call

	// Retry (retrieval boundary only)
	MaxRetries   int           `json:"max_retries"`
	RetryWaitMin time.Duration `json:"retry_wait_min"`
	RetryWaitMax time.Duration `json:"retry_wait_max"`

	// Rate Limiting
	RateLimit       int  `json:"rate_limit"` // requests per second
	RateLimitBurst  int  `json:"rate_limit_burst"`
	EnableRateLimit bool `json:"enable_rate_limit"`

	// Observability
	EnableTracing bool   `json:"enable_tracing"`
	MetricsAddr   string `json:"metrics_addr,omitempty"` // empty disables the endpoint

	// Environment selects the logger profile ("production" or anything else)
	Environment string `json:"environment"`
}

// Load configuration from environment variables and the optional
// containers file
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		LLMBaseURL:       "http://localhost:11434/v1",
		Model:            "qwen2.5:14b",
		Containers:       append([]string(nil), defaultContainers...),
		DefaultContainer: "/staging-cobi-v2",
		FuzzyThreshold:   80,
		DefaultTimeRange: time.Hour,
		MaxLookback:      30 * 24 * time.Hour,
		DefaultLimit:     100,
		MaxLimit:         5000,
		BatchSize:        50,
		InvocationMode:   FirstOnly,
		TimestampUnit:    UnitNanoseconds,
		InterpretTimeout: 60 * time.Second,
		RetrievalTimeout: 10 * time.Second,
		AnalyzeTimeout:   60 * time.Second,
		MaxRetries:       3,
		RetryWaitMin:     1 * time.Second,
		RetryWaitMax:     30 * time.Second,
		RateLimit:        10,
		RateLimitBurst:   5,
		EnableRateLimit:  false,
		EnableTracing:    false,
	}

	// Container enumeration from file takes precedence over the built-in list
	if path := os.Getenv("CONTAINERS_FILE"); path != "" {
		if err := loadContainersFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load containers file: %w", err)
		}
	}

	loadFromEnv(cfg)

	return cfg, nil
}

// containersFile is the YAML shape of CONTAINERS_FILE
type containersFile struct {
	Containers []string `yaml:"containers"`
	Default    string   `yaml:"default,omitempty"`
}

func loadContainersFile(cfg *Config, path string) error {
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return perrors.NewConfiguration("invalid file path: path traversal detected")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 -- path is validated above
	if err != nil {
		return perrors.NewConfiguration(fmt.Sprintf("failed to read containers file: %v", err))
	}

	var parsed containersFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return perrors.NewConfiguration(fmt.Sprintf("failed to parse containers file: %v", err))
	}
	if len(parsed.Containers) == 0 {
		return perrors.NewConfiguration("containers file lists no containers")
	}

	cfg.Containers = parsed.Containers
	if parsed.Default != "" {
		cfg.DefaultContainer = parsed.Default
	} else {
		cfg.DefaultContainer = parsed.Containers[0]
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("DEFAULT_CONTAINER"); v != "" {
		cfg.DefaultContainer = v
	}
	if v := os.Getenv("FUZZY_MATCH_THRESHOLD"); v != "" {
		var threshold int
		if _, err := fmt.Sscanf(v, "%d", &threshold); err == nil {
			cfg.FuzzyThreshold = threshold
		}
	}
	if v := os.Getenv("DEFAULT_TIME_RANGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DefaultTimeRange = d
		}
	}
	if v := os.Getenv("MAX_LOOKBACK"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MaxLookback = d
		}
	}
	if v := os.Getenv("DEFAULT_LIMIT"); v != "" {
		var limit int
		if _, err := fmt.Sscanf(v, "%d", &limit); err == nil {
			cfg.DefaultLimit = limit
		}
	}
	if v := os.Getenv("MAX_LIMIT"); v != "" {
		var limit int
		if _, err := fmt.Sscanf(v, "%d", &limit); err == nil {
			cfg.MaxLimit = limit
		}
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		var size int
		if _, err := fmt.Sscanf(v, "%d", &size); err == nil {
			cfg.BatchSize = size
		}
	}
	if v := os.Getenv("INVOCATION_MODE"); v != "" {
		cfg.InvocationMode = InvocationMode(strings.ToLower(v))
	}
	if v := os.Getenv("LOG_TIMESTAMP_UNIT"); v != "" {
		cfg.TimestampUnit = TimestampUnit(strings.ToLower(v))
	}
	if v := os.Getenv("INTERPRET_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.InterpretTimeout = d
		}
	}
	if v := os.Getenv("RETRIEVAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RetrievalTimeout = d
		}
	}
	if v := os.Getenv("ANALYZE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AnalyzeTimeout = d
		}
	}
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		var retries int
		if _, err := fmt.Sscanf(v, "%d", &retries); err == nil {
			cfg.MaxRetries = retries
		}
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		var limit int
		if _, err := fmt.Sscanf(v, "%d", &limit); err == nil {
			cfg.RateLimit = limit
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		var burst int
		if _, err := fmt.Sscanf(v, "%d", &burst); err == nil {
			cfg.RateLimitBurst = burst
		}
	}
	if v := os.Getenv("ENABLE_RATE_LIMIT"); v != "" {
		cfg.EnableRateLimit = v == "true" || v == "1"
	}
	if v := os.Getenv("ENABLE_TRACING"); v != "" {
		cfg.EnableTracing = v == "true" || v == "1"
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
}

// Validate checks if the configuration is valid. Failures surface as
// ConfigurationError, fatal before any network call.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return perrors.NewConfiguration("BASE_URL is required")
	}
	if c.Token == "" {
		return perrors.NewConfiguration("TOKEN is required")
	}
	if c.Model == "" {
		return perrors.NewConfiguration("model is required")
	}
	if len(c.Containers) == 0 {
		return perrors.NewConfiguration("container enumeration is empty")
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return perrors.NewConfiguration(fmt.Sprintf("fuzzy threshold must be within 0-100, got %d", c.FuzzyThreshold))
	}
	if c.DefaultTimeRange <= 0 {
		return perrors.NewConfiguration("default time range must be positive")
	}
	if c.MaxLookback <= 0 {
		return perrors.NewConfiguration("max lookback must be positive")
	}
	if c.DefaultLimit < 1 || c.DefaultLimit > c.MaxLimit {
		return perrors.NewConfiguration(fmt.Sprintf("default limit must be within 1-%d, got %d", c.MaxLimit, c.DefaultLimit))
	}
	if c.BatchSize < 1 {
		return perrors.NewConfiguration("batch size must be positive")
	}
	if c.InvocationMode != FirstOnly && c.InvocationMode != All {
		return perrors.NewConfiguration(fmt.Sprintf("invalid invocation mode: %s", c.InvocationMode))
	}
	if c.TimestampUnit != UnitNanoseconds && c.TimestampUnit != UnitSeconds {
		return perrors.NewConfiguration(fmt.Sprintf("invalid timestamp unit: %s", c.TimestampUnit))
	}
	if c.InterpretTimeout <= 0 || c.RetrievalTimeout <= 0 || c.AnalyzeTimeout <= 0 {
		return perrors.NewConfiguration("stage timeouts must be positive")
	}
	if c.MaxRetries < 0 {
		return perrors.NewConfiguration("max_retries must be non-negative")
	}
	if c.RateLimit <= 0 && c.EnableRateLimit {
		return perrors.NewConfiguration("rate_limit must be positive when rate limiting is enabled")
	}
	return nil
}

// Redact returns a copy of the config with sensitive data removed
func (c *Config) Redact() *Config {
	redacted := *c
	redacted.Token = MaskToken(redacted.Token)
	return &redacted
}

// MaskToken returns a masked version of a bearer token for safe logging
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
