package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Embedding providers.
const (
	EmbeddingLocal  = "local"
	EmbeddingOpenAI = "openai"
	EmbeddingGemini = "gemini"
)

// Language model providers.
const (
	LLMOpenAI    = "openai"
	LLMAnthropic = "anthropic"
	LLMGemini    = "gemini"
)

// Config holds the recommendation service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Recommend RecommendConfig `yaml:"recommend"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Empty means open access.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds relational store settings.
// URL scheme selects the driver: sqlite://path or postgres://...
type DatabaseConfig struct {
	URL              string `yaml:"url"`
	MaxOpenConns     int    `yaml:"max_open_conns"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds the optional Redis/Valkey embedding cache settings.
type CacheConfig struct {
	Addrs     []string `yaml:"addrs"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	KeyPrefix string   `yaml:"key_prefix"`
	TTLSec    int      `yaml:"ttl_sec"` // 0 = no expiry
}

// Enabled reports whether an embedding cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	Model               string `yaml:"model"`
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// LLMConfig holds generative model settings.
type LLMConfig struct {
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url"`
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
	TimeoutSec  int      `yaml:"timeout_sec"`
	JSONMode    bool     `yaml:"json_mode"`
}

// RecommendConfig holds pipeline tuning.
type RecommendConfig struct {
	NearestK      int `yaml:"nearest_k"`
	MaxCandidates int `yaml:"max_candidates"`
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.URL == "" {
		c.Database.URL = "sqlite://reco.db"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	c.Cache.Addrs = compact(c.Cache.Addrs)
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "reco:"
	}

	c.Embedding.Provider = strings.ToLower(strings.TrimSpace(c.Embedding.Provider))
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = EmbeddingLocal
	}
	if c.Embedding.Model == "" {
		switch c.Embedding.Provider {
		case EmbeddingOpenAI:
			c.Embedding.Model = "text-embedding-3-small"
		case EmbeddingGemini:
			c.Embedding.Model = "gemini-embedding-001"
		default:
			c.Embedding.Model = "hashing"
		}
	}
	if c.Embedding.Dimensions <= 0 && c.Embedding.Provider == EmbeddingLocal {
		c.Embedding.Dimensions = 384
	}

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = LLMOpenAI
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case LLMAnthropic:
			c.LLM.Model = "claude-sonnet-4-5-20250929"
		case LLMGemini:
			c.LLM.Model = "gemini-2.5-flash"
		default:
			c.LLM.Model = "gpt-4o-mini"
		}
	}
	if c.LLM.Temperature == nil {
		t := 0.1
		c.LLM.Temperature = &t
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.LLM.TimeoutSec == 0 {
		c.LLM.TimeoutSec = 60
	}

	// The OpenAI-compatible embeddings client shares credentials with the chat model.
	if c.Embedding.APIKey == "" && c.Embedding.Provider == c.LLM.Provider {
		c.Embedding.APIKey = c.LLM.APIKey
	}
	if c.Embedding.BaseURL == "" && c.Embedding.Provider == EmbeddingOpenAI && c.LLM.Provider == LLMOpenAI {
		c.Embedding.BaseURL = c.LLM.BaseURL
	}

	if c.Recommend.NearestK == 0 {
		c.Recommend.NearestK = 5
	}
	if c.Recommend.MaxCandidates == 0 {
		c.Recommend.MaxCandidates = 10
	}

	c.Auth.APIKeys = compact(c.Auth.APIKeys)
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.HTTP.Port > 0 && c.HTTP.Port <= 65535, "http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	} else if err := validateDatabaseURL(c.Database.URL); err != nil {
		errs = append(errs, err)
	}
	check(slices.Contains([]string{EmbeddingLocal, EmbeddingOpenAI, EmbeddingGemini}, c.Embedding.Provider),
		"embedding.provider must be one of local, openai, gemini, got %q", c.Embedding.Provider)
	check(slices.Contains([]string{LLMOpenAI, LLMAnthropic, LLMGemini}, c.LLM.Provider),
		"llm.provider must be one of openai, anthropic, gemini, got %q", c.LLM.Provider)
	check(c.LLM.TimeoutSec >= 0, "llm.timeout_sec must be non-negative, got %d", c.LLM.TimeoutSec)
	check(c.Cache.TTLSec >= 0, "cache.ttl_sec must be non-negative, got %d", c.Cache.TTLSec)
	check(c.Cache.DB >= 0, "cache.db must be non-negative, got %d", c.Cache.DB)
	check(c.Recommend.NearestK >= 1, "recommend.nearest_k must be >= 1, got %d", c.Recommend.NearestK)
	check(c.Recommend.MaxCandidates >= 1, "recommend.max_candidates must be >= 1, got %d", c.Recommend.MaxCandidates)

	return errors.Join(errs...)
}

func validateDatabaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("database.url: %w", err)
	}
	switch u.Scheme {
	case "sqlite", "postgres", "postgresql":
		return nil
	default:
		return fmt.Errorf("database.url scheme must be sqlite or postgres, got %q", u.Scheme)
	}
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
