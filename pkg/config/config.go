package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// AI provider names accepted in configuration.
const (
	ProviderRules     = "rules"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration for triage-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// MigrationsPath is the directory holding SQL migration files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// AI classification provider configuration
	AI AIConfig `yaml:"ai"`

	// Transcription configuration
	Transcribe TranscribeConfig `yaml:"transcribe"`

	// Rate limiting for the enrich endpoint
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"triage"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"triage_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// AIConfig holds classification provider settings.
// Provider selects the implementation once at startup: "rules" for the
// deterministic keyword engine, "openai" for any OpenAI-compatible chat
// endpoint, "anthropic" for the Claude messages API. Remote providers
// always degrade to the rule engine on failure.
type AIConfig struct {
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"rules"`
	BaseURL  string `yaml:"base_url" env:"AI_BASE_URL" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	APIKey   string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
}

// TranscribeConfig holds speech-to-text settings. When no API key is
// configured the transcribe endpoint serves canned fallback transcripts.
type TranscribeConfig struct {
	Model  string `yaml:"model" env:"TRANSCRIBE_MODEL" env-default:"whisper-1"`
	APIKey string `yaml:"-" env:"TRANSCRIBE_API_KEY"` // Secret - not in YAML
}

// RateLimitConfig bounds classification requests per client.
type RateLimitConfig struct {
	// EnrichPerMinute is the sustained request rate allowed per client IP
	// on POST /api/enrich.
	EnrichPerMinute int `yaml:"enrich_per_minute" env:"RATE_LIMIT_ENRICH_PER_MINUTE" env-default:"20"`
	// EnrichBurst is the maximum burst size per client IP.
	EnrichBurst int `yaml:"enrich_burst" env:"RATE_LIMIT_ENRICH_BURST" env-default:"5"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. Secrets (PGPASSWORD, AI_API_KEY, TRANSCRIBE_API_KEY) must
// come from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		// A missing config file is fine for env-only deployments.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.AI.Provider) {
	case ProviderRules, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown ai provider %q (expected rules, openai or anthropic)", c.AI.Provider)
	}

	if c.RateLimit.EnrichPerMinute <= 0 {
		return fmt.Errorf("rate_limit.enrich_per_minute must be positive, got %d", c.RateLimit.EnrichPerMinute)
	}
	if c.RateLimit.EnrichBurst <= 0 {
		return fmt.Errorf("rate_limit.enrich_burst must be positive, got %d", c.RateLimit.EnrichBurst)
	}

	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RemoteAIConfigured reports whether a remote classification provider is
// selected and has the credentials it needs.
func (c *Config) RemoteAIConfigured() bool {
	provider := strings.ToLower(c.AI.Provider)
	return provider != ProviderRules && c.AI.APIKey != ""
}
