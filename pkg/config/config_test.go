package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Provider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantErr  bool
	}{
		{"rules is valid", "rules", false},
		{"openai is valid", "openai", false},
		{"anthropic is valid", "anthropic", false},
		{"case insensitive", "OpenAI", false},
		{"unknown provider rejected", "bard", true},
		{"empty provider rejected", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				AI: AIConfig{Provider: tt.provider},
				RateLimit: RateLimitConfig{
					EnrichPerMinute: 20,
					EnrichBurst:     5,
				},
			}
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_RateLimit(t *testing.T) {
	cfg := &Config{
		AI:        AIConfig{Provider: ProviderRules},
		RateLimit: RateLimitConfig{EnrichPerMinute: 0, EnrichBurst: 5},
	}
	require.Error(t, cfg.validate())

	cfg.RateLimit = RateLimitConfig{EnrichPerMinute: 20, EnrichBurst: 0}
	require.Error(t, cfg.validate())
}

func TestConnectionString(t *testing.T) {
	db := &DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "triage",
		Password: "secret",
		Database: "triage_engine",
		SSLMode:  "require",
	}

	got := db.ConnectionString()
	assert.Equal(t, "host=db.internal port=5433 user=triage password=secret dbname=triage_engine sslmode=require", got)
}

func TestRemoteAIConfigured(t *testing.T) {
	cfg := &Config{AI: AIConfig{Provider: ProviderRules, APIKey: "k"}}
	assert.False(t, cfg.RemoteAIConfigured(), "rules provider never counts as remote")

	cfg.AI = AIConfig{Provider: ProviderOpenAI}
	assert.False(t, cfg.RemoteAIConfigured(), "remote provider without key is not configured")

	cfg.AI = AIConfig{Provider: ProviderOpenAI, APIKey: "k"}
	assert.True(t, cfg.RemoteAIConfigured())
}
