package classify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/config"
	"github.com/utiliwatch/triage-engine/pkg/llm"
)

// NewFromConfig chooses the classifier implementation once at process
// startup. Misconfigured remote providers (missing key, bad client config)
// degrade to the rule engine with a logged warning rather than failing
// startup: classification must always be available.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) Classifier {
	provider := strings.ToLower(cfg.AI.Provider)

	switch provider {
	case config.ProviderOpenAI:
		if cfg.AI.APIKey == "" {
			logger.Warn("AI_API_KEY not set, classification uses rule engine")
			return NewRuleEngine()
		}
		chat, err := llm.NewOpenAIClient(&llm.Config{
			Endpoint: cfg.AI.BaseURL,
			Model:    cfg.AI.Model,
			APIKey:   cfg.AI.APIKey,
		}, logger)
		if err != nil {
			logger.Warn("failed to build OpenAI client, classification uses rule engine", zap.Error(err))
			return NewRuleEngine()
		}
		return NewRemoteClassifier(chat, ModeOpenAI, logger)

	case config.ProviderAnthropic:
		if cfg.AI.APIKey == "" {
			logger.Warn("AI_API_KEY not set, classification uses rule engine")
			return NewRuleEngine()
		}
		chat, err := llm.NewAnthropicClient(&llm.Config{
			Model:  cfg.AI.Model,
			APIKey: cfg.AI.APIKey,
		}, logger)
		if err != nil {
			logger.Warn("failed to build Anthropic client, classification uses rule engine", zap.Error(err))
			return NewRuleEngine()
		}
		return NewRemoteClassifier(chat, ModeAnthropic, logger)

	default:
		return NewRuleEngine()
	}
}
