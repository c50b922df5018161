package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

const anthropicMaxTokens = 1024

// AnthropicClient talks to the Claude messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropicClient creates a new Claude chat client.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &AnthropicClient{
		client: anthropic.NewClient(cfg.APIKey),
		model:  cfg.Model,
		logger: logger.Named("llm"),
	}, nil
}

// Complete implements ChatClient.
func (c *AnthropicClient) Complete(ctx context.Context, systemMessage string, userContent string) (string, error) {
	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("user_content_len", len(userContent)))

	start := time.Now()

	// One attempt only: callers fall back to the rule engine on failure,
	// so retrying here would just delay the fallback.
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    systemMessage,
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &userContent},
			}},
		},
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("create messages: %w", err)
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}

	c.logger.Info("LLM request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

// Model implements ChatClient.
func (c *AnthropicClient) Model() string {
	return c.model
}

// Provider implements ChatClient.
func (c *AnthropicClient) Provider() string {
	return "anthropic"
}

func extractText(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}
