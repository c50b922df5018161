package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient talks to any OpenAI-compatible chat-completion endpoint.
type OpenAIClient struct {
	client   *openai.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// Config holds configuration for creating a chat client.
type Config struct {
	Endpoint string // Base URL, e.g. "https://api.openai.com/v1"
	Model    string // Model name, e.g. "gpt-4o-mini"
	APIKey   string // Optional for local endpoints
}

// NewOpenAIClient creates a new OpenAI-compatible chat client.
func NewOpenAIClient(cfg *Config, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(clientConfig),
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		logger:   logger.Named("llm"),
	}, nil
}

// Complete implements ChatClient.
func (c *OpenAIClient) Complete(ctx context.Context, systemMessage string, userContent string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
		{Role: openai.ChatMessageRoleUser, Content: userContent},
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("user_content_len", len(userContent)))

	start := time.Now()

	// One attempt only: callers fall back to the rule engine on failure,
	// so retrying here would just delay the fallback.
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// Model implements ChatClient.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Provider implements ChatClient.
func (c *OpenAIClient) Provider() string {
	return "openai"
}
