// Package llm provides chat-completion clients for the remote AI providers
// triage-engine can talk to. Both backends satisfy ChatClient so callers
// never care which vendor is configured.
package llm

import (
	"context"
)

// ChatClient defines the minimal chat-completion surface the classification
// and Q&A services need. Use this interface for dependency injection to
// enable mocking in tests.
type ChatClient interface {
	// Complete sends one system message plus one user message and returns
	// the assistant's text response.
	Complete(ctx context.Context, systemMessage string, userContent string) (string, error)

	// Model returns the configured model name.
	Model() string

	// Provider returns the provider identifier ("openai" or "anthropic").
	Provider() string
}

// Compile-time interface checks.
var (
	_ ChatClient = (*OpenAIClient)(nil)
	_ ChatClient = (*AnthropicClient)(nil)
	_ ChatClient = (*MockChatClient)(nil)
)
