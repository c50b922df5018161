package llm

import (
	"context"
)

// MockChatClient is a configurable mock for testing code that depends on a
// chat provider. Set the function field to control behavior in tests.
type MockChatClient struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, returns empty string and nil error.
	CompleteFunc func(ctx context.Context, systemMessage string, userContent string) (string, error)

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// ProviderName is returned by Provider. Defaults to "mock".
	ProviderName string

	// CompleteCalls counts Complete invocations for verification.
	CompleteCalls int
}

// NewMockChatClient creates a new mock with sensible defaults.
func NewMockChatClient() *MockChatClient {
	return &MockChatClient{
		ModelName:    "mock-model",
		ProviderName: "mock",
	}
}

// Complete implements ChatClient.
func (m *MockChatClient) Complete(ctx context.Context, systemMessage string, userContent string) (string, error) {
	m.CompleteCalls++
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemMessage, userContent)
	}
	return "", nil
}

// Model implements ChatClient.
func (m *MockChatClient) Model() string {
	return m.ModelName
}

// Provider implements ChatClient.
func (m *MockChatClient) Provider() string {
	return m.ProviderName
}
