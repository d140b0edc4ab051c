package llm

import (
	"context"
	"sync"
)

// MockClient implements Client with function fields. Calls are recorded so
// tests in other packages can inspect the prompts they produced.
type MockClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier ModelTier) (string, error)

	mu      sync.Mutex
	Prompts []string
}

// GenerateContent implements Client.
func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	m.record(prompt)
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

// GenerateJSON implements Client.
func (m *MockClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	m.record(prompt)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "{}", nil
}

// GetModel implements Client.
func (m *MockClient) GetModel(tier ModelTier) string {
	return "mock-" + string(tier)
}

// Close implements Client.
func (m *MockClient) Close() error {
	return nil
}

// LastPrompt returns the most recent prompt, or "".
func (m *MockClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}

func (m *MockClient) record(prompt string) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
}
