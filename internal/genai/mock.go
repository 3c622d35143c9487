package genai

import "context"

// MockGenerator is a canned-reply generator for tests. When Err is set,
// Complete fails with it; otherwise Reply is returned and the prompts are
// recorded for assertions.
type MockGenerator struct {
	Reply string
	Err   error

	LastSystem string
	LastUser   string
	Calls      int
}

// Complete records the prompts and returns the canned reply or error.
func (m *MockGenerator) Complete(ctx context.Context, system, user string) (string, error) {
	m.Calls++
	m.LastSystem = system
	m.LastUser = user
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

// Close is a no-op for MockGenerator.
func (m *MockGenerator) Close() error {
	return nil
}
