package assistant

import (
	"context"
	"sync"

	"defi-assistant/models"
)

type mockLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	panicMsg string
	calls    [][]models.ChatMessage
}

func (m *mockLLM) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	m.mu.Lock()
	copied := make([]models.ChatMessage, len(messages))
	copy(copied, messages)
	m.calls = append(m.calls, copied)
	m.mu.Unlock()

	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLM) lastCall() []models.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

type mockMarket struct {
	mu       sync.Mutex
	snapshot *models.MarketSnapshot
	queries  []string
}

func (m *mockMarket) Lookup(ctx context.Context, query string) (*models.MarketSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	return m.snapshot, m.snapshot != nil
}

type mockNews struct {
	mu       sync.Mutex
	analysis *models.NewsAnalysis
	err      error
	noKey    bool
	tokens   []string
}

func (m *mockNews) Analyze(ctx context.Context, token string) (*models.NewsAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, token)
	return m.analysis, m.err
}

func (m *mockNews) HasCredentials() bool {
	return !m.noKey
}
