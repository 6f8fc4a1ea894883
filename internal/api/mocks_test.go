package api

import (
	"context"
	"errors"
	"sync"

	"defi-assistant/models"
	"defi-assistant/services"
)

type mockLLM struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]models.ChatMessage
}

func (m *mockLLM) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]models.ChatMessage(nil), messages...))
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

type mockCoinGecko struct {
	mu      sync.Mutex
	tokens  map[string]models.TokenSearchResult
	prices  map[string]models.MarketSnapshot
	markets []models.TokenMarket
	err     error
	lastIDs []string
}

func (m *mockCoinGecko) Search(ctx context.Context, query string) ([]models.TokenSearchResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if t, ok := m.tokens[query]; ok {
		return []models.TokenSearchResult{t}, nil
	}
	return nil, nil
}

func (m *mockCoinGecko) SimplePrice(ctx context.Context, ids []string) (map[string]models.MarketSnapshot, error) {
	m.mu.Lock()
	m.lastIDs = ids
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]models.MarketSnapshot)
	for _, id := range ids {
		if p, ok := m.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *mockCoinGecko) TopGainers(ctx context.Context, limit int) ([]models.TokenMarket, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.markets, nil
}

func (m *mockCoinGecko) TopByMarketCap(ctx context.Context, limit int) ([]models.TokenMarket, error) {
	return m.TopGainers(ctx, limit)
}

type mockNewsAPI struct {
	mu       sync.Mutex
	articles []models.NewsArticle
	noKey    bool
	queries  []string
}

func (m *mockNewsAPI) GetNews(ctx context.Context, query string, limit int) ([]models.NewsArticle, error) {
	if m.noKey {
		return nil, services.ErrNewsAPIKeyMissing
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	return m.articles, nil
}

func (m *mockNewsAPI) HasCredentials() bool {
	return !m.noKey
}

var errBoom = errors.New("boom")
