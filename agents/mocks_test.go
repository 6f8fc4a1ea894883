package agents

import (
	"context"
	"sync"

	"defi-assistant/models"
)

type mockNewsAPIService struct {
	mu        sync.Mutex
	articles  []models.NewsArticle
	err       error
	noKey     bool
	calls     int
	lastQuery string
	lastLimit int
}

func (m *mockNewsAPIService) GetNews(ctx context.Context, query string, limit int) ([]models.NewsArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastQuery = query
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.articles, nil
}

func (m *mockNewsAPIService) HasCredentials() bool {
	return !m.noKey
}

type mockCoinGeckoService struct {
	mu          sync.Mutex
	results     []models.TokenSearchResult
	prices      map[string]models.MarketSnapshot
	searchErr   error
	priceErr    error
	searchCalls int
	priceCalls  int
}

func (m *mockCoinGeckoService) Search(ctx context.Context, query string) ([]models.TokenSearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.results, nil
}

func (m *mockCoinGeckoService) SimplePrice(ctx context.Context, ids []string) (map[string]models.MarketSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priceCalls++
	if m.priceErr != nil {
		return nil, m.priceErr
	}
	out := make(map[string]models.MarketSnapshot)
	for _, id := range ids {
		if p, ok := m.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *mockCoinGeckoService) TopGainers(ctx context.Context, limit int) ([]models.TokenMarket, error) {
	return nil, nil
}

func (m *mockCoinGeckoService) TopByMarketCap(ctx context.Context, limit int) ([]models.TokenMarket, error) {
	return nil, nil
}

// fixedScorer returns a canned score per text, zero otherwise
type fixedScorer map[string]int

func (f fixedScorer) Score(text string) models.SentimentScore {
	s := f[text]
	return models.SentimentScore{Score: s, Sentiment: models.LabelForScore(s)}
}
