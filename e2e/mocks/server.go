// Package mocks provides HTTP mock servers for external APIs used in E2E tests.
package mocks

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockServer provides configurable mock responses for CoinGecko, NewsAPI and OpenAI.
type MockServer struct {
	mu     sync.RWMutex
	server *httptest.Server

	// Response configurations
	coins        []Coin
	newsArticles []NewsArticle
	llmReply     string

	// Error injection (HTTP status codes, 0 means healthy)
	coingeckoStatus int
	newsAPIStatus   int
	llmStatus       int

	// Request tracking for assertions
	requestLog   []RequestLog
	chatRequests []ChatCompletionRequest
}

// RequestLog records incoming requests for test assertions.
type RequestLog struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// NewMockServer creates a new mock server with default responses.
func NewMockServer() *MockServer {
	m := &MockServer{}
	m.setDefaults()
	m.server = httptest.NewServer(m)
	return m
}

// URL returns the mock server's base URL.
func (m *MockServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.server.Close()
}

// ServeHTTP implements http.Handler to route requests to appropriate mock handlers.
func (m *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.requestLog = append(m.requestLog, RequestLog{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   string(body),
	})
	m.mu.Unlock()

	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/chat/completions"):
		m.handleChatCompletion(w, body)
	case strings.HasSuffix(path, "/everything"):
		m.handleNewsAPI(w, r)
	case strings.HasSuffix(path, "/search"):
		m.handleSearch(w, r)
	case strings.HasSuffix(path, "/simple/price"):
		m.handleSimplePrice(w, r)
	case strings.HasSuffix(path, "/coins/markets"):
		m.handleMarkets(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GetRequestLog returns all logged requests for assertions.
func (m *MockServer) GetRequestLog() []RequestLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RequestLog{}, m.requestLog...)
}

// RequestsTo returns the logged requests whose path ends with suffix.
func (m *MockServer) RequestsTo(suffix string) []RequestLog {
	var out []RequestLog
	for _, r := range m.GetRequestLog() {
		if strings.HasSuffix(r.Path, suffix) {
			out = append(out, r)
		}
	}
	return out
}

// ClearRequestLog clears the request log.
func (m *MockServer) ClearRequestLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestLog = nil
	m.chatRequests = nil
}

// LastChatRequest returns the most recent chat completion request, if any.
func (m *MockServer) LastChatRequest() (ChatCompletionRequest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.chatRequests) == 0 {
		return ChatCompletionRequest{}, false
	}
	return m.chatRequests[len(m.chatRequests)-1], true
}

// SetCoins replaces the tokens known to the mock CoinGecko API.
func (m *MockServer) SetCoins(coins []Coin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coins = coins
}

// SetCoinGeckoStatus makes every CoinGecko endpoint fail with status (0 restores).
func (m *MockServer) SetCoinGeckoStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coingeckoStatus = status
}

// SetNewsArticles replaces the articles returned by NewsAPI.
func (m *MockServer) SetNewsArticles(articles []NewsArticle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.newsArticles = articles
}

// SetNewsAPIStatus makes NewsAPI fail with status (0 restores).
func (m *MockServer) SetNewsAPIStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.newsAPIStatus = status
}

// SetLLMReply sets the assistant text of chat completions.
func (m *MockServer) SetLLMReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.llmReply = reply
}

// SetLLMStatus makes chat completions fail with status (0 restores).
func (m *MockServer) SetLLMStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.llmStatus = status
}

func (m *MockServer) setDefaults() {
	m.coins = []Coin{
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "btc", MarketCapRank: 1, Price: 50000, Change24h: 2.5, FDV: 1.05e12},
		{ID: "ethereum", Name: "Ethereum", Symbol: "eth", MarketCapRank: 2, Price: 3000, Change24h: -1.2, FDV: 3.6e11},
		{ID: "dogecoin", Name: "Dogecoin", Symbol: "doge", MarketCapRank: 8, Price: 0.12, Change24h: 8.4, FDV: 1.7e10},
		{ID: "solana", Name: "Solana", Symbol: "sol", MarketCapRank: 5, Price: 140, Change24h: 4.1, FDV: 8e10},
	}
	m.newsArticles = generateDefaultNewsArticles()
	m.llmReply = "Mock assistant reply."
}

func (m *MockServer) handleChatCompletion(w http.ResponseWriter, body []byte) {
	var req ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m.mu.Lock()
	m.chatRequests = append(m.chatRequests, req)
	status := m.llmStatus
	reply := m.llmReply
	m.mu.Unlock()

	if status != 0 {
		writeError(w, status, "mock LLM failure")
		return
	}

	writeJSON(w, map[string]any{
		"id":      "chatcmpl-mock",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": reply},
		}},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}

func (m *MockServer) handleNewsAPI(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	status := m.newsAPIStatus
	articles := m.newsArticles
	m.mu.RUnlock()

	if status != 0 {
		writeError(w, status, "mock news failure")
		return
	}

	writeJSON(w, map[string]any{
		"status":       "ok",
		"totalResults": len(articles),
		"articles":     articles,
	})
}

func (m *MockServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	coins, status := m.coinGeckoState()
	if status != 0 {
		writeError(w, status, "mock coingecko failure")
		return
	}

	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
	var matches []coingeckoSearchCoin
	for _, c := range coins {
		if strings.Contains(c.ID, query) || strings.Contains(strings.ToLower(c.Name), query) || c.Symbol == query {
			matches = append(matches, coingeckoSearchCoin{ID: c.ID, Name: c.Name, Symbol: c.Symbol, MarketCapRank: c.MarketCapRank})
		}
	}
	writeJSON(w, map[string]any{"coins": matches})
}

func (m *MockServer) handleSimplePrice(w http.ResponseWriter, r *http.Request) {
	coins, status := m.coinGeckoState()
	if status != 0 {
		writeError(w, status, "mock coingecko failure")
		return
	}

	out := make(map[string]map[string]float64)
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		for _, c := range coins {
			if c.ID == id {
				out[id] = map[string]float64{"usd": c.Price, "usd_24h_change": c.Change24h}
			}
		}
	}
	writeJSON(w, out)
}

func (m *MockServer) handleMarkets(w http.ResponseWriter, r *http.Request) {
	coins, status := m.coinGeckoState()
	if status != 0 {
		writeError(w, status, "mock coingecko failure")
		return
	}

	sorted := append([]Coin(nil), coins...)
	if r.URL.Query().Get("order") == "market_cap_desc" {
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].MarketCapRank < sorted[j].MarketCapRank })
	} else {
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Change24h > sorted[j].Change24h })
	}

	perPage := len(sorted)
	fmt.Sscanf(r.URL.Query().Get("per_page"), "%d", &perPage)
	if perPage < len(sorted) {
		sorted = sorted[:perPage]
	}

	rows := make([]coingeckoMarket, 0, len(sorted))
	for _, c := range sorted {
		rows = append(rows, coingeckoMarket{
			ID:                       c.ID,
			Symbol:                   c.Symbol,
			Name:                     c.Name,
			CurrentPrice:             c.Price,
			PriceChangePercentage24h: c.Change24h,
			FullyDilutedValuation:    c.FDV,
			MarketCapRank:            c.MarketCapRank,
		})
	}
	writeJSON(w, rows)
}

func (m *MockServer) coinGeckoState() ([]Coin, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.coins, m.coingeckoStatus
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error":   map[string]string{"message": message, "type": "mock_error"},
		"status":  "error",
		"message": message,
	})
}

func generateDefaultNewsArticles() []NewsArticle {
	now := time.Now().UTC()
	return []NewsArticle{
		{
			Source:      map[string]string{"name": "CoinDesk"},
			Title:       "Bitcoin rally continues as institutional adoption grows",
			Description: "Analysts see strong support after the breakthrough.",
			URL:         "https://example.com/btc-rally",
			PublishedAt: now.Add(-1 * time.Hour).Format(time.RFC3339),
		},
		{
			Source:      map[string]string{"name": "The Block"},
			Title:       "Exchange hack raises security concerns",
			Description: "Regulators open an investigation.",
			URL:         "https://example.com/hack",
			PublishedAt: now.Add(-5 * time.Hour).Format(time.RFC3339),
		},
		{
			Source:      map[string]string{"name": "Decrypt"},
			Title:       "New partnership announced",
			Description: "Developers launch an upgrade.",
			URL:         "https://example.com/partnership",
			PublishedAt: now.Add(-24 * time.Hour).Format(time.RFC3339),
		},
	}
}
