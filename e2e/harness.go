// Package e2e provides end-to-end testing infrastructure for defi-assistant.
package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"defi-assistant/agents"
	"defi-assistant/assistant"
	"defi-assistant/config"
	"defi-assistant/e2e/mocks"
	"defi-assistant/internal/api"
	"defi-assistant/internal/app"
	"defi-assistant/repository"
	"defi-assistant/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// TestHarness wires the real services, agents, assistant and router against mocked upstreams.
type TestHarness struct {
	t          *testing.T
	ctx        context.Context
	cancel     context.CancelFunc
	mockServer *mocks.MockServer
	redis      *miniredis.Miniredis
	feedback   repository.FeedbackStore
	sessions   *assistant.SessionStore
	app        *app.App
	router     http.Handler
	config     *config.Config
}

// Option customizes the harness configuration before wiring.
type Option func(cfg *config.Config)

// WithoutNewsAPIKey leaves NEWS_API_KEY unset.
func WithoutNewsAPIKey() Option {
	return func(cfg *config.Config) { cfg.NewsAPI.APIKey = "" }
}

// WithMaxHistoryTurns overrides the retained conversation length.
func WithMaxHistoryTurns(n int) Option {
	return func(cfg *config.Config) { cfg.Chat.MaxHistoryTurns = n }
}

// NewTestHarness creates a new test harness with all dependencies initialized.
// Resources are released through t.Cleanup.
func NewTestHarness(t *testing.T, opts ...Option) *TestHarness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	h := &TestHarness{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
	}
	t.Cleanup(h.Teardown)

	// Fresh breakers so failures injected by one test cannot trip the next
	services.SetGlobalRegistry(services.NewCircuitBreakerRegistry(services.DefaultCircuitBreakerConfig))

	h.mockServer = mocks.NewMockServer()
	h.redis = miniredis.RunT(t)
	h.config = h.createTestConfig()
	for _, opt := range opts {
		opt(h.config)
	}

	h.feedback = h.newFeedbackStore()
	h.wire()
	return h
}

func (h *TestHarness) wire() {
	cfg := h.config

	llm, err := services.NewOpenAIService(cfg)
	if err != nil {
		h.t.Fatalf("failed to create LLM service: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: h.redis.Addr()})
	h.t.Cleanup(func() { rdb.Close() })
	coingecko := services.NewCachedCoinGeckoService(services.NewCoinGeckoService(cfg.CoinGecko), rdb, cfg.Redis.MarketCacheTTL)

	news := services.NewNewsAPIService(cfg.NewsAPI)
	market := agents.NewMarketDataFetcher(coingecko, cfg.CoinGecko.Timeout)
	analyst := agents.NewNewsAnalyst(news, cfg.NewsAPI.PageSize, cfg.NewsAPI.Timeout)
	h.sessions = assistant.NewSessionStore(cfg.Chat.Persona, cfg.Chat.MaxHistoryTurns, cfg.Chat.SessionTTL)

	h.app = app.New(cfg, app.Deps{
		Chat:      assistant.New(llm, market, analyst, h.sessions, cfg.LLM.Timeout),
		CoinGecko: coingecko,
		Feedback:  h.feedback,
		Sessions:  h.sessions,
		Market:    market,
		News:      analyst,
	})
	h.router = api.NewRouter(api.NewHandler(h.app, cfg), cfg)
}

// Teardown cleans up all test resources.
func (h *TestHarness) Teardown() {
	if h.cancel != nil {
		h.cancel()
	}
	if h.app != nil {
		h.app.Shutdown(context.Background())
	}
	if h.mockServer != nil {
		h.mockServer.Close()
	}
}

// Context returns the test context.
func (h *TestHarness) Context() context.Context {
	return h.ctx
}

// MockServer returns the mock server for configuring responses.
func (h *TestHarness) MockServer() *mocks.MockServer {
	return h.mockServer
}

// Redis returns the in-process Redis backing the market data cache.
func (h *TestHarness) Redis() *miniredis.Miniredis {
	return h.redis
}

// Sessions returns the conversation store.
func (h *TestHarness) Sessions() *assistant.SessionStore {
	return h.sessions
}

// App returns the application instance.
func (h *TestHarness) App() *app.App {
	return h.app
}

// Router returns the HTTP router for making requests.
func (h *TestHarness) Router() http.Handler {
	return h.router
}

// Config returns the test configuration.
func (h *TestHarness) Config() *config.Config {
	return h.config
}

// DoRequest performs an HTTP request and returns the response.
func (h *TestHarness) DoRequest(method, path string, body string) *httptest.ResponseRecorder {
	return h.DoRequestWithHeaders(method, path, body, nil)
}

// DoRequestWithHeaders performs an HTTP request with extra headers.
func (h *TestHarness) DoRequestWithHeaders(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *TestHarness) createTestConfig() *config.Config {
	mockURL := h.mockServer.URL()

	cfg := config.NewTestConfig()
	cfg.OpenAI.APIKey = "test-openai-key"
	cfg.OpenAI.BaseURL = mockURL + "/v1"
	cfg.NewsAPI.APIKey = "test-news-key"
	cfg.NewsAPI.BaseURL = mockURL
	cfg.CoinGecko.BaseURL = mockURL
	cfg.CoinGecko.RatePerMinute = 60000
	cfg.HTTP.StaticDir = h.t.TempDir()
	cfg.LLM.Timeout = 10 * time.Second

	if dbURL := os.Getenv("E2E_DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	return cfg
}

// newFeedbackStore uses PostgreSQL when E2E_DATABASE_URL is set, otherwise memory
func (h *TestHarness) newFeedbackStore() repository.FeedbackStore {
	if !h.config.HasDatabase() {
		return repository.NewMemoryStore()
	}

	repo, err := repository.NewRepository(h.ctx, h.config.Database.URL)
	if err != nil {
		h.t.Fatalf("failed to connect to test database: %v", err)
	}
	if err := repo.EnsureSchema(h.ctx); err != nil {
		h.t.Fatalf("failed to apply schema: %v", err)
	}
	return repo
}
