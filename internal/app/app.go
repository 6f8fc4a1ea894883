package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"defi-assistant/assistant"
	"defi-assistant/config"
	"defi-assistant/models"
	"defi-assistant/observability"
	"defi-assistant/repository"
	"defi-assistant/services"
)

const (
	topTokensLimit       = 5
	availableTokensLimit = 100
	feedbackListLimit    = 50
)

// DefaultPriceIDs are quoted by MarketPrices when no ids are given
var DefaultPriceIDs = []string{"bitcoin", "ethereum"}

var (
	// ErrQueueFull is returned when every chat slot is busy
	ErrQueueFull = errors.New("chat queue full, too many concurrent requests - try again later")
	// ErrQueryRequired is returned by SearchTokens for a blank query
	ErrQueryRequired = errors.New("query parameter is required")
	// ErrInvalidFeedback is returned when feedback is missing its message id or text
	ErrInvalidFeedback = errors.New("messageId and feedback are required")
)

// ChatService runs one conversational turn
type ChatService interface {
	Chat(ctx context.Context, req assistant.ChatRequest) (*assistant.ChatResponse, error)
}

// AvailabilityChecker reports whether an upstream dependency is reachable
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context) bool
}

// Deps are the collaborators wired into App
type Deps struct {
	Chat      ChatService
	CoinGecko services.CoinGeckoServiceInterface
	Feedback  repository.FeedbackStore
	Sessions  *assistant.SessionStore
	Market    AvailabilityChecker
	News      AvailabilityChecker
}

// App struct holds application dependencies using interfaces for testability
type App struct {
	cfg       *config.Config
	chat      ChatService
	coingecko services.CoinGeckoServiceInterface
	feedback  repository.FeedbackStore
	sessions  *assistant.SessionStore
	market    AvailabilityChecker
	news      AvailabilityChecker
	chatSem   chan struct{}
}

// New creates a new App
func New(cfg *config.Config, deps Deps) *App {
	feedback := deps.Feedback
	if feedback == nil {
		feedback = repository.NewMemoryStore()
	}
	return &App{
		cfg:       cfg,
		chat:      deps.Chat,
		coingecko: deps.CoinGecko,
		feedback:  feedback,
		sessions:  deps.Sessions,
		market:    deps.Market,
		news:      deps.News,
		chatSem:   make(chan struct{}, cfg.Chat.ConcurrencyLimit),
	}
}

// Shutdown releases the feedback store
func (a *App) Shutdown(ctx context.Context) {
	if a.feedback != nil {
		a.feedback.Close()
	}
}

// Chat runs one turn, refusing immediately when the chat queue is full
func (a *App) Chat(ctx context.Context, req assistant.ChatRequest) (*assistant.ChatResponse, error) {
	if a.chat == nil {
		return nil, fmt.Errorf("assistant not initialized")
	}

	select {
	case a.chatSem <- struct{}{}:
		defer func() { <-a.chatSem }()
	default:
		observability.GetMetrics().RecordChatError("queue_full")
		return nil, ErrQueueFull
	}

	return a.chat.Chat(ctx, req)
}

// SubmitFeedback records a user's reaction to an assistant message
func (a *App) SubmitFeedback(ctx context.Context, messageID, feedback string) (*models.Feedback, error) {
	messageID = strings.TrimSpace(messageID)
	feedback = strings.TrimSpace(feedback)
	if messageID == "" || feedback == "" {
		return nil, ErrInvalidFeedback
	}

	fb := models.NewFeedback(messageID, feedback)
	if err := a.feedback.CreateFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}

	observability.GetMetrics().RecordFeedback(feedback)
	observability.Info("feedback received", "message_id", messageID, "feedback", feedback)
	return fb, nil
}

// RecentFeedback lists stored feedback, newest first
func (a *App) RecentFeedback(ctx context.Context, messageID string) ([]models.Feedback, error) {
	return a.feedback.GetFeedback(ctx, strings.TrimSpace(messageID), feedbackListLimit)
}

// TopTokens returns the biggest 24h gainers
func (a *App) TopTokens(ctx context.Context) ([]models.TokenMarket, error) {
	if a.coingecko == nil {
		return nil, fmt.Errorf("market data not initialized")
	}
	return a.coingecko.TopGainers(ctx, topTokensLimit)
}

// MarketPrices quotes the given CoinGecko ids, defaulting to DefaultPriceIDs
func (a *App) MarketPrices(ctx context.Context, ids []string) (map[string]models.MarketSnapshot, error) {
	if a.coingecko == nil {
		return nil, fmt.Errorf("market data not initialized")
	}
	cleaned := ParseIDs(ids)
	if len(cleaned) == 0 {
		cleaned = DefaultPriceIDs
	}
	return a.coingecko.SimplePrice(ctx, cleaned)
}

// AvailableTokens returns the top tokens by market cap
func (a *App) AvailableTokens(ctx context.Context) ([]models.TokenMarket, error) {
	if a.coingecko == nil {
		return nil, fmt.Errorf("market data not initialized")
	}
	return a.coingecko.TopByMarketCap(ctx, availableTokensLimit)
}

// SearchTokens looks tokens up by name or symbol
func (a *App) SearchTokens(ctx context.Context, query string) ([]models.TokenSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}
	if a.coingecko == nil {
		return nil, fmt.Errorf("market data not initialized")
	}
	return a.coingecko.Search(ctx, query)
}

// HealthStatus summarizes dependency state for /api/health
type HealthStatus struct {
	Status          string                          `json:"status"`
	LLMProvider     string                          `json:"llm_provider"`
	Database        bool                            `json:"database"`
	FeedbackStore   string                          `json:"feedback_store"`
	MarketData      bool                            `json:"market_data"`
	NewsAPI         bool                            `json:"news_api"`
	ActiveSessions  int                             `json:"active_sessions"`
	CircuitBreakers []services.CircuitBreakerStatus `json:"circuit_breakers"`
	CheckedAt       time.Time                       `json:"checked_at"`
}

// Health probes the dependencies. Status is "degraded" when the feedback store is
// unhealthy or any circuit breaker is open.
func (a *App) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:          "ok",
		LLMProvider:     a.cfg.LLM.Provider,
		Database:        a.cfg.HasDatabase(),
		FeedbackStore:   "ok",
		CircuitBreakers: services.GetGlobalRegistry().Status(),
		CheckedAt:       time.Now().UTC(),
	}

	if err := a.feedback.Health(ctx); err != nil {
		observability.Warn("feedback store unhealthy", "error", err)
		status.Status = "degraded"
		status.FeedbackStore = err.Error()
	}
	for _, cb := range status.CircuitBreakers {
		if cb.State == "open" {
			status.Status = "degraded"
			break
		}
	}
	if a.market != nil {
		status.MarketData = a.market.IsAvailable(ctx)
	}
	if a.news != nil {
		status.NewsAPI = a.news.IsAvailable(ctx)
	}
	if a.sessions != nil {
		status.ActiveSessions = a.sessions.Len()
	}
	return status
}

// RunSessionJanitor evicts idle sessions every interval until ctx is done
func (a *App) RunSessionJanitor(ctx context.Context, interval time.Duration) {
	if a.sessions == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sessions.Prune()
		}
	}
}

// ParseIDs splits comma separated ids, lower-casing and dropping blanks
func ParseIDs(raw []string) []string {
	var ids []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if id := strings.ToLower(strings.TrimSpace(part)); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// ChatSemCapacity returns the capacity of the chat semaphore (for testing)
func (a *App) ChatSemCapacity() int {
	return cap(a.chatSem)
}
