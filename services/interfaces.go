package services

import (
	"context"

	"defi-assistant/models"
)

// CoinGeckoServiceInterface defines the market data operations backed by CoinGecko
type CoinGeckoServiceInterface interface {
	Search(ctx context.Context, query string) ([]models.TokenSearchResult, error)
	SimplePrice(ctx context.Context, ids []string) (map[string]models.MarketSnapshot, error)
	TopGainers(ctx context.Context, limit int) ([]models.TokenMarket, error)
	TopByMarketCap(ctx context.Context, limit int) ([]models.TokenMarket, error)
}

// NewsAPIServiceInterface defines the interface for news data operations
type NewsAPIServiceInterface interface {
	GetNews(ctx context.Context, query string, limit int) ([]models.NewsArticle, error)
	HasCredentials() bool
}

// LLMService produces the assistant reply for an ordered conversation
type LLMService interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// Compile-time interface verification
var _ CoinGeckoServiceInterface = (*CoinGeckoService)(nil)
var _ CoinGeckoServiceInterface = (*CachedCoinGeckoService)(nil)
var _ NewsAPIServiceInterface = (*NewsAPIService)(nil)
var _ LLMService = (*OpenAIService)(nil)
var _ LLMService = (*BedrockService)(nil)
