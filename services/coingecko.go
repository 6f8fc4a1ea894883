package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"defi-assistant/config"
	"defi-assistant/models"
	"defi-assistant/observability"
)

// CoinGeckoService handles communication with the CoinGecko public API
type CoinGeckoService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retry      RetryConfig
}

// NewCoinGeckoService creates a new CoinGeckoService instance
func NewCoinGeckoService(cfg config.CoinGeckoConfig) *CoinGeckoService {
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &CoinGeckoService{
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), max(1, perMinute/6)),
		retry:      DefaultRetryConfig,
	}
}

// coingeckoSearchResponse is the body of GET /search
type coingeckoSearchResponse struct {
	Coins []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Symbol        string `json:"symbol"`
		MarketCapRank int    `json:"market_cap_rank"`
	} `json:"coins"`
}

// coingeckoMarket is one row of GET /coins/markets
type coingeckoMarket struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	CurrentPrice             float64  `json:"current_price"`
	PriceChangePercentage24h float64  `json:"price_change_percentage_24h"`
	FullyDilutedValuation    *float64 `json:"fully_diluted_valuation"`
	MarketCapRank            int      `json:"market_cap_rank"`
}

// Search returns coins matching query, most relevant first
func (s *CoinGeckoService) Search(ctx context.Context, query string) ([]models.TokenSearchResult, error) {
	params := url.Values{}
	params.Set("query", query)

	var resp coingeckoSearchResponse
	if err := s.get(ctx, "search", "/search", params, &resp); err != nil {
		return nil, err
	}

	results := make([]models.TokenSearchResult, 0, len(resp.Coins))
	for _, c := range resp.Coins {
		results = append(results, models.TokenSearchResult{
			ID:            c.ID,
			Name:          c.Name,
			Symbol:        c.Symbol,
			MarketCapRank: c.MarketCapRank,
		})
	}
	return results, nil
}

// SimplePrice returns the USD price and 24h change for each id CoinGecko knows
func (s *CoinGeckoService) SimplePrice(ctx context.Context, ids []string) (map[string]models.MarketSnapshot, error) {
	if len(ids) == 0 {
		return map[string]models.MarketSnapshot{}, nil
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")

	prices := make(map[string]models.MarketSnapshot)
	if err := s.get(ctx, "simple_price", "/simple/price", params, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// TopGainers returns the coins with the largest 24h price increase
func (s *CoinGeckoService) TopGainers(ctx context.Context, limit int) ([]models.TokenMarket, error) {
	return s.markets(ctx, "top_gainers", "price_change_percentage_24h_desc", limit)
}

// TopByMarketCap returns the largest coins by market capitalisation
func (s *CoinGeckoService) TopByMarketCap(ctx context.Context, limit int) ([]models.TokenMarket, error) {
	return s.markets(ctx, "top_market_cap", "market_cap_desc", limit)
}

func (s *CoinGeckoService) markets(ctx context.Context, operation, order string, limit int) ([]models.TokenMarket, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 250 {
		limit = 250
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", order)
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("page", "1")
	params.Set("sparkline", "false")
	params.Set("price_change_percentage", "24h")

	var rows []coingeckoMarket
	if err := s.get(ctx, operation, "/coins/markets", params, &rows); err != nil {
		return nil, err
	}

	markets := make([]models.TokenMarket, 0, len(rows))
	for _, r := range rows {
		m := models.TokenMarket{
			ID:            r.ID,
			Symbol:        strings.ToUpper(r.Symbol),
			Name:          r.Name,
			Price:         r.CurrentPrice,
			Change24h:     r.PriceChangePercentage24h,
			MarketCapRank: r.MarketCapRank,
		}
		if r.FullyDilutedValuation != nil {
			m.FullyDilutedValuation = *r.FullyDilutedValuation
		}
		markets = append(markets, m)
	}
	return markets, nil
}

// get runs one rate-limited, retried request under the coingecko breaker
func (s *CoinGeckoService) get(ctx context.Context, operation, path string, params url.Values, out any) error {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerCoinGecko, operation)
	timer := metrics.NewTimer()

	var headers map[string]string
	if s.apiKey != "" {
		headers = map[string]string{"x-cg-demo-api-key": s.apiKey}
	}

	_, err := WithCircuitBreaker(ctx, BreakerCoinGecko, func() (struct{}, error) {
		return struct{}{}, WithRetry(ctx, s.retry, func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				return Permanent(fmt.Errorf("coingecko rate limiter: %w", err))
			}
			return getJSON(ctx, s.httpClient, BreakerCoinGecko, s.baseURL+path+"?"+params.Encode(), headers, out)
		})
	})

	timer.ObserveExternalAPI(BreakerCoinGecko, operation)
	if err != nil {
		metrics.RecordExternalAPIError(BreakerCoinGecko, operation, categorizeAPIError(err))
		return fmt.Errorf("coingecko %s: %w", operation, err)
	}
	return nil
}
