package agents

import (
	"context"
	"strings"
	"time"

	"defi-assistant/models"
	"defi-assistant/observability"
)

// MarketDataFetcher resolves free-text token names to CoinGecko ids and
// fetches their current price. It never fails a caller: every error is
// logged, counted and reported as "no data".
type MarketDataFetcher struct {
	coingecko   CoinGeckoServiceInterface
	timeout     time.Duration
	healthCache *HealthCache
}

// NewMarketDataFetcher creates a fetcher whose lookups are bounded by timeout
func NewMarketDataFetcher(coingecko CoinGeckoServiceInterface, timeout time.Duration) *MarketDataFetcher {
	return &MarketDataFetcher{
		coingecko:   coingecko,
		timeout:     timeout,
		healthCache: NewHealthCache(DefaultHealthCacheTTL),
	}
}

func (f *MarketDataFetcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.timeout)
}

// ResolveTokenID returns the id of the top search result for query
func (f *MarketDataFetcher) ResolveTokenID(ctx context.Context, query string) (string, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", false
	}

	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	results, err := f.coingecko.Search(ctx, query)
	if err != nil {
		observability.WithToken(query).Warn("token search failed", "error", err)
		observability.GetMetrics().RecordMarketLookup("error")
		return "", false
	}
	if len(results) == 0 || results[0].ID == "" {
		observability.GetMetrics().RecordMarketLookup("miss")
		return "", false
	}
	return results[0].ID, true
}

// FetchPrice returns the USD snapshot for a CoinGecko id
func (f *MarketDataFetcher) FetchPrice(ctx context.Context, id string) (*models.MarketSnapshot, bool) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	prices, err := f.coingecko.SimplePrice(ctx, []string{id})
	if err != nil {
		observability.WithToken(id).Warn("price fetch failed", "error", err)
		observability.GetMetrics().RecordMarketLookup("error")
		return nil, false
	}

	snapshot, ok := prices[id]
	if !ok {
		observability.GetMetrics().RecordMarketLookup("miss")
		return nil, false
	}
	return &snapshot, true
}

// Lookup resolves query and fetches its price in one step
func (f *MarketDataFetcher) Lookup(ctx context.Context, query string) (*models.MarketSnapshot, bool) {
	id, ok := f.ResolveTokenID(ctx, query)
	if !ok {
		return nil, false
	}

	snapshot, ok := f.FetchPrice(ctx, id)
	if ok {
		observability.GetMetrics().RecordMarketLookup("hit")
	}
	return snapshot, ok
}

// IsAvailable checks if CoinGecko answers. Results are cached.
func (f *MarketDataFetcher) IsAvailable(ctx context.Context) bool {
	return f.healthCache.Check(ctx, func(ctx context.Context) bool {
		ctx, cancel := f.withTimeout(ctx)
		defer cancel()
		_, err := f.coingecko.SimplePrice(ctx, []string{"bitcoin"})
		return err == nil
	})
}

// InvalidateHealthCache clears the health cache, forcing the next check to make a live call.
func (f *MarketDataFetcher) InvalidateHealthCache() {
	f.healthCache.Invalidate()
}
