package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"defi-assistant/models"
	"defi-assistant/observability"
)

const (
	cacheName      = "coingecko"
	searchCacheTTL = time.Hour
	cacheWriteWait = 2 * time.Second
)

// CachedCoinGeckoService wraps a CoinGecko client with a Redis read-through cache.
// Redis failures are logged and fall through to the wrapped client.
type CachedCoinGeckoService struct {
	client   CoinGeckoServiceInterface
	redis    *redis.Client
	cacheTTL time.Duration
	group    singleflight.Group
}

// NewCachedCoinGeckoService creates a new cached CoinGecko client
func NewCachedCoinGeckoService(client CoinGeckoServiceInterface, redisClient *redis.Client, cacheTTL time.Duration) *CachedCoinGeckoService {
	return &CachedCoinGeckoService{
		client:   client,
		redis:    redisClient,
		cacheTTL: cacheTTL,
	}
}

func priceCacheKey(id string) string {
	return fmt.Sprintf("coingecko:price:%s:usd", id)
}

// Search returns cached search results, refreshing them hourly
func (c *CachedCoinGeckoService) Search(ctx context.Context, query string) ([]models.TokenSearchResult, error) {
	key := "coingecko:search:" + strings.ToLower(strings.TrimSpace(query))
	return readThrough(ctx, c, key, searchCacheTTL, func() ([]models.TokenSearchResult, error) {
		return c.client.Search(ctx, query)
	})
}

// SimplePrice serves each id from cache and fetches only the missing ones
func (c *CachedCoinGeckoService) SimplePrice(ctx context.Context, ids []string) (map[string]models.MarketSnapshot, error) {
	metrics := observability.GetMetrics()
	prices := make(map[string]models.MarketSnapshot, len(ids))
	var missing []string

	for _, id := range ids {
		var snap models.MarketSnapshot
		if c.lookup(ctx, priceCacheKey(id), &snap) {
			metrics.RecordCacheHit(cacheName)
			prices[id] = snap
			continue
		}
		metrics.RecordCacheMiss(cacheName)
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return prices, nil
	}

	key := "coingecko:price-batch:" + strings.Join(missing, ",")
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.client.SimplePrice(ctx, missing)
	})
	if err != nil {
		return nil, err
	}

	for id, snap := range v.(map[string]models.MarketSnapshot) {
		prices[id] = snap
		c.store(priceCacheKey(id), snap, c.cacheTTL)
	}
	return prices, nil
}

// TopGainers caches the top movers list for the price TTL
func (c *CachedCoinGeckoService) TopGainers(ctx context.Context, limit int) ([]models.TokenMarket, error) {
	key := fmt.Sprintf("coingecko:markets:gainers:%d", limit)
	return readThrough(ctx, c, key, c.cacheTTL, func() ([]models.TokenMarket, error) {
		return c.client.TopGainers(ctx, limit)
	})
}

// TopByMarketCap caches the market cap ranking for the price TTL
func (c *CachedCoinGeckoService) TopByMarketCap(ctx context.Context, limit int) ([]models.TokenMarket, error) {
	key := fmt.Sprintf("coingecko:markets:cap:%d", limit)
	return readThrough(ctx, c, key, c.cacheTTL, func() ([]models.TokenMarket, error) {
		return c.client.TopByMarketCap(ctx, limit)
	})
}

func readThrough[T any](ctx context.Context, c *CachedCoinGeckoService, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	metrics := observability.GetMetrics()

	var cached T
	if c.lookup(ctx, key, &cached) {
		metrics.RecordCacheHit(cacheName)
		return cached, nil
	}
	metrics.RecordCacheMiss(cacheName)

	v, err, _ := c.group.Do(key, func() (any, error) {
		return fetch()
	})
	if err != nil {
		var zero T
		return zero, err
	}

	result := v.(T)
	c.store(key, result, ttl)
	return result, nil
}

// lookup decodes the cached value at key into out and reports whether it was usable
func (c *CachedCoinGeckoService) lookup(ctx context.Context, key string, out any) bool {
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			observability.Warn("redis error during cache lookup", "cache_key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(raw, out); err != nil {
		observability.Warn("failed to unmarshal cached value, fetching fresh", "cache_key", key, "error", err)
		return false
	}

	observability.Debug("cache hit", "cache_key", key)
	return true
}

func (c *CachedCoinGeckoService) store(key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		observability.Warn("failed to marshal value for cache", "cache_key", key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteWait)
	defer cancel()

	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		observability.Warn("failed to cache result", "cache_key", key, "error", err)
	}
}
