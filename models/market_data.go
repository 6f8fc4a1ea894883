package models

import "time"

// MarketSnapshot is the USD price and 24h change of a token
type MarketSnapshot struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
}

// TokenSearchResult is one entry of a token search, ranked by relevance
type TokenSearchResult struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank,omitempty"`
}

// TokenMarket is a row of a market listing (top movers, top by market cap)
type TokenMarket struct {
	ID                    string  `json:"id"`
	Symbol                string  `json:"symbol"`
	Name                  string  `json:"name"`
	Price                 float64 `json:"price"`
	Change24h             float64 `json:"change_24h"`
	FullyDilutedValuation float64 `json:"fdv"`
	MarketCapRank         int     `json:"market_cap_rank"`
}

// NewsArticle represents a news article as returned by the news provider
type NewsArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Author      string    `json:"author,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
