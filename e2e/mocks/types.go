package mocks

// Coin is one token known to the mock CoinGecko API.
type Coin struct {
	ID            string
	Name          string
	Symbol        string
	MarketCapRank int
	Price         float64
	Change24h     float64
	FDV           float64
}

// NewsArticle represents a news article from NewsAPI.
type NewsArticle struct {
	Source      map[string]string `json:"source"`
	Author      string            `json:"author"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	URL         string            `json:"url"`
	PublishedAt string            `json:"publishedAt"`
}

// ChatMessage is one message of a chat completion request as received by the mock.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the subset of an OpenAI chat completion request the mock records.
type ChatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type coingeckoSearchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
}

type coingeckoMarket struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"current_price"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	FullyDilutedValuation    float64 `json:"fully_diluted_valuation"`
	MarketCapRank            int     `json:"market_cap_rank"`
}
