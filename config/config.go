package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultPersona is the system prompt that opens every conversation
const DefaultPersona = "You are the Gordon Gecko of Crypto, and also the Wolf of Wallstreet. " +
	"Provide accurate advice about DeFi, trading, best tools, best practices and related advice. " +
	"When users ask about specific token prices or market data, you should use the real-time data provided to you. " +
	"Keep responses short, concise, and focused on DeFi."

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// LLM configuration
	LLM     LLMConfig
	OpenAI  OpenAIConfig
	Bedrock BedrockConfig

	// External service configurations
	NewsAPI   NewsAPIConfig
	CoinGecko CoinGeckoConfig

	// Chat configuration
	Chat ChatConfig

	// HTTP configuration
	HTTP HTTPConfig

	// Logging configuration
	Log LogConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds the market data cache configuration
type RedisConfig struct {
	URL            string
	MarketCacheTTL time.Duration
}

// LLMConfig selects the completion provider
type LLMConfig struct {
	Provider string // openai or bedrock
	Timeout  time.Duration
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
}

// BedrockConfig holds AWS Bedrock configuration
type BedrockConfig struct {
	Region    string
	ModelID   string
	MaxTokens int
}

// NewsAPIConfig holds NewsAPI configuration
type NewsAPIConfig struct {
	APIKey   string
	BaseURL  string
	PageSize int
	Timeout  time.Duration
}

// CoinGeckoConfig holds CoinGecko API configuration
type CoinGeckoConfig struct {
	APIKey        string
	BaseURL       string
	RatePerMinute int
	Timeout       time.Duration
}

// ChatConfig holds conversation handling configuration
type ChatConfig struct {
	Persona          string
	MaxHistoryTurns  int
	SessionTTL       time.Duration
	ConcurrencyLimit int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr               string
	CORSAllowedOrigins string
	StaticDir          string
	RequestTimeout     time.Duration
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string // json or text
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:            os.Getenv("REDIS_URL"),
			MarketCacheTTL: getEnvSeconds("MARKET_CACHE_TTL_SECONDS", 60),
		},
		LLM: LLMConfig{
			Provider: strings.ToLower(getEnvString("LLM_PROVIDER", "openai")),
			Timeout:  getEnvSeconds("LLM_TIMEOUT_SECONDS", 60),
		},
		OpenAI: OpenAIConfig{
			APIKey:    os.Getenv("OPENAI_API_KEY"),
			Model:     getEnvString("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens: getEnvInt("OPENAI_MAX_TOKENS", 500),
			BaseURL:   os.Getenv("OPENAI_BASE_URL"),
		},
		Bedrock: BedrockConfig{
			Region:    getEnvString("AWS_REGION", "us-east-1"),
			ModelID:   getEnvString("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),
			MaxTokens: getEnvInt("BEDROCK_MAX_TOKENS", 500),
		},
		NewsAPI: NewsAPIConfig{
			APIKey:   os.Getenv("NEWS_API_KEY"),
			BaseURL:  getEnvString("NEWS_API_BASE_URL", "https://newsapi.org/v2"),
			PageSize: getEnvInt("NEWS_PAGE_SIZE", 10),
			Timeout:  getEnvSeconds("NEWS_TIMEOUT_SECONDS", 10),
		},
		CoinGecko: CoinGeckoConfig{
			APIKey:        os.Getenv("COINGECKO_API_KEY"),
			BaseURL:       getEnvString("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			RatePerMinute: getEnvInt("COINGECKO_RATE_PER_MINUTE", 30),
			Timeout:       getEnvSeconds("MARKET_TIMEOUT_SECONDS", 10),
		},
		Chat: ChatConfig{
			Persona:          getEnvString("CHAT_PERSONA", DefaultPersona),
			MaxHistoryTurns:  getEnvInt("CHAT_MAX_HISTORY_TURNS", 20),
			SessionTTL:       getEnvMinutes("CHAT_SESSION_TTL_MINUTES", 60),
			ConcurrencyLimit: getEnvInt("CHAT_CONCURRENCY_LIMIT", 16),
		},
		HTTP: HTTPConfig{
			Addr:               getEnvString("HTTP_ADDR", ":3000"),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			StaticDir:          getEnvString("STATIC_DIR", "public"),
			RequestTimeout:     getEnvSeconds("REQUEST_TIMEOUT_SECONDS", 90),
		},
		Log: LogConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnvString("LOG_FORMAT", "json")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "bedrock":
	default:
		return fmt.Errorf("LLM_PROVIDER must be openai or bedrock, got %q", c.LLM.Provider)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	if c.Chat.ConcurrencyLimit <= 0 {
		return fmt.Errorf("CHAT_CONCURRENCY_LIMIT must be positive, got %d", c.Chat.ConcurrencyLimit)
	}
	if c.Chat.MaxHistoryTurns <= 0 {
		return fmt.Errorf("CHAT_MAX_HISTORY_TURNS must be positive, got %d", c.Chat.MaxHistoryTurns)
	}
	if strings.TrimSpace(c.Chat.Persona) == "" {
		return fmt.Errorf("CHAT_PERSONA must not be blank")
	}
	if c.NewsAPI.PageSize > 100 {
		return fmt.Errorf("NEWS_PAGE_SIZE must be at most 100, got %d", c.NewsAPI.PageSize)
	}

	return nil
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasRedis returns true if a market data cache is configured
func (c *Config) HasRedis() bool {
	return c.Redis.URL != ""
}

// HasOpenAI returns true if OpenAI configuration is available
func (c *Config) HasOpenAI() bool {
	return c.OpenAI.APIKey != ""
}

// HasBedrock returns true if Bedrock is the selected provider and has a model
func (c *Config) HasBedrock() bool {
	return c.LLM.Provider == "bedrock" && c.Bedrock.ModelID != ""
}

// HasNewsAPI returns true if NewsAPI configuration is available
func (c *Config) HasNewsAPI() bool {
	return c.NewsAPI.APIKey != ""
}

// IsProduction reports whether logs should be emitted as JSON
func (c *Config) IsProduction() bool {
	return c.Log.Format == "json"
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

func getEnvMinutes(key string, defaultMinutes int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMinutes)) * time.Minute
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Redis: RedisConfig{
			MarketCacheTTL: 60 * time.Second,
		},
		LLM: LLMConfig{
			Provider: "openai",
			Timeout:  60 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Model:     "gpt-4o-mini",
			MaxTokens: 500,
		},
		Bedrock: BedrockConfig{
			Region:    "us-east-1",
			ModelID:   "anthropic.claude-3-haiku-20240307-v1:0",
			MaxTokens: 500,
		},
		NewsAPI: NewsAPIConfig{
			BaseURL:  "https://newsapi.org/v2",
			PageSize: 10,
			Timeout:  10 * time.Second,
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL:       "https://api.coingecko.com/api/v3",
			RatePerMinute: 30,
			Timeout:       10 * time.Second,
		},
		Chat: ChatConfig{
			Persona:          DefaultPersona,
			MaxHistoryTurns:  20,
			SessionTTL:       60 * time.Minute,
			ConcurrencyLimit: 16,
		},
		HTTP: HTTPConfig{
			Addr:               ":3000",
			CORSAllowedOrigins: "*",
			StaticDir:          "public",
			RequestTimeout:     90 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
