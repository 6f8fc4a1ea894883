// Command server runs the DeFi chat assistant HTTP API and serves the browser client.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"defi-assistant/agents"
	"defi-assistant/assistant"
	"defi-assistant/config"
	"defi-assistant/internal/api"
	"defi-assistant/internal/app"
	"defi-assistant/observability"
	"defi-assistant/repository"
	"defi-assistant/services"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const sessionJanitorInterval = time.Minute

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	observability.InitLoggerWithLevel(cfg.IsProduction(), observability.ParseLevel(cfg.Log.Level))
	observability.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llm, err := newLLMService(ctx, cfg)
	if err != nil {
		observability.Fatal("failed to initialize LLM provider", "provider", cfg.LLM.Provider, "error", err)
	}

	coingecko := newCoinGecko(ctx, cfg)
	feedback := newFeedbackStore(ctx, cfg)

	newsAPI := services.NewNewsAPIService(cfg.NewsAPI)
	if !newsAPI.HasCredentials() {
		observability.Warn("NEWS_API_KEY not set, news sentiment analysis disabled")
	}

	market := agents.NewMarketDataFetcher(coingecko, cfg.CoinGecko.Timeout)
	analyst := agents.NewNewsAnalyst(newsAPI, cfg.NewsAPI.PageSize, cfg.NewsAPI.Timeout)
	sessions := assistant.NewSessionStore(cfg.Chat.Persona, cfg.Chat.MaxHistoryTurns, cfg.Chat.SessionTTL)

	application := app.New(cfg, app.Deps{
		Chat:      assistant.New(llm, market, analyst, sessions, cfg.LLM.Timeout),
		CoinGecko: coingecko,
		Feedback:  feedback,
		Sessions:  sessions,
		Market:    market,
		News:      analyst,
	})
	go application.RunSessionJanitor(ctx, sessionJanitorInterval)

	handler := api.NewHandler(application, cfg)
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(handler, cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.HTTP.RequestTimeout + 5*time.Second,
	}

	go func() {
		observability.Info("starting server", "addr", cfg.HTTP.Addr, "llm_provider", cfg.LLM.Provider, "static_dir", cfg.HTTP.StaticDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	observability.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("server forced to shutdown", "error", err)
	}
	application.Shutdown(shutdownCtx)
	observability.Info("server stopped")
}

func newLLMService(ctx context.Context, cfg *config.Config) (services.LLMService, error) {
	if cfg.LLM.Provider == "bedrock" {
		bedrock, err := services.NewBedrockService(ctx, cfg.Bedrock)
		if err != nil {
			return nil, err
		}
		return bedrock, nil
	}

	openai, err := services.NewOpenAIService(cfg)
	if err != nil {
		return nil, err
	}
	return openai, nil
}

// newCoinGecko returns the CoinGecko client, fronted by Redis when REDIS_URL is set and reachable
func newCoinGecko(ctx context.Context, cfg *config.Config) services.CoinGeckoServiceInterface {
	client := services.NewCoinGeckoService(cfg.CoinGecko)
	if !cfg.HasRedis() {
		return client
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		observability.Warn("invalid REDIS_URL, market data cache disabled", "error", err)
		return client
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		observability.Warn("redis unreachable, market data cache disabled", "error", err)
		rdb.Close()
		return client
	}

	observability.Info("market data cache enabled", "ttl", cfg.Redis.MarketCacheTTL)
	return services.NewCachedCoinGeckoService(client, rdb, cfg.Redis.MarketCacheTTL)
}

// newFeedbackStore connects to PostgreSQL when DATABASE_URL is set, otherwise keeps feedback in memory
func newFeedbackStore(ctx context.Context, cfg *config.Config) repository.FeedbackStore {
	if !cfg.HasDatabase() {
		observability.Info("DATABASE_URL not set, feedback kept in memory")
		return repository.NewMemoryStore()
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	repo, err := repository.NewRepository(connectCtx, cfg.Database.URL)
	if err != nil {
		observability.Warn("failed to initialize database, feedback kept in memory", "error", err)
		return repository.NewMemoryStore()
	}
	if err := repo.EnsureSchema(connectCtx); err != nil {
		observability.Warn("failed to apply feedback schema, feedback kept in memory", "error", err)
		repo.Close()
		return repository.NewMemoryStore()
	}
	return repo
}
