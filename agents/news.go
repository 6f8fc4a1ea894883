package agents

import (
	"context"
	"errors"
	"time"

	"defi-assistant/models"
	"defi-assistant/observability"
	"defi-assistant/sentiment"
	"defi-assistant/services"
)

const (
	newsQuerySuffix = " cryptocurrency"
	defaultPageSize = 10
)

// NewsAnalyst fetches recent articles about a token and condenses them into a
// sentiment analysis with a readable summary.
type NewsAnalyst struct {
	newsAPI     NewsAPIServiceInterface
	scorer      sentiment.Scorer
	pageSize    int
	timeout     time.Duration
	healthCache *HealthCache
}

// NewNewsAnalyst creates a NewsAnalyst using the lexicon scorer
func NewNewsAnalyst(newsAPI NewsAPIServiceInterface, pageSize int, timeout time.Duration) *NewsAnalyst {
	return NewNewsAnalystWithScorer(newsAPI, sentiment.NewLexiconScorer(), pageSize, timeout)
}

// NewNewsAnalystWithScorer creates a NewsAnalyst with a custom scorer
func NewNewsAnalystWithScorer(newsAPI NewsAPIServiceInterface, scorer sentiment.Scorer, pageSize int, timeout time.Duration) *NewsAnalyst {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &NewsAnalyst{
		newsAPI:     newsAPI,
		scorer:      scorer,
		pageSize:    pageSize,
		timeout:     timeout,
		healthCache: NewHealthCache(DefaultHealthCacheTTL),
	}
}

// HasCredentials reports whether news can be fetched at all
func (a *NewsAnalyst) HasCredentials() bool {
	return a.newsAPI.HasCredentials()
}

// Analyze returns the sentiment analysis for token, or nil when no news is available.
// Only a missing API key is returned as an error; fetch failures degrade to nil.
func (a *NewsAnalyst) Analyze(ctx context.Context, token string) (*models.NewsAnalysis, error) {
	metrics := observability.GetMetrics()
	logger := observability.WithToken(token)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.newsAPI.GetNews(ctx, token+newsQuerySuffix, a.pageSize)
	if err != nil {
		if errors.Is(err, services.ErrNewsAPIKeyMissing) {
			metrics.RecordNewsAnalysis("no_credentials")
			return nil, err
		}
		logger.Warn("news fetch failed, continuing without news", "error", err)
		metrics.RecordNewsAnalysis("error")
		return nil, nil
	}

	if len(raw) == 0 {
		logger.Debug("no articles found")
		metrics.RecordNewsAnalysis("empty")
		return nil, nil
	}

	articles := make([]models.Article, 0, len(raw))
	for _, item := range raw {
		article := models.Article{
			Title:       item.Title,
			Description: item.Description,
			Source:      item.Source,
			PublishedAt: item.PublishedAt,
			URL:         item.URL,
		}
		article.Sentiment = a.scorer.Score(article.Text())
		articles = append(articles, article)
	}

	agg := sentiment.Aggregate(articles)
	summary := sentiment.GenerateSummary(agg, articles)

	metrics.RecordNewsAnalysis("ok")
	metrics.RecordSentiment(string(agg.Sentiment), agg.Score)
	logger.Debug("news analysed",
		"articles", len(articles),
		"score", agg.Score,
		"sentiment", agg.Sentiment,
		"trend", agg.Trend)

	return &models.NewsAnalysis{
		Token:        token,
		Sentiment:    agg,
		ArticleCount: len(articles),
		Articles:     articles,
		Summary:      summary,
	}, nil
}

// IsAvailable checks if NewsAPI answers. Results are cached.
func (a *NewsAnalyst) IsAvailable(ctx context.Context) bool {
	if !a.newsAPI.HasCredentials() {
		return false
	}
	return a.healthCache.Check(ctx, func(ctx context.Context) bool {
		_, err := a.newsAPI.GetNews(ctx, "bitcoin"+newsQuerySuffix, 1)
		return err == nil
	})
}

// InvalidateHealthCache clears the health cache, forcing the next check to make a live call.
func (a *NewsAnalyst) InvalidateHealthCache() {
	a.healthCache.Invalidate()
}
