package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"defi-assistant/config"
	"defi-assistant/models"
	"defi-assistant/observability"
)

// NewsAPIService handles communication with NewsAPI.org
type NewsAPIService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	retry      RetryConfig
}

// NewNewsAPIService creates a new NewsAPIService instance.
// An empty API key is allowed; GetNews then reports ErrNewsAPIKeyMissing.
func NewNewsAPIService(cfg config.NewsAPIConfig) *NewsAPIService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://newsapi.org/v2"
	}

	return &NewsAPIService{
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		retry:      DefaultRetryConfig,
	}
}

// NewsAPIResponse represents the response from NewsAPI
type NewsAPIResponse struct {
	Status       string `json:"status"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// HasCredentials reports whether an API key is configured
func (s *NewsAPIService) HasCredentials() bool {
	return s.apiKey != ""
}

// GetNews returns the newest English articles matching query
func (s *NewsAPIService) GetNews(ctx context.Context, query string, limit int) ([]models.NewsArticle, error) {
	if !s.HasCredentials() {
		return nil, ErrNewsAPIKeyMissing
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerNewsAPI, "everything")
	timer := metrics.NewTimer()

	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(limit))
	endpoint := s.baseURL + "/everything?" + params.Encode()
	headers := map[string]string{"X-Api-Key": s.apiKey}

	newsResp, err := WithCircuitBreaker(ctx, BreakerNewsAPI, func() (*NewsAPIResponse, error) {
		var resp NewsAPIResponse
		err := WithRetry(ctx, s.retry, func() error {
			return getJSON(ctx, s.httpClient, BreakerNewsAPI, endpoint, headers, &resp)
		})
		if err != nil {
			return nil, err
		}
		return &resp, nil
	})

	timer.ObserveExternalAPI(BreakerNewsAPI, "everything")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerNewsAPI, "everything", categorizeAPIError(err))
		return nil, fmt.Errorf("newsapi everything: %w", err)
	}

	articles := make([]models.NewsArticle, 0, len(newsResp.Articles))
	for _, item := range newsResp.Articles {
		publishedAt, err := time.Parse(time.RFC3339, item.PublishedAt)
		if err != nil {
			observability.Warn("failed to parse article timestamp, using current time",
				"published_at", item.PublishedAt,
				"error", err)
			publishedAt = time.Now()
		}

		articles = append(articles, models.NewsArticle{
			Title:       item.Title,
			Description: item.Description,
			URL:         item.URL,
			Source:      item.Source.Name,
			Author:      item.Author,
			ImageURL:    item.URLToImage,
			PublishedAt: publishedAt,
		})
	}

	return articles, nil
}
