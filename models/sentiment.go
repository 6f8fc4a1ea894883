package models

import "time"

// SentimentLabel is the polarity of a scored text or an aggregate of scores
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Trend is the direction sentiment moved between older and newer articles
type Trend string

const (
	TrendImproving     Trend = "improving"
	TrendDeteriorating Trend = "deteriorating"
	TrendStable        Trend = "stable"
)

// SentimentScore is the lexicon score of a single text span
type SentimentScore struct {
	Score           int            `json:"score"`
	Sentiment       SentimentLabel `json:"sentiment"`
	PositiveMatches []string       `json:"positive_matches"`
	NegativeMatches []string       `json:"negative_matches"`
}

// LabelForScore derives the label of a raw score: any positive score is positive,
// any negative score is negative.
func LabelForScore(score int) SentimentLabel {
	switch {
	case score > 0:
		return SentimentPositive
	case score < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// AggregatedSentiment is the recency-weighted sentiment of a set of articles
type AggregatedSentiment struct {
	Score     float64        `json:"score"`
	Sentiment SentimentLabel `json:"sentiment"`
	Strength  float64        `json:"strength"`
	Trend     Trend          `json:"trend"`
}

// Article is a news article together with its computed sentiment
type Article struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Source      string         `json:"source"`
	PublishedAt time.Time      `json:"published_at"`
	URL         string         `json:"url"`
	Sentiment   SentimentScore `json:"sentiment"`
}

// Text returns the span the scorer analyses: title and description joined by a space
func (a Article) Text() string {
	return a.Title + " " + a.Description
}

// NewsAnalysis is the result of analysing recent news about one token
type NewsAnalysis struct {
	Token        string              `json:"token"`
	Sentiment    AggregatedSentiment `json:"sentiment"`
	ArticleCount int                 `json:"article_count"`
	Articles     []Article           `json:"articles"`
	Summary      string              `json:"summary"`
}
