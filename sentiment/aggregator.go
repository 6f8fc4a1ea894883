package sentiment

import (
	"math"
	"sort"

	"defi-assistant/models"
)

const (
	// labelDeadband is the margin around zero inside which an aggregate stays neutral
	labelDeadband = 0.2
	// trendThreshold is the mean-score gap between newest and oldest thirds that counts as a trend
	trendThreshold = 1.0
	weightStep     = 0.1
	weightFloor    = 0.2
)

// RecencyWeight is the weight of the article at position i, most recent first
func RecencyWeight(i int) float64 {
	return math.Max(1.0-weightStep*float64(i), weightFloor)
}

// SortByRecency returns a copy of articles ordered by PublishedAt, newest first.
// Articles with equal timestamps keep their input order.
func SortByRecency(articles []models.Article) []models.Article {
	sorted := make([]models.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})
	return sorted
}

// Aggregate combines per-article scores into a recency-weighted sentiment
func Aggregate(articles []models.Article) models.AggregatedSentiment {
	if len(articles) == 0 {
		return models.AggregatedSentiment{
			Score:     0,
			Sentiment: models.SentimentNeutral,
			Strength:  0,
			Trend:     models.TrendStable,
		}
	}

	sorted := SortByRecency(articles)

	var totalScore, totalWeight float64
	for i, a := range sorted {
		w := RecencyWeight(i)
		totalScore += float64(a.Sentiment.Score) * w
		totalWeight += w
	}
	average := totalScore / totalWeight

	return models.AggregatedSentiment{
		Score:     average,
		Sentiment: aggregateLabel(average),
		Strength:  math.Abs(average),
		Trend:     trend(sorted),
	}
}

func aggregateLabel(average float64) models.SentimentLabel {
	switch {
	case average > labelDeadband:
		return models.SentimentPositive
	case average < -labelDeadband:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// trend compares the unweighted mean of the newest third against the oldest third.
// sorted must already be newest first.
func trend(sorted []models.Article) models.Trend {
	n := len(sorted)
	if n < 3 {
		return models.TrendStable
	}

	third := max(1, (n+2)/3)
	diff := meanScore(sorted[:third]) - meanScore(sorted[n-third:])

	switch {
	case diff > trendThreshold:
		return models.TrendImproving
	case diff < -trendThreshold:
		return models.TrendDeteriorating
	default:
		return models.TrendStable
	}
}

func meanScore(articles []models.Article) float64 {
	sum := 0
	for _, a := range articles {
		sum += a.Sentiment.Score
	}
	return float64(sum) / float64(len(articles))
}
