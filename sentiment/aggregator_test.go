package sentiment

import (
	"math"
	"testing"
	"time"

	"defi-assistant/models"
)

const epsilon = 1e-9

// articlesNewestFirst builds articles one hour apart, the first being the most recent
func articlesNewestFirst(scores ...int) []models.Article {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	articles := make([]models.Article, len(scores))
	for i, s := range scores {
		articles[i] = models.Article{
			Title:       "article",
			PublishedAt: base.Add(-time.Duration(i) * time.Hour),
			Sentiment:   models.SentimentScore{Score: s, Sentiment: models.LabelForScore(s)},
		}
	}
	return articles
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil)
	want := models.AggregatedSentiment{Score: 0, Sentiment: models.SentimentNeutral, Strength: 0, Trend: models.TrendStable}

	if got != want {
		t.Errorf("Aggregate(nil) = %+v, want %+v", got, want)
	}
}

func TestAggregate_SingleArticle(t *testing.T) {
	for _, score := range []int{-4, 0, 3} {
		got := Aggregate(articlesNewestFirst(score))
		if math.Abs(got.Score-float64(score)) > epsilon {
			t.Errorf("Aggregate([%d]).Score = %v, want %d", score, got.Score, score)
		}
		if math.Abs(got.Strength-math.Abs(float64(score))) > epsilon {
			t.Errorf("Aggregate([%d]).Strength = %v", score, got.Strength)
		}
		if got.Trend != models.TrendStable {
			t.Errorf("Aggregate([%d]).Trend = %v, want stable", score, got.Trend)
		}
	}
}

func TestAggregate_FewerThanThreeIsStable(t *testing.T) {
	got := Aggregate(articlesNewestFirst(10, -10))
	if got.Trend != models.TrendStable {
		t.Errorf("Trend = %v, want stable for two articles", got.Trend)
	}
}

func TestAggregate_SortsByRecency(t *testing.T) {
	articles := articlesNewestFirst(2, -2)
	// Present oldest first; the newest article must still get weight 1.0
	reversed := []models.Article{articles[1], articles[0]}

	got := Aggregate(reversed)
	want := (2*1.0 + -2*0.9) / 1.9

	if math.Abs(got.Score-want) > epsilon {
		t.Errorf("Score = %v, want %v", got.Score, want)
	}
	if reversed[0].Sentiment.Score != -2 {
		t.Error("Aggregate must not reorder the caller's slice")
	}
}

func TestAggregate_Trend(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   models.Trend
	}{
		{"improving", []int{3, 0, -1}, models.TrendImproving},
		{"deteriorating", []int{-2, 0, 1}, models.TrendDeteriorating},
		{"stable", []int{1, 1, 1}, models.TrendStable},
		{"difference of exactly one is stable", []int{2, 0, 1}, models.TrendStable},
		// ceil(4/3) = 2: means 1.5 and 0.5
		{"thirds round up", []int{3, 0, 0, 1}, models.TrendStable},
		{"six articles", []int{4, 4, 0, 0, 0, 0}, models.TrendImproving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(articlesNewestFirst(tt.scores...)).Trend; got != tt.want {
				t.Errorf("Trend(%v) = %v, want %v", tt.scores, got, tt.want)
			}
		})
	}
}

func TestAggregate_Deadband(t *testing.T) {
	// A single +1 at position 9 is diluted to 0.2/5.6
	scores := make([]int, 10)
	scores[9] = 1
	got := Aggregate(articlesNewestFirst(scores...))

	if got.Sentiment != models.SentimentNeutral {
		t.Errorf("Sentiment = %v, want neutral inside deadband (score %v)", got.Sentiment, got.Score)
	}

	if got := Aggregate(articlesNewestFirst(1, 0)); got.Sentiment != models.SentimentPositive {
		t.Errorf("Sentiment = %v, want positive for %v", got.Sentiment, got.Score)
	}
	if got := Aggregate(articlesNewestFirst(-1, 0)); got.Sentiment != models.SentimentNegative {
		t.Errorf("Sentiment = %v, want negative for %v", got.Sentiment, got.Score)
	}
}

func TestRecencyWeight(t *testing.T) {
	tests := []struct {
		i    int
		want float64
	}{
		{0, 1.0},
		{1, 0.9},
		{5, 0.5},
		{8, 0.2},
		{9, 0.2},
		{19, 0.2},
		{100, 0.2},
	}

	for _, tt := range tests {
		if got := RecencyWeight(tt.i); math.Abs(got-tt.want) > epsilon {
			t.Errorf("RecencyWeight(%d) = %v, want %v", tt.i, got, tt.want)
		}
	}

	if got := RecencyWeight(19); got < 0.2 {
		t.Errorf("RecencyWeight(19) = %v, must not drop below 0.2", got)
	}
}

func TestAggregate_TwentyArticlesUsesFloor(t *testing.T) {
	scores := make([]int, 20)
	scores[19] = 10
	got := Aggregate(articlesNewestFirst(scores...))

	var total float64
	for i := 0; i < 20; i++ {
		total += RecencyWeight(i)
	}
	want := 10 * 0.2 / total

	if math.Abs(got.Score-want) > epsilon {
		t.Errorf("Score = %v, want %v", got.Score, want)
	}
}
