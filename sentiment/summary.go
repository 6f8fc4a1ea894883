package sentiment

import (
	"fmt"
	"strings"

	"defi-assistant/models"
)

const (
	mixedThreshold  = 0.3
	strongThreshold = 0.6
	maxKeyPoints    = 5
	// keyPointDate renders like "Mar 4, 09:15 AM"
	keyPointDate = "Jan 2, 03:04 PM"
	disclaimer   = "Note: This sentiment analysis is based on recent news and should not be considered financial advice."
)

// GenerateSummary renders the narrative handed to the LLM for a news analysis
func GenerateSummary(agg models.AggregatedSentiment, articles []models.Article) string {
	var b strings.Builder
	b.WriteString("Recent News Analysis:\n")

	var outlook string
	switch {
	case agg.Strength < mixedThreshold:
		b.WriteString("The market sentiment is mixed with no clear direction.\n")
		outlook = "The token price may remain relatively stable in the short term due to balanced sentiment."
	case agg.Sentiment == models.SentimentPositive:
		if agg.Strength > strongThreshold {
			fmt.Fprintf(&b, "The market sentiment is strongly positive (%.1f%% confidence).\n", agg.Strength*100)
			outlook = "This highly positive sentiment could potentially drive price increases in the short term."
		} else {
			fmt.Fprintf(&b, "The market sentiment is moderately positive (%.1f%% confidence).\n", agg.Strength*100)
			outlook = "This positive sentiment may contribute to gradual price appreciation."
		}
	case agg.Sentiment == models.SentimentNegative:
		if agg.Strength > strongThreshold {
			fmt.Fprintf(&b, "The market sentiment is strongly negative (%.1f%% confidence).\n", agg.Strength*100)
			outlook = "This highly negative sentiment could potentially lead to price decreases in the short term."
		} else {
			fmt.Fprintf(&b, "The market sentiment is moderately negative (%.1f%% confidence).\n", agg.Strength*100)
			outlook = "This negative sentiment may contribute to gradual price depreciation."
		}
	}

	b.WriteString(outlook)
	b.WriteString("\n\n")
	b.WriteString(trendClause(agg))
	b.WriteString("\n\n")

	if points := keyPoints(articles); len(points) > 0 {
		b.WriteString("Key recent developments:\n")
		b.WriteString(strings.Join(points, "\n"))
	}

	b.WriteString("\n\n")
	b.WriteString(disclaimer)
	return b.String()
}

func trendClause(agg models.AggregatedSentiment) string {
	switch agg.Trend {
	case models.TrendImproving:
		clause := "The sentiment trend is improving, with more recent news being more positive than older articles."
		if agg.Sentiment == models.SentimentNegative {
			return clause + " This could indicate a potential recovery or reversal of negative sentiment."
		}
		return clause + " This reinforces the positive outlook."
	case models.TrendDeteriorating:
		clause := "The sentiment trend is deteriorating, with more recent news being more negative than older articles."
		if agg.Sentiment == models.SentimentPositive {
			return clause + " This might indicate a weakening of the previously positive outlook."
		}
		return clause + " This reinforces the negative outlook."
	default:
		return "The sentiment trend is stable with no significant changes between recent and older articles."
	}
}

// keyPoints lists the strongest-scored articles, newest first
func keyPoints(articles []models.Article) []string {
	var points []string
	for _, a := range SortByRecency(articles) {
		if abs(a.Sentiment.Score) <= 1 {
			continue
		}
		points = append(points, fmt.Sprintf("- [%s] %s (Source: %s)",
			a.PublishedAt.Local().Format(keyPointDate), a.Title, a.Source))
		if len(points) == maxKeyPoints {
			break
		}
	}
	return points
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
