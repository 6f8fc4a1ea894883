// Package sentiment scores news text against a fixed keyword lexicon and
// aggregates per-article scores into a recency-weighted market sentiment.
package sentiment

import (
	"regexp"
	"strings"

	"defi-assistant/models"
)

// Scorer turns a text span into a SentimentScore
type Scorer interface {
	Score(text string) models.SentimentScore
}

var tokenPattern = regexp.MustCompile(`\b\w+\b`)

// negationRule counts "<negator> <word> <lexicon word>" occurrences for one negator
type negationRule struct {
	positive *regexp.Regexp
	negative *regexp.Regexp
}

// LexiconScorer is the keyword-matching Scorer.
// It is safe for concurrent use; all state is built once in NewLexiconScorer.
type LexiconScorer struct {
	negations []negationRule
}

// NewLexiconScorer compiles the negation patterns for the built-in lexicon
func NewLexiconScorer() *LexiconScorer {
	posAlt := alternation(positiveWords)
	negAlt := alternation(negativeWords)

	rules := make([]negationRule, 0, len(negators))
	for _, n := range negators {
		prefix := `(?i)` + regexp.QuoteMeta(n) + ` \w+ `
		rules = append(rules, negationRule{
			positive: regexp.MustCompile(prefix + `(` + posAlt + `)`),
			negative: regexp.MustCompile(prefix + `(` + negAlt + `)`),
		})
	}

	return &LexiconScorer{negations: rules}
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// Score computes the lexicon score of text.
// A word present in both lexicons counts in both directions.
func (s *LexiconScorer) Score(text string) models.SentimentScore {
	lower := strings.ToLower(text)

	score := 0
	posMatches := []string{}
	negMatches := []string{}
	seenPos := make(map[string]struct{})
	seenNeg := make(map[string]struct{})

	for _, word := range tokenPattern.FindAllString(lower, -1) {
		if IsPositive(word) {
			score++
			if _, ok := seenPos[word]; !ok {
				seenPos[word] = struct{}{}
				posMatches = append(posMatches, word)
			}
		}
		if IsNegative(word) {
			score--
			if _, ok := seenNeg[word]; !ok {
				seenNeg[word] = struct{}{}
				negMatches = append(negMatches, word)
			}
		}
	}

	for _, b := range phraseBonuses {
		if strings.Contains(lower, b.phrase) {
			score += b.delta
		}
	}

	for _, rule := range s.negations {
		score -= 2 * len(rule.positive.FindAllStringIndex(lower, -1))
		score += 2 * len(rule.negative.FindAllStringIndex(lower, -1))
	}

	return models.SentimentScore{
		Score:           score,
		Sentiment:       models.LabelForScore(score),
		PositiveMatches: posMatches,
		NegativeMatches: negMatches,
	}
}

var defaultScorer = NewLexiconScorer()

// Score scores text with the shared LexiconScorer
func Score(text string) models.SentimentScore {
	return defaultScorer.Score(text)
}
