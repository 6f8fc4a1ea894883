// Package intent recognises what a chat message asks for using fixed patterns.
package intent

import (
	"regexp"
	"strings"
)

// Kind identifies a recognised request category
type Kind string

const (
	TradingAdvice Kind = "trading_advice"
	NewsSearch    Kind = "news_search"
	PriceLookup   Kind = "price_lookup"
)

// Intent is a recognised request together with the token phrase it names
type Intent struct {
	Kind  Kind
	Token string
}

// Result holds every intent found in one message, in detection order
type Result struct {
	Intents []Intent
}

var patterns = []struct {
	kind Kind
	re   *regexp.Regexp
}{
	{TradingAdvice, regexp.MustCompile(`(?:should|would|do you think) (?:i|you) (?:buy|sell|invest in|trade) (?:(?:more|some|any) )?([a-z\s]+)`)},
	{NewsSearch, regexp.MustCompile(`(?:google\s*search|look\s*up|search\s*for|research|check|find|news\s*about|information\s*about)\s+(?:about\s+|info\s+|information\s+|news\s+)?(?:on\s+|about\s+|for\s+)?([a-z0-9\s]+)`)},
	{PriceLookup, regexp.MustCompile(`price (?:of |for )?([a-z\s]+)`)},
}

// Classify lower-cases message and returns every intent whose pattern matches.
// A match whose captured token is blank is treated as no match.
func Classify(message string) Result {
	lower := strings.ToLower(message)

	var res Result
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(lower)
		if len(m) < 2 {
			continue
		}
		token := strings.TrimSpace(m[1])
		if token == "" {
			continue
		}
		res.Intents = append(res.Intents, Intent{Kind: p.kind, Token: token})
	}
	return res
}

// Has reports whether an intent of kind k was detected
func (r Result) Has(k Kind) bool {
	_, ok := r.lookup(k)
	return ok
}

// Token returns the token phrase of kind k, or "" when absent
func (r Result) Token(k Kind) string {
	tok, _ := r.lookup(k)
	return tok
}

// NewsQuery returns the token that news should be gathered for.
// Trading advice takes precedence over an explicit news search.
func (r Result) NewsQuery() (string, Kind, bool) {
	for _, k := range []Kind{TradingAdvice, NewsSearch} {
		if tok, ok := r.lookup(k); ok {
			return tok, k, true
		}
	}
	return "", "", false
}

// Empty reports whether no intent was detected
func (r Result) Empty() bool {
	return len(r.Intents) == 0
}

func (r Result) lookup(k Kind) (string, bool) {
	for _, in := range r.Intents {
		if in.Kind == k {
			return in.Token, true
		}
	}
	return "", false
}
