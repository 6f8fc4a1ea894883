package sentiment

var positiveWords = []string{
	"surge", "rise", "gain", "up", "high", "bullish", "growth", "positive", "increase", "rally",
	"soar", "climb", "jump", "spike", "breakthrough", "outperform", "beat", "exceed", "moon", "rocket",
	"adoption", "partnership", "launch", "success", "profit", "win", "recover", "support", "upgrade",
	"innovation", "potential", "opportunity", "milestone", "progress", "revolutionize", "disrupt",
	"mainstream", "institutional", "hodl", "hold", "buy", "accumulate",
}

var negativeWords = []string{
	"drop", "fall", "down", "low", "bearish", "decline", "negative", "decrease", "crash", "risk",
	"plunge", "tumble", "sink", "slide", "slump", "dip", "correction", "sell-off", "dump", "panic",
	"fear", "uncertain", "concern", "worry", "warning", "threat", "problem", "issue", "trouble",
	"scam", "hack", "fraud", "attack", "vulnerability", "regulation", "ban", "restrict", "illegal",
	"fine", "penalty", "investigation", "litigation", "lawsuit", "short", "sell",
}

var negators = []string{"not", "no", "n't", "never", "without"}

// phraseBonus is a fixed adjustment applied when a phrase appears anywhere in the text
type phraseBonus struct {
	phrase string
	delta  int
}

// Each phrase is checked on its own, so "all time high" and "ath" both fire when both appear.
var phraseBonuses = []phraseBonus{
	{"all time high", 2},
	{"ath", 2},
	{"all time low", -2},
	{"atl", -2},
	{"to the moon", 2},
	{"massive gain", 2},
	{"massive drop", -2},
	{"massive loss", -2},
}

var (
	positiveSet = toSet(positiveWords)
	negativeSet = toSet(negativeWords)
)

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsPositive reports whether word is in the positive lexicon
func IsPositive(word string) bool {
	_, ok := positiveSet[word]
	return ok
}

// IsNegative reports whether word is in the negative lexicon
func IsNegative(word string) bool {
	_, ok := negativeSet[word]
	return ok
}
