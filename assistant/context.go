package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"defi-assistant/intent"
	"defi-assistant/models"
)

// money renders a value with thousands separators and exactly two decimals
func money(d decimal.Decimal) string {
	return humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

// marketEntry renders the ephemeral market data entry
func marketEntry(snapshot *models.MarketSnapshot) (string, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to encode market data: %w", err)
	}
	return "Current market data: " + string(data), nil
}

// portfolioEntry describes the user's holdings for the LLM
func portfolioEntry(p *models.Portfolio) string {
	var b strings.Builder
	b.WriteString("User's Portfolio Information:\n")
	fmt.Fprintf(&b, "- Total Value: $%s\n", money(p.TotalValue))
	fmt.Fprintf(&b, "- 24h Change: %.2f%%\n", p.TotalChange)
	fmt.Fprintf(&b, "- Number of Assets: %d\n", p.AssetCount)
	fmt.Fprintf(&b, "- Total Tokens: %s\n", humanize.CommafWithDigits(p.TotalTokens.Round(2).InexactFloat64(), 2))
	b.WriteString("\nAssets:")
	for _, a := range p.Assets {
		fmt.Fprintf(&b, "\n- %s: %s tokens ($%s) - 24h: %.2f%%", a.ID, a.Amount.String(), money(a.Value), a.Change24h)
	}
	return b.String()
}

// newsEntry introduces a news analysis according to what the user asked for
func newsEntry(kind intent.Kind, analysis *models.NewsAnalysis) string {
	about := "your search query about"
	if kind == intent.TradingAdvice {
		about = "your trading question about"
	}
	return fmt.Sprintf("Recent market sentiment analysis for %s %s:\n%s", about, analysis.Token, analysis.Summary)
}

// missingNewsKeyEntry tells the LLM that news was requested but cannot be fetched
func missingNewsKeyEntry(token string) string {
	return fmt.Sprintf("Note: The user has requested to search for news about %q, but the NEWS_API_KEY is not configured. "+
		"Please inform them that you don't have access to real-time news data at the moment, "+
		"but you can still provide general information.", token)
}
