package models

import (
	"github.com/shopspring/decimal"
)

// Portfolio is the snapshot of tracked holdings the browser client sends with a chat message
type Portfolio struct {
	TotalValue  decimal.Decimal  `json:"totalValue"`
	TotalChange float64          `json:"totalChange"`
	AssetCount  int              `json:"assetCount"`
	TotalTokens decimal.Decimal  `json:"totalTokens"`
	Assets      []PortfolioAsset `json:"assets"`
}

// PortfolioAsset is a single holding within a Portfolio
type PortfolioAsset struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	Value     decimal.Decimal `json:"value"`
	Change24h float64         `json:"change_24h"`
}

// HasAssets reports whether the portfolio carries any holdings worth describing
func (p *Portfolio) HasAssets() bool {
	return p != nil && len(p.Assets) > 0
}
