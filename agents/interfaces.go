package agents

import (
	"defi-assistant/services"
)

// Aliases let agents depend on service contracts without importing concrete clients
type CoinGeckoServiceInterface = services.CoinGeckoServiceInterface
type NewsAPIServiceInterface = services.NewsAPIServiceInterface
