package marketdata

import "github.com/dgnsrekt/trade-analytics-api/internal/gamma"

// Quote is the latest trade price for one symbol.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// OptionChain is one snapshot of a symbol's listed options, split by side.
type OptionChain struct {
	Symbol string                 `json:"symbol"`
	Spot   float64                `json:"spot"`
	Calls  []gamma.OptionContract `json:"calls"`
	Puts   []gamma.OptionContract `json:"puts"`
}
