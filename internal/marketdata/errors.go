package marketdata

import "errors"

var (
	ErrNotFound         = errors.New("no market data for this symbol")
	ErrRateLimited      = errors.New("rate limited by market data provider")
	ErrInsufficientData = errors.New("options chain has no calls or no puts")
)
