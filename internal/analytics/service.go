package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/dgnsrekt/trade-analytics-api/internal/gamma"
	"github.com/dgnsrekt/trade-analytics-api/internal/marketdata"
)

// Service fetches market data, runs the gamma exposure computation, and
// caches the result per symbol.
type Service struct {
	provider marketdata.Provider
	cache    *SnapshotCache
	logger   *zap.Logger
}

func NewService(provider marketdata.Provider, cache *SnapshotCache, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		logger:   logger,
	}
}

// Analyze computes the current gamma exposure snapshot for one symbol.
// Chains missing either side are rejected with ErrInsufficientData before
// the computation runs.
func (s *Service) Analyze(ctx context.Context, symbol string) (*gamma.Exposure, error) {
	if cached := s.cache.Get(symbol); cached != nil {
		s.logger.Debug("cache hit", zap.String("symbol", symbol))
		return cached, nil
	}

	quote, err := s.provider.GetQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetching quote for %s: %w", symbol, err)
	}

	chain, err := s.provider.GetOptionChain(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetching chain for %s: %w", symbol, err)
	}

	if len(chain.Calls) == 0 || len(chain.Puts) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, marketdata.ErrInsufficientData)
	}

	exposure := gamma.Compute(symbol, quote.Price, chain.Calls, chain.Puts)
	s.cache.Put(symbol, exposure)

	s.logger.Debug("computed exposure",
		zap.String("symbol", symbol),
		zap.Float64("spot", quote.Price),
		zap.Int("levels", len(exposure.Levels)),
		zap.String("regime", string(exposure.Regime)),
	)

	return exposure, nil
}

// BatchEntry is one symbol's outcome in a batch analysis: either a full
// exposure or an error string, never both.
type BatchEntry struct {
	Exposure *gamma.Exposure
	Err      string
}

// MarshalJSON renders a successful entry as the exposure object itself and
// a failed entry as {"error": "..."}.
func (e BatchEntry) MarshalJSON() ([]byte, error) {
	if e.Err != "" {
		return json.Marshal(map[string]string{"error": e.Err})
	}
	return json.Marshal(e.Exposure)
}

// AnalyzeBatch evaluates each symbol independently. One symbol's failure is
// recorded as its own entry and never aborts the rest.
func (s *Service) AnalyzeBatch(ctx context.Context, symbols []string) map[string]BatchEntry {
	results := make(map[string]BatchEntry, len(symbols))

	for _, symbol := range symbols {
		exposure, err := s.Analyze(ctx, symbol)
		if err != nil {
			s.logger.Debug("batch symbol failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			results[symbol] = BatchEntry{Err: err.Error()}
			continue
		}
		results[symbol] = BatchEntry{Exposure: exposure}
	}

	return results
}
