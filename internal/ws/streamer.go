package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/scmhub/calendar"
	"go.uber.org/zap"

	"github.com/dgnsrekt/trade-analytics-api/internal/analytics"
	"github.com/dgnsrekt/trade-analytics-api/internal/gamma"
	"github.com/dgnsrekt/trade-analytics-api/internal/notify"
)

// Streamer periodically recomputes gamma exposure for every subscribed
// symbol and broadcasts the snapshots. Regime flips between ticks are
// forwarded to the notifier.
type Streamer struct {
	hub             *Hub
	service         *analytics.Service
	notifier        notify.Notifier
	encoder         *Encoder
	interval        time.Duration
	marketHoursOnly bool
	nyse            *calendar.Calendar
	lastRegime      map[string]gamma.Regime
	mu              sync.Mutex
	logger          *zap.Logger
}

// NewStreamer creates a new Streamer.
func NewStreamer(hub *Hub, service *analytics.Service, notifier notify.Notifier, interval time.Duration, marketHoursOnly bool, logger *zap.Logger) (*Streamer, error) {
	enc, err := NewEncoder()
	if err != nil {
		return nil, err
	}

	return &Streamer{
		hub:             hub,
		service:         service,
		notifier:        notifier,
		encoder:         enc,
		interval:        interval,
		marketHoursOnly: marketHoursOnly,
		nyse:            calendar.XNYS(),
		lastRegime:      make(map[string]gamma.Regime),
		logger:          logger,
	}, nil
}

// Run starts the streaming loop. Call in a goroutine.
// Returns when context is cancelled.
func (s *Streamer) Run(ctx context.Context) {
	// Align first tick to top of second for predictable timing
	now := time.Now()
	nextSecond := now.Truncate(time.Second).Add(time.Second)

	select {
	case <-ctx.Done():
		s.logger.Info("streamer cancelled during alignment")
		s.encoder.Close()
		return
	case <-time.After(time.Until(nextSecond)):
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("streamer started",
		zap.Duration("interval", s.interval),
		zap.Bool("marketHoursOnly", s.marketHoursOnly),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("streamer stopping")
			s.encoder.Close()
			return

		case <-ticker.C:
			s.broadcastTick(ctx)
		}
	}
}

// broadcastTick recomputes and broadcasts exposure for every symbol with an
// active subscription.
func (s *Streamer) broadcastTick(ctx context.Context) {
	if s.marketHoursOnly && !s.nyse.IsBusinessDay(time.Now()) {
		return
	}

	symbols := s.hub.ActiveSymbols()
	if len(symbols) == 0 {
		return
	}

	for _, symbol := range symbols {
		exposure, err := s.service.Analyze(ctx, symbol)
		if err != nil {
			s.logger.Debug("failed to compute exposure",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}

		s.checkRegimeChange(ctx, symbol, exposure)

		plain, err := json.Marshal(exposure)
		if err != nil {
			s.logger.Warn("failed to marshal exposure",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}

		s.hub.BroadcastSnapshot(symbol, plain, s.encoder.EncodeSnapshot(plain))

		s.logger.Debug("broadcast snapshot",
			zap.String("symbol", symbol),
			zap.String("regime", string(exposure.Regime)),
			zap.Int("size", len(plain)),
		)
	}
}

// checkRegimeChange fires a notification when a symbol's regime differs
// from the previous tick. The first observation of a symbol only seeds the
// state.
func (s *Streamer) checkRegimeChange(ctx context.Context, symbol string, exposure *gamma.Exposure) {
	s.mu.Lock()
	previous, seen := s.lastRegime[symbol]
	s.lastRegime[symbol] = exposure.Regime
	s.mu.Unlock()

	if !seen || previous == exposure.Regime {
		return
	}

	s.logger.Info("regime change detected",
		zap.String("symbol", symbol),
		zap.String("from", string(previous)),
		zap.String("to", string(exposure.Regime)),
	)

	if err := s.notifier.SendRegimeChange(ctx, symbol, previous, exposure.Regime, exposure); err != nil {
		s.logger.Warn("failed to send regime change notification",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
	}
}
