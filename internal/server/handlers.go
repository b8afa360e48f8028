package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dgnsrekt/trade-analytics-api/internal/analytics"
	"github.com/dgnsrekt/trade-analytics-api/internal/gamma"
	"github.com/dgnsrekt/trade-analytics-api/internal/grading"
	"github.com/dgnsrekt/trade-analytics-api/internal/marketdata"
)

// GammaAnalyzer is the slice of the analytics service the handlers need.
type GammaAnalyzer interface {
	Analyze(ctx context.Context, symbol string) (*gamma.Exposure, error)
	AnalyzeBatch(ctx context.Context, symbols []string) map[string]analytics.BatchEntry
}

type Server struct {
	analyzer GammaAnalyzer
	cache    *analytics.SnapshotCache
	symbols  []string
	maxBatch int
	logger   *zap.Logger
}

func NewServer(analyzer GammaAnalyzer, cache *analytics.SnapshotCache, symbols []string, maxBatch int, logger *zap.Logger) *Server {
	return &Server{
		analyzer: analyzer,
		cache:    cache,
		symbols:  symbols,
		maxBatch: maxBatch,
		logger:   logger,
	}
}

// GradeTrade scores a trade checklist. Missing checklist fields count as
// unchecked, so any JSON object is a valid request body.
func (s *Server) GradeTrade(w http.ResponseWriter, r *http.Request) {
	var checklist grading.ChecklistInput
	if err := json.NewDecoder(r.Body).Decode(&checklist); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := grading.Grade(checklist)

	s.logger.Debug("graded trade",
		zap.Int("score", result.Score),
		zap.String("grade", string(result.Grade)),
	)

	writeJSON(w, http.StatusOK, result)
}

// GetGammaExposure computes the current exposure snapshot for one symbol.
func (s *Server) GetGammaExposure(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	exposure, err := s.analyzer.Analyze(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrNotFound) || errors.Is(err, marketdata.ErrInsufficientData) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("gamma analysis failed",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "market data unavailable")
		return
	}

	writeJSON(w, http.StatusOK, exposure)
}

type batchRequest struct {
	Symbols []string `json:"symbols"`
}

// BatchGammaExposure evaluates several symbols in one request. Each symbol
// succeeds or fails on its own.
func (s *Server) BatchGammaExposure(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols list is empty")
		return
	}
	if len(req.Symbols) > s.maxBatch {
		writeError(w, http.StatusBadRequest, "too many symbols in one batch")
		return
	}

	results := s.analyzer.AnalyzeBatch(r.Context(), req.Symbols)
	writeJSON(w, http.StatusOK, results)
}

// GetSymbols lists the configured default symbols.
func (s *Server) GetSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"symbols": s.symbols,
		"count":   len(s.symbols),
	})
}

// GetHealth reports liveness and cache occupancy.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"cached_snapshots": s.cache.Len(),
	})
}

// ResetCache drops every cached snapshot.
func (s *Server) ResetCache(w http.ResponseWriter, r *http.Request) {
	count := s.cache.Reset()

	s.logger.Info("cache reset", zap.Int("count", count))

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"count":  count,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
