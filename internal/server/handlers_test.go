package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/trade-analytics-api/internal/analytics"
	"github.com/dgnsrekt/trade-analytics-api/internal/gamma"
	"github.com/dgnsrekt/trade-analytics-api/internal/marketdata"
)

type stubAnalyzer struct {
	exposures map[string]*gamma.Exposure
}

func (s *stubAnalyzer) Analyze(_ context.Context, symbol string) (*gamma.Exposure, error) {
	if exp, ok := s.exposures[symbol]; ok {
		return exp, nil
	}
	return nil, marketdata.ErrNotFound
}

func (s *stubAnalyzer) AnalyzeBatch(ctx context.Context, symbols []string) map[string]analytics.BatchEntry {
	results := make(map[string]analytics.BatchEntry, len(symbols))
	for _, symbol := range symbols {
		exp, err := s.Analyze(ctx, symbol)
		if err != nil {
			results[symbol] = analytics.BatchEntry{Err: err.Error()}
			continue
		}
		results[symbol] = analytics.BatchEntry{Exposure: exp}
	}
	return results
}

func newTestRouter(analyzer GammaAnalyzer) http.Handler {
	logger, _ := zap.NewDevelopment()
	cache := analytics.NewSnapshotCache(time.Minute)
	srv := NewServer(analyzer, cache, []string{"SPY", "QQQ"}, 3, logger)
	return NewRouter(srv, nil, logger)
}

func TestGradeTradeHandler(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{})

	body := `{"hadLevel":true,"hadTrend":true,"hadPatienceCandle":true,"followedRules":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trades/grade", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result struct {
		Score    int      `json:"score"`
		Grade    string   `json:"grade"`
		Feedback []string `json:"feedback"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Score != 100 || result.Grade != "A" || len(result.Feedback) != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestGradeTradeHandlerEmptyBody(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trades/grade", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result struct {
		Score    int      `json:"score"`
		Grade    string   `json:"grade"`
		Feedback []string `json:"feedback"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Score != 0 || result.Grade != "F" || len(result.Feedback) != 4 {
		t.Errorf("missing fields should count against the trade, got %+v", result)
	}
}

func TestGradeTradeHandlerInvalidJSON(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trades/grade", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGetGammaExposureHandler(t *testing.T) {
	analyzer := &stubAnalyzer{exposures: map[string]*gamma.Exposure{
		"SPY": {Symbol: "SPY", CurrentPrice: 432.10, Regime: gamma.RegimePositive},
	}}
	router := newTestRouter(analyzer)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gamma/SPY", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var exposure gamma.Exposure
	if err := json.Unmarshal(rec.Body.Bytes(), &exposure); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exposure.Symbol != "SPY" || exposure.Regime != gamma.RegimePositive {
		t.Errorf("unexpected exposure: %+v", exposure)
	}
}

func TestGetGammaExposureHandlerNotFound(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gamma/NOPE", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected error message in body")
	}
}

func TestBatchGammaExposureHandler(t *testing.T) {
	analyzer := &stubAnalyzer{exposures: map[string]*gamma.Exposure{
		"SPY": {Symbol: "SPY", CurrentPrice: 432.10},
	}}
	router := newTestRouter(analyzer)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/gamma/batch",
		strings.NewReader(`{"symbols":["SPY","NOPE"]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var results map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(results))
	}

	var ok gamma.Exposure
	if err := json.Unmarshal(results["SPY"], &ok); err != nil || ok.Symbol != "SPY" {
		t.Errorf("expected SPY exposure, got %s", results["SPY"])
	}

	var failed map[string]string
	if err := json.Unmarshal(results["NOPE"], &failed); err != nil || failed["error"] == "" {
		t.Errorf("expected NOPE error entry, got %s", results["NOPE"])
	}
}

func TestBatchGammaExposureHandlerLimits(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{})

	empty := httptest.NewRequest(http.MethodPost, "/api/v1/gamma/batch", strings.NewReader(`{"symbols":[]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, empty)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty symbols, got %d", rec.Code)
	}

	tooMany := httptest.NewRequest(http.MethodPost, "/api/v1/gamma/batch",
		strings.NewReader(`{"symbols":["A","B","C","D"]}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, tooMany)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for oversized batch, got %d", rec.Code)
	}
}

func TestGetSymbolsHandler(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/symbols", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Symbols []string `json:"symbols"`
		Count   int      `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Count != 2 || len(body.Symbols) != 2 {
		t.Errorf("unexpected symbols response: %+v", body)
	}
}

func TestHealthHandler(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body: %s", rec.Body.String())
	}
}

func TestMaskQueryKey(t *testing.T) {
	masked := maskQueryKey("symbol=SPY&key=supersecret")
	if strings.Contains(masked, "supersecret") {
		t.Errorf("key should be masked: %s", masked)
	}
	if !strings.Contains(masked, "supe****") {
		t.Errorf("expected masked prefix, got %s", masked)
	}
}
