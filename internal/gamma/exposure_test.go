package gamma

import (
	"math"
	"testing"
)

func contract(strike float64, oi int64, g float64) OptionContract {
	return OptionContract{Strike: strike, OpenInterest: oi, Gamma: g, ImpliedVolatility: 0.25}
}

func TestAggregateStrikes(t *testing.T) {
	calls := []OptionContract{
		contract(100, 10, 0.05),
		contract(100, 5, 0.03), // same strike, separate expiry row
		contract(110, 20, 0.02),
	}
	puts := []OptionContract{
		contract(100, 8, 0.04),
		contract(90, 15, 0.06),
	}

	levels := aggregateStrikes(calls, puts)

	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}

	// Ascending by strike.
	for i := 1; i < len(levels); i++ {
		if levels[i].Strike <= levels[i-1].Strike {
			t.Errorf("levels not sorted ascending: %v before %v", levels[i-1].Strike, levels[i].Strike)
		}
	}

	// Strike 100 merges two call rows and one put row.
	lv := levels[1]
	if lv.Strike != 100 {
		t.Fatalf("expected strike 100 at index 1, got %v", lv.Strike)
	}
	if lv.CallOpenInterest != 15 || lv.PutOpenInterest != 8 {
		t.Errorf("expected OI 15/8, got %d/%d", lv.CallOpenInterest, lv.PutOpenInterest)
	}
	wantCallGamma := 0.05*10*100 + 0.03*5*100
	if math.Abs(lv.CallGamma-wantCallGamma) > 1e-9 {
		t.Errorf("expected call gamma %v, got %v", wantCallGamma, lv.CallGamma)
	}
	if math.Abs(lv.NetGamma-(lv.CallGamma-lv.PutGamma)) > 1e-9 {
		t.Errorf("net gamma mismatch: %v != %v - %v", lv.NetGamma, lv.CallGamma, lv.PutGamma)
	}

	// Strike 90 exists only on the put side.
	if levels[0].CallOpenInterest != 0 || levels[0].CallGamma != 0 {
		t.Errorf("put-only strike should have zero call fields: %+v", levels[0])
	}
}

func TestMaxPainPicksLowerPainStrike(t *testing.T) {
	// Two strikes; recompute the pain function by hand and assert the
	// calculator picks the strike with the lower value.
	levels := aggregateStrikes(
		[]OptionContract{contract(100, 10, 0.01)},
		[]OptionContract{contract(110, 10, 0.01)},
	)

	pain := func(k float64) float64 {
		total := 0.0
		for _, lv := range levels {
			if lv.Strike < k {
				total += float64(lv.CallOpenInterest) * (k - lv.Strike) * ContractMultiplier
			} else if lv.Strike > k {
				total += float64(lv.PutOpenInterest) * (lv.Strike - k) * ContractMultiplier
			}
		}
		return total
	}

	got := computeMaxPain(levels, 105)

	for _, lv := range levels {
		if pain(lv.Strike) < pain(got) {
			t.Errorf("strike %v has pain %v, lower than chosen %v with pain %v",
				lv.Strike, pain(lv.Strike), got, pain(got))
		}
	}

	// Both strikes carry equal pain here; the tie must resolve to the
	// first strike in ascending order.
	if pain(100) == pain(110) && got != 100 {
		t.Errorf("expected tie to resolve to strike 100, got %v", got)
	}
}

func TestMaxPainAsymmetricChain(t *testing.T) {
	levels := aggregateStrikes(
		[]OptionContract{contract(100, 50, 0.01), contract(110, 5, 0.01)},
		[]OptionContract{contract(100, 5, 0.01), contract(110, 5, 0.01)},
	)

	// Heavy call OI at 100 makes higher strikes expensive for holders;
	// pain(100) = 5*10*100 = 5000, pain(110) = 50*10*100 = 50000.
	if got := computeMaxPain(levels, 105); got != 100 {
		t.Errorf("expected max pain 100, got %v", got)
	}
}

func TestMaxPainEmptyChainDefaultsToPrice(t *testing.T) {
	if got := computeMaxPain(nil, 432.10); got != 432.10 {
		t.Errorf("expected current price, got %v", got)
	}
}

func TestWallDefaultsWhenOneSided(t *testing.T) {
	// All strikes below the current price: no call wall candidates.
	below := aggregateStrikes(
		[]OptionContract{contract(90, 10, 0.01)},
		[]OptionContract{contract(95, 10, 0.01)},
	)
	if got := computeCallWall(below, 100); got != 100*CallWallDefaultRatio {
		t.Errorf("expected default call wall %v, got %v", 100*CallWallDefaultRatio, got)
	}
	if got := computePutWall(below, 100); got != 95 {
		t.Errorf("expected put wall 95, got %v", got)
	}

	// All strikes above: no put wall candidates.
	above := aggregateStrikes(
		[]OptionContract{contract(105, 10, 0.01)},
		[]OptionContract{contract(110, 10, 0.01)},
	)
	if got := computePutWall(above, 100); got != 100*PutWallDefaultRatio {
		t.Errorf("expected default put wall %v, got %v", 100*PutWallDefaultRatio, got)
	}
	if got := computeCallWall(above, 100); got != 105 {
		t.Errorf("expected call wall 105, got %v", got)
	}
}

func TestWallsPickHeaviestOpenInterest(t *testing.T) {
	levels := aggregateStrikes(
		[]OptionContract{contract(105, 10, 0.01), contract(110, 40, 0.01), contract(115, 20, 0.01)},
		[]OptionContract{contract(85, 25, 0.01), contract(90, 60, 0.01), contract(95, 30, 0.01)},
	)

	if got := computeCallWall(levels, 100); got != 110 {
		t.Errorf("expected call wall 110, got %v", got)
	}
	if got := computePutWall(levels, 100); got != 90 {
		t.Errorf("expected put wall 90, got %v", got)
	}
}

func TestGammaFlipMidpoint(t *testing.T) {
	// Cumulative gamma: +50 at 95, then -150 after 105 flips the running
	// sum negative. Flip is the midpoint of the interval.
	levels := aggregateStrikes(
		[]OptionContract{contract(95, 5, 0.1)},
		[]OptionContract{contract(105, 20, 0.1)},
	)

	if got := computeGammaFlip(levels, 100); got != 100 {
		t.Errorf("expected flip at midpoint 100, got %v", got)
	}
}

func TestGammaFlipDefaultsWithoutSignChange(t *testing.T) {
	levels := aggregateStrikes(
		[]OptionContract{contract(95, 5, 0.1), contract(105, 5, 0.1)},
		nil,
	)

	if got := computeGammaFlip(levels, 101.5); got != 101.5 {
		t.Errorf("expected flip to default to current price, got %v", got)
	}
}

func TestSignificanceThresholds(t *testing.T) {
	// Net gammas 100, 50, 10 against a max of 100: ratios 1.0 (high),
	// 0.5 (medium), 0.1 (low).
	levels := aggregateStrikes(
		[]OptionContract{contract(100, 100, 0.01), contract(110, 50, 0.01), contract(120, 10, 0.01)},
		nil,
	)
	classifySignificance(levels, maxAbsNetGamma(levels))

	want := []Significance{SignificanceHigh, SignificanceMedium, SignificanceLow}
	for i, w := range want {
		if levels[i].Significance != w {
			t.Errorf("strike %v: expected %s, got %s", levels[i].Strike, w, levels[i].Significance)
		}
	}
}

func TestZeroGammaChainIsAllNeutral(t *testing.T) {
	// Every gamma is zero, so max absolute net gamma is zero. Nothing may
	// divide by it and every classification short-circuits.
	calls := []OptionContract{contract(100, 10, 0), contract(110, 20, 0)}
	puts := []OptionContract{contract(100, 15, 0), contract(90, 5, 0)}

	exp := Compute("SPY", 105, calls, puts)

	if exp.Regime != RegimeNeutral {
		t.Errorf("expected neutral regime, got %s", exp.Regime)
	}
	if exp.DealerPositioning != PositioningNeutral {
		t.Errorf("expected neutral positioning, got %s", exp.DealerPositioning)
	}
	for _, lv := range exp.Levels {
		if lv.Significance != SignificanceLow {
			t.Errorf("strike %v: expected low significance, got %s", lv.Strike, lv.Significance)
		}
	}

	for name, v := range map[string]float64{
		"max_pain":             exp.MaxPain,
		"gamma_flip":           exp.GammaFlip,
		"call_wall":            exp.CallWall,
		"put_wall":             exp.PutWall,
		"expected_daily_move":  exp.ExpectedDailyMove,
		"expected_weekly_move": exp.ExpectedWeeklyMove,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s is not finite: %v", name, v)
		}
	}
}

func TestExpectedMoves(t *testing.T) {
	calls := []OptionContract{{Strike: 100, OpenInterest: 10, Gamma: 0.01, ImpliedVolatility: 0.2}}
	puts := []OptionContract{{Strike: 100, OpenInterest: 10, Gamma: 0.01, ImpliedVolatility: 0.4}}

	daily, weekly := expectedMoves(400, calls, puts)

	// avg IV 0.3: daily = 400*0.3*sqrt(1/252), weekly = 400*0.3*sqrt(5/252).
	wantDaily := math.Round(400*0.3*math.Sqrt(1.0/252)*100) / 100
	wantWeekly := math.Round(400*0.3*math.Sqrt(5.0/252)*100) / 100
	if daily != wantDaily {
		t.Errorf("expected daily move %v, got %v", wantDaily, daily)
	}
	if weekly != wantWeekly {
		t.Errorf("expected weekly move %v, got %v", wantWeekly, weekly)
	}
	if weekly <= daily {
		t.Errorf("weekly move %v should exceed daily move %v", weekly, daily)
	}
}

func TestExpectedMovesDefaultsMissingIV(t *testing.T) {
	// Zero IV rows fall back to the default.
	calls := []OptionContract{{Strike: 100, OpenInterest: 10, Gamma: 0.01}}

	daily, _ := expectedMoves(100, calls, nil)

	want := math.Round(100*DefaultImpliedVol*math.Sqrt(1.0/252)*100) / 100
	if daily != want {
		t.Errorf("expected daily move %v from default IV, got %v", want, daily)
	}
}

func TestKeyLevelsSelection(t *testing.T) {
	// Significant strikes on both sides; support must come back nearest
	// to price first, resistance ascending, three per side at most.
	calls := []OptionContract{
		contract(80, 100, 0.05),
		contract(85, 90, 0.05),
		contract(90, 95, 0.05),
		contract(95, 85, 0.05),
		contract(105, 100, 0.05),
		contract(110, 90, 0.05),
		contract(115, 95, 0.05),
		contract(120, 85, 0.05),
	}

	exp := Compute("SPY", 100, calls, []OptionContract{contract(100, 1, 0.0001)})

	if len(exp.Resistance) != 3 {
		t.Fatalf("expected 3 resistance levels, got %d", len(exp.Resistance))
	}
	if exp.Resistance[0].Strike != 105 || exp.Resistance[1].Strike != 110 || exp.Resistance[2].Strike != 115 {
		t.Errorf("unexpected resistance strikes: %v, %v, %v",
			exp.Resistance[0].Strike, exp.Resistance[1].Strike, exp.Resistance[2].Strike)
	}

	if len(exp.Support) != 3 {
		t.Fatalf("expected 3 support levels, got %d", len(exp.Support))
	}
	if exp.Support[0].Strike != 95 || exp.Support[1].Strike != 90 || exp.Support[2].Strike != 85 {
		t.Errorf("unexpected support strikes: %v, %v, %v",
			exp.Support[0].Strike, exp.Support[1].Strike, exp.Support[2].Strike)
	}
}

func TestRegimeNearestLevel(t *testing.T) {
	// Nearest strike to price 101 is 100, which is strongly call heavy.
	positive := Compute("SPY", 101,
		[]OptionContract{contract(100, 100, 0.05)},
		[]OptionContract{contract(120, 10, 0.01)},
	)
	if positive.Regime != RegimePositive {
		t.Errorf("expected positive regime, got %s", positive.Regime)
	}
	if positive.Summary == "" || positive.TradingImplication == "" {
		t.Error("expected narrative text for positive regime")
	}

	// Put-heavy nearest strike flips the regime negative.
	negative := Compute("SPY", 101,
		[]OptionContract{contract(120, 10, 0.01)},
		[]OptionContract{contract(100, 100, 0.05)},
	)
	if negative.Regime != RegimeNegative {
		t.Errorf("expected negative regime, got %s", negative.Regime)
	}
	if negative.Summary == positive.Summary {
		t.Error("positive and negative regimes should produce different summaries")
	}
}

func TestDealerPositioning(t *testing.T) {
	long := Compute("SPY", 100,
		[]OptionContract{contract(100, 100, 0.05), contract(105, 80, 0.05)},
		[]OptionContract{contract(95, 10, 0.01)},
	)
	if long.DealerPositioning != PositioningLongGamma {
		t.Errorf("expected long_gamma, got %s", long.DealerPositioning)
	}

	short := Compute("SPY", 100,
		[]OptionContract{contract(100, 10, 0.01)},
		[]OptionContract{contract(95, 100, 0.05), contract(90, 80, 0.05)},
	)
	if short.DealerPositioning != PositioningShortGamma {
		t.Errorf("expected short_gamma, got %s", short.DealerPositioning)
	}
}
