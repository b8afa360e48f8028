package gamma

import (
	"math"
	"sort"
	"time"
)

// ContractMultiplier is the share count per options contract.
const ContractMultiplier = 100

// DefaultImpliedVol is substituted when the feed omits implied volatility.
const DefaultImpliedVol = 0.25

// Classification thresholds, expressed as fractions of the chain's maximum
// absolute net gamma. Empirically chosen; kept as named constants rather
// than derived values.
const (
	HighSignificanceRatio   = 0.7
	MediumSignificanceRatio = 0.3
	RegimeRatio             = 0.1
	PositioningRatio        = 0.5
)

// Wall fallbacks when the chain is one-sided relative to the current price.
const (
	CallWallDefaultRatio = 1.05
	PutWallDefaultRatio  = 0.95
)

const tradingDaysPerYear = 252

const maxKeyLevels = 3

// Compute turns an options chain snapshot into a dealer-positioning
// Exposure for one symbol. The caller is responsible for rejecting chains
// with no calls or no puts before invoking it; Compute itself only guards
// the degenerate all-zero-gamma case so it never divides by zero.
func Compute(symbol string, currentPrice float64, calls, puts []OptionContract) *Exposure {
	levels := aggregateStrikes(calls, puts)
	maxAbs := maxAbsNetGamma(levels)
	classifySignificance(levels, maxAbs)

	dailyMove, weeklyMove := expectedMoves(currentPrice, calls, puts)
	regime := classifyRegime(levels, currentPrice, maxAbs)
	resistance, support := keyLevels(levels, currentPrice)
	summary, implication := narrative(regime)

	return &Exposure{
		Symbol:             symbol,
		Timestamp:          time.Now().UnixMilli(),
		CurrentPrice:       currentPrice,
		MaxPain:            computeMaxPain(levels, currentPrice),
		GammaFlip:          computeGammaFlip(levels, currentPrice),
		CallWall:           computeCallWall(levels, currentPrice),
		PutWall:            computePutWall(levels, currentPrice),
		Regime:             regime,
		DealerPositioning:  classifyPositioning(levels, maxAbs),
		ExpectedDailyMove:  dailyMove,
		ExpectedWeeklyMove: weeklyMove,
		Levels:             levels,
		Resistance:         resistance,
		Support:            support,
		Summary:            summary,
		TradingImplication: implication,
	}
}

// aggregateStrikes builds one GammaLevel per distinct strike across both
// sides of the chain, sorted ascending by strike. Gamma exposure per side is
// gamma * open interest * contract multiplier.
func aggregateStrikes(calls, puts []OptionContract) []GammaLevel {
	byStrike := make(map[float64]*GammaLevel)

	for _, c := range calls {
		lv := levelAt(byStrike, c.Strike)
		lv.CallOpenInterest += c.OpenInterest
		lv.CallGamma += c.Gamma * float64(c.OpenInterest) * ContractMultiplier
	}
	for _, p := range puts {
		lv := levelAt(byStrike, p.Strike)
		lv.PutOpenInterest += p.OpenInterest
		lv.PutGamma += p.Gamma * float64(p.OpenInterest) * ContractMultiplier
	}

	levels := make([]GammaLevel, 0, len(byStrike))
	for _, lv := range byStrike {
		lv.NetGamma = lv.CallGamma - lv.PutGamma
		levels = append(levels, *lv)
	}

	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Strike < levels[j].Strike
	})

	return levels
}

func levelAt(byStrike map[float64]*GammaLevel, strike float64) *GammaLevel {
	if lv, ok := byStrike[strike]; ok {
		return lv
	}
	lv := &GammaLevel{Strike: strike}
	byStrike[strike] = lv
	return lv
}

func maxAbsNetGamma(levels []GammaLevel) float64 {
	maxAbs := 0.0
	for _, lv := range levels {
		if abs := math.Abs(lv.NetGamma); abs > maxAbs {
			maxAbs = abs
		}
	}
	return maxAbs
}

// classifySignificance labels each level relative to the chain's maximum
// absolute net gamma. When that maximum is zero every level is low; the
// ratios are never computed against a zero denominator.
func classifySignificance(levels []GammaLevel, maxAbs float64) {
	for i := range levels {
		levels[i].Significance = SignificanceLow
		if maxAbs == 0 {
			continue
		}
		switch abs := math.Abs(levels[i].NetGamma); {
		case abs > HighSignificanceRatio*maxAbs:
			levels[i].Significance = SignificanceHigh
		case abs > MediumSignificanceRatio*maxAbs:
			levels[i].Significance = SignificanceMedium
		}
	}
}

// computeMaxPain finds the strike where option holders collectively lose the
// most value at expiration. Pain at candidate strike K is the intrinsic
// value of in-the-money calls below K plus in-the-money puts above K. Ties
// resolve to the lowest strike.
func computeMaxPain(levels []GammaLevel, currentPrice float64) float64 {
	if len(levels) == 0 {
		return currentPrice
	}

	maxPain := levels[0].Strike
	minPain := math.Inf(1)

	for _, candidate := range levels {
		pain := 0.0
		for _, lv := range levels {
			if lv.Strike < candidate.Strike {
				pain += float64(lv.CallOpenInterest) * (candidate.Strike - lv.Strike) * ContractMultiplier
			} else if lv.Strike > candidate.Strike {
				pain += float64(lv.PutOpenInterest) * (lv.Strike - candidate.Strike) * ContractMultiplier
			}
		}
		if pain < minPain {
			minPain = pain
			maxPain = candidate.Strike
		}
	}

	return maxPain
}

// computeCallWall returns the strike with the heaviest call open interest
// above the current price, or a 5% premium when the chain has none.
func computeCallWall(levels []GammaLevel, currentPrice float64) float64 {
	wall := 0.0
	var best int64 = -1
	for _, lv := range levels {
		if lv.Strike > currentPrice && lv.CallOpenInterest > best {
			best = lv.CallOpenInterest
			wall = lv.Strike
		}
	}
	if best < 0 {
		return currentPrice * CallWallDefaultRatio
	}
	return wall
}

// computePutWall returns the strike with the heaviest put open interest
// below the current price, or a 5% discount when the chain has none.
func computePutWall(levels []GammaLevel, currentPrice float64) float64 {
	wall := 0.0
	var best int64 = -1
	for _, lv := range levels {
		if lv.Strike < currentPrice && lv.PutOpenInterest > best {
			best = lv.PutOpenInterest
			wall = lv.Strike
		}
	}
	if best < 0 {
		return currentPrice * PutWallDefaultRatio
	}
	return wall
}

// computeGammaFlip walks strikes in ascending order accumulating net gamma
// and returns the midpoint of the first interval where the running sum
// changes sign. Without a sign change the flip defaults to the current
// price.
func computeGammaFlip(levels []GammaLevel, currentPrice float64) float64 {
	cumulative := 0.0
	previous := 0.0
	for i, lv := range levels {
		cumulative += lv.NetGamma
		if i > 0 && previous*cumulative < 0 {
			return (levels[i-1].Strike + lv.Strike) / 2
		}
		previous = cumulative
	}
	return currentPrice
}

// classifyRegime looks at the level nearest the current price. With no
// levels, or a degenerate chain, the regime is neutral.
func classifyRegime(levels []GammaLevel, currentPrice float64, maxAbs float64) Regime {
	if maxAbs == 0 {
		return RegimeNeutral
	}

	nearest := 0.0
	bestDist := math.Inf(1)
	for _, lv := range levels {
		if dist := math.Abs(lv.Strike - currentPrice); dist < bestDist {
			bestDist = dist
			nearest = lv.NetGamma
		}
	}

	switch {
	case nearest > RegimeRatio*maxAbs:
		return RegimePositive
	case nearest < -RegimeRatio*maxAbs:
		return RegimeNegative
	default:
		return RegimeNeutral
	}
}

func classifyPositioning(levels []GammaLevel, maxAbs float64) Positioning {
	if maxAbs == 0 {
		return PositioningNeutral
	}

	total := 0.0
	for _, lv := range levels {
		total += lv.NetGamma
	}

	switch {
	case total > PositioningRatio*maxAbs:
		return PositioningLongGamma
	case total < -PositioningRatio*maxAbs:
		return PositioningShortGamma
	default:
		return PositioningNeutral
	}
}

// expectedMoves derives 1-day and 1-week expected moves from the average
// implied volatility across the whole chain, rounded to cents.
func expectedMoves(currentPrice float64, calls, puts []OptionContract) (daily, weekly float64) {
	sum := 0.0
	count := 0
	for _, contracts := range [][]OptionContract{calls, puts} {
		for _, c := range contracts {
			iv := c.ImpliedVolatility
			if iv == 0 {
				iv = DefaultImpliedVol
			}
			sum += iv
			count++
		}
	}

	avgIV := DefaultImpliedVol
	if count > 0 {
		avgIV = sum / float64(count)
	}

	daily = round2(currentPrice * avgIV * math.Sqrt(1.0/tradingDaysPerYear))
	weekly = round2(currentPrice * avgIV * math.Sqrt(5.0/tradingDaysPerYear))
	return daily, weekly
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// keyLevels selects up to three significant strikes on each side of the
// current price: resistance ascending away from price, support nearest
// first.
func keyLevels(levels []GammaLevel, currentPrice float64) (resistance, support []GammaLevel) {
	for _, lv := range levels {
		if lv.Significance == SignificanceLow {
			continue
		}
		if lv.Strike > currentPrice && len(resistance) < maxKeyLevels {
			resistance = append(resistance, lv)
		}
	}

	var below []GammaLevel
	for _, lv := range levels {
		if lv.Significance != SignificanceLow && lv.Strike < currentPrice {
			below = append(below, lv)
		}
	}
	if len(below) > maxKeyLevels {
		below = below[len(below)-maxKeyLevels:]
	}
	for i := len(below) - 1; i >= 0; i-- {
		support = append(support, below[i])
	}

	return resistance, support
}

func narrative(regime Regime) (summary, implication string) {
	switch regime {
	case RegimePositive:
		return "Dealers are long gamma around the current price; hedging flows dampen moves and pin price toward heavy open interest strikes.",
			"Favor mean-reversion setups and fade pushes into the walls."
	case RegimeNegative:
		return "Dealers are short gamma around the current price; hedging flows amplify moves and reward trend continuation.",
			"Favor momentum setups; breakouts beyond the walls can accelerate."
	default:
		return "Net dealer gamma near the current price is balanced; watch for a regime shift around the gamma flip level.",
			"Stay nimble and wait for price to commit on either side of the flip."
	}
}
