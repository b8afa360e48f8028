package gamma

// OptionContract is one row of an options chain as delivered by the market
// data provider. Gamma is per-contract; a zero ImpliedVolatility means the
// feed omitted it and the default is substituted during computation.
type OptionContract struct {
	Strike            float64 `json:"strike"`
	OpenInterest      int64   `json:"open_interest"`
	Gamma             float64 `json:"gamma"`
	ImpliedVolatility float64 `json:"implied_volatility"`
}

// Significance classifies a strike's net gamma relative to the largest
// absolute net gamma in the chain.
type Significance string

const (
	SignificanceHigh   Significance = "high"
	SignificanceMedium Significance = "medium"
	SignificanceLow    Significance = "low"
)

// Regime is the qualitative dealer-gamma regime around the current price.
type Regime string

const (
	RegimePositive Regime = "positive"
	RegimeNegative Regime = "negative"
	RegimeNeutral  Regime = "neutral"
)

// Positioning is the aggregate dealer book classification.
type Positioning string

const (
	PositioningLongGamma  Positioning = "long_gamma"
	PositioningShortGamma Positioning = "short_gamma"
	PositioningNeutral    Positioning = "neutral"
)

// GammaLevel aggregates all contracts at one strike. NetGamma is call gamma
// exposure minus put gamma exposure, both scaled by open interest and the
// contract multiplier.
type GammaLevel struct {
	Strike           float64      `json:"strike"`
	CallOpenInterest int64        `json:"call_open_interest"`
	PutOpenInterest  int64        `json:"put_open_interest"`
	CallGamma        float64      `json:"call_gamma"`
	PutGamma         float64      `json:"put_gamma"`
	NetGamma         float64      `json:"net_gamma"`
	Significance     Significance `json:"significance"`
}

// Exposure is the full dealer-positioning snapshot for one symbol, computed
// fresh from an options chain. It carries no identity beyond the symbol and
// the timestamp of the request that produced it.
type Exposure struct {
	Symbol             string       `json:"symbol"`
	Timestamp          int64        `json:"timestamp"`
	CurrentPrice       float64      `json:"current_price"`
	MaxPain            float64      `json:"max_pain"`
	GammaFlip          float64      `json:"gamma_flip"`
	CallWall           float64      `json:"call_wall"`
	PutWall            float64      `json:"put_wall"`
	Regime             Regime       `json:"regime"`
	DealerPositioning  Positioning  `json:"dealer_positioning"`
	ExpectedDailyMove  float64      `json:"expected_daily_move"`
	ExpectedWeeklyMove float64      `json:"expected_weekly_move"`
	Levels             []GammaLevel `json:"levels"`
	Resistance         []GammaLevel `json:"resistance"`
	Support            []GammaLevel `json:"support"`
	Summary            string       `json:"summary"`
	TradingImplication string       `json:"trading_implication"`
}
