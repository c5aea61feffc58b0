package domain

// Band is a closed [Low, High] percent interval
type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether v lies inside the band (inclusive)
func (b Band) Contains(v float64) bool {
	return v >= b.Low && v <= b.High
}

// ScoreWeights are the composite-score weights of the five sub-scores.
// They need not sum to 1; the scorer normalizes by their sum.
type ScoreWeights struct {
	GlobalDiversification float64 `json:"global_diversification"`
	Concentration         float64 `json:"concentration"`
	Liquidity             float64 `json:"liquidity"`
	Complexity            float64 `json:"complexity"`
	CostEfficiency        float64 `json:"cost_efficiency"`
}

// DefaultScoreWeights weighs every dimension at 20%
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		GlobalDiversification: 0.2,
		Concentration:         0.2,
		Liquidity:             0.2,
		Complexity:            0.2,
		CostEfficiency:        0.2,
	}
}

// PolicyProfile holds every threshold and target the engine evaluates metrics against.
// It is plain data: passed explicitly, persisted with the checkup, and overridable per test.
type PolicyProfile struct {
	Tolerance RiskTolerance `json:"tolerance"`

	ExteriorBand   Band    `json:"exterior_band"`    // Target exterior % (sub-score peaks inside)
	MaxExteriorPct float64 `json:"max_exterior_pct"` // HIGH_EXTERIOR_EXPOSURE above this

	MaxTop5Pct       float64 `json:"max_top5_pct"`        // HIGH_CONCENTRATION_TOP5 at or above
	MaxComplexityPct float64 `json:"max_complexity_pct"`  // HIGH_COMPLEXITY_FUNDS at or above
	MinLiquidity     float64 `json:"min_liquidity_score"` // LOW_LIQUIDITY_BUCKET below

	RiskAssetBand          Band    `json:"risk_asset_band"` // Acceptable equity-like % for the tolerance
	ShortHorizonYears      int     `json:"short_horizon_years"`
	ShortHorizonMaxRiskPct float64 `json:"short_horizon_max_risk_pct"`

	MaxCashPct       float64 `json:"max_cash_pct"`
	CashDragMinYears int     `json:"cash_drag_min_years"`

	MaxUnclassifiedPct float64 `json:"max_unclassified_pct"`

	CostPenaltyPerPoint float64 `json:"cost_penalty_per_point"` // Cost efficiency lost per complexity point
	DecayExponent       float64 `json:"decay_exponent"`         // Out-of-band curve: 1 is linear

	LiquidityWeights     map[HoldingType]float64 `json:"liquidity_weights"`
	LiquidityReserveType HoldingType             `json:"liquidity_reserve_type"`

	ScoreWeights ScoreWeights `json:"score_weights"`
}

// DefaultLiquidityWeights returns the liquidity weight (0-100) of each type
func DefaultLiquidityWeights() map[HoldingType]float64 {
	return map[HoldingType]float64{
		HoldingTypeAcaoBR:      100,
		HoldingTypeETFBR:       100,
		HoldingTypeCaixa:       100,
		HoldingTypeExterior:    90,
		HoldingTypeRendaFixa:   80,
		HoldingTypeFII:         70,
		HoldingTypeRFIPCA:      60,
		HoldingTypeFundo:       50,
		HoldingTypeOutro:       30,
		HoldingTypePrevidencia: 20,
	}
}

// DefaultPolicy derives the policy profile for a risk tolerance.
// Unknown tolerances fall back to the moderate profile.
func DefaultPolicy(tolerance RiskTolerance) PolicyProfile {
	p := PolicyProfile{
		Tolerance:              RiskModerado,
		ExteriorBand:           Band{Low: 10, High: 25},
		MaxExteriorPct:         40,
		MaxTop5Pct:             45,
		MaxComplexityPct:       30,
		MinLiquidity:           60,
		RiskAssetBand:          Band{Low: 15, High: 65},
		ShortHorizonYears:      3,
		ShortHorizonMaxRiskPct: 40,
		MaxCashPct:             20,
		CashDragMinYears:       3,
		MaxUnclassifiedPct:     10,
		CostPenaltyPerPoint:    1.5,
		DecayExponent:          1,
		LiquidityWeights:       DefaultLiquidityWeights(),
		LiquidityReserveType:   HoldingTypeCaixa,
		ScoreWeights:           DefaultScoreWeights(),
	}

	switch tolerance {
	case RiskConservador:
		p.Tolerance = RiskConservador
		p.ExteriorBand = Band{Low: 10, High: 20}
		p.MaxExteriorPct = 30
		p.RiskAssetBand = Band{Low: 0, High: 35}
	case RiskArrojado:
		p.Tolerance = RiskArrojado
		p.ExteriorBand = Band{Low: 10, High: 35}
		p.MaxExteriorPct = 60
		p.RiskAssetBand = Band{Low: 35, High: 100}
	}

	return p
}

// LiquidityWeight returns the weight of t, treating missing entries as illiquid
func (p PolicyProfile) LiquidityWeight(t HoldingType) float64 {
	if w, ok := p.LiquidityWeights[t]; ok {
		return w
	}
	return 0
}
