package domain

import "math"

// FlagCode names a risk signal raised when a metric crosses a policy threshold
type FlagCode string

const (
	FlagHighConcentrationTop5    FlagCode = "HIGH_CONCENTRATION_TOP5"
	FlagRiskMismatchObjective    FlagCode = "RISK_MISMATCH_OBJECTIVE"
	FlagLowLiquidityBucket       FlagCode = "LOW_LIQUIDITY_BUCKET"
	FlagHighComplexityFunds      FlagCode = "HIGH_COMPLEXITY_FUNDS"
	FlagLowGlobalDiversification FlagCode = "LOW_GLOBAL_DIVERSIFICATION"
	FlagHighExteriorExposure     FlagCode = "HIGH_EXTERIOR_EXPOSURE"
	FlagHighCashDrag             FlagCode = "HIGH_CASH_DRAG"
	FlagUnclassifiedHoldings     FlagCode = "UNCLASSIFIED_HOLDINGS"
	FlagExcludedHoldings         FlagCode = "EXCLUDED_HOLDINGS"
)

// FlagSeverityOrder is the fixed severity ranking, most severe first
var FlagSeverityOrder = []FlagCode{
	FlagHighConcentrationTop5,
	FlagRiskMismatchObjective,
	FlagLowLiquidityBucket,
	FlagHighComplexityFunds,
	FlagLowGlobalDiversification,
	FlagHighExteriorExposure,
	FlagHighCashDrag,
	FlagUnclassifiedHoldings,
	FlagExcludedHoldings,
}

// Rank returns the position of f in FlagSeverityOrder (lower is more severe).
// Unknown flags rank last.
func (f FlagCode) Rank() int {
	for i, code := range FlagSeverityOrder {
		if code == f {
			return i
		}
	}
	return len(FlagSeverityOrder)
}

// BRvsExterior is the two-way geographic split, summing to 100
type BRvsExterior struct {
	BR       float64 `json:"br"`
	Exterior float64 `json:"exterior"`
}

// TopHolding is one entry of the top-5 list
type TopHolding struct {
	Nome       string      `json:"nome"`
	Tipo       HoldingType `json:"tipo"`
	Percentual float64     `json:"percentual"`
}

// Position is a valid holding with its resolved value and portfolio share
type Position struct {
	Nome       string      `json:"nome"`
	Tipo       HoldingType `json:"tipo"`
	Valor      float64     `json:"valor"`
	Percentual float64     `json:"percentual"`
}

// Subscores are the five normalized (0-100) dimension scores
type Subscores struct {
	GlobalDiversification float64 `json:"global_diversification"`
	Concentration         float64 `json:"concentration"`
	Liquidity             float64 `json:"liquidity"`
	Complexity            float64 `json:"complexity"`
	CostEfficiency        float64 `json:"cost_efficiency"`
}

// Analytics is an immutable snapshot of portfolio-health metrics.
// Percentages are stored at full precision; use Round1 for display.
type Analytics struct {
	AllocationByClass map[HoldingType]float64 `json:"allocation_by_class"`
	BRvsExterior      BRvsExterior            `json:"br_vs_exterior"`
	ConcentrationTop5 float64                 `json:"concentration_top5"`
	LiquidityScore    float64                 `json:"liquidity_score"`
	ComplexityPct     float64                 `json:"complexity_pct"`
	CostEfficiency    float64                 `json:"cost_efficiency"`
	RiskAssetPct      float64                 `json:"risk_asset_pct"`
	TopHoldings       []TopHolding            `json:"top_holdings"`
	Subscores         Subscores               `json:"subscores"`
	Flags             []FlagCode              `json:"flags"`

	TotalValue float64     `json:"total_value"`
	Positions  []Position  `json:"positions"` // Sorted by value, descending
	Excluded   []string    `json:"excluded,omitempty"`
	Profile    UserProfile `json:"profile"`
	Empty      bool        `json:"empty"`
}

// HasFlag reports whether f is active
func (a Analytics) HasFlag(f FlagCode) bool {
	for _, code := range a.Flags {
		if code == f {
			return true
		}
	}
	return false
}

// ClassPct returns the allocation percent of t (0 when absent)
func (a Analytics) ClassPct(t HoldingType) float64 {
	return a.AllocationByClass[t]
}

// Clone returns a deep copy, so callers can derive values without touching a
func (a Analytics) Clone() Analytics {
	c := a
	if a.AllocationByClass != nil {
		c.AllocationByClass = make(map[HoldingType]float64, len(a.AllocationByClass))
		for k, v := range a.AllocationByClass {
			c.AllocationByClass[k] = v
		}
	}
	c.TopHoldings = cloneSlice(a.TopHoldings)
	c.Flags = cloneSlice(a.Flags)
	c.Positions = cloneSlice(a.Positions)
	c.Excluded = cloneSlice(a.Excluded)
	return c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// Round1 rounds v to one decimal place for display
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
