// Package simulator re-scores hypothetical portfolios derived from an Analytics snapshot.
// Every adjustment transforms a copy of the positions and runs it through the real
// analytics and scoring pipeline.
package simulator

import (
	"fmt"

	"github.com/aristath/checkup/internal/modules/checkup/analytics"
	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/aristath/checkup/internal/modules/checkup/scoring"
	"github.com/aristath/checkup/pkg/formatting"
)

// AdjustmentType names a what-if adjustment
type AdjustmentType string

const (
	AddExterior10         AdjustmentType = "ADD_EXTERIOR_10"
	ReduceTop5To45        AdjustmentType = "REDUCE_TOP5_TO_45"
	IncreaseLiquidityTo60 AdjustmentType = "INCREASE_LIQUIDITY_TO_60"
)

// AllAdjustments lists the supported adjustments in presentation order
var AllAdjustments = []AdjustmentType{AddExterior10, ReduceTop5To45, IncreaseLiquidityTo60}

// ParseAdjustmentType validates a client-supplied adjustment name
func ParseAdjustmentType(s string) (AdjustmentType, error) {
	for _, adj := range AllAdjustments {
		if string(adj) == s {
			return adj, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownAdjustment, s)
}

// Result is the outcome of one simulated adjustment
type Result struct {
	Adjustment   AdjustmentType   `json:"adjustment"`
	ScoreBefore  int              `json:"score_before"`
	ScoreAfter   int              `json:"score_after"`
	MetricBefore float64          `json:"metric_before"`
	MetricAfter  float64          `json:"metric_after"`
	Note         string           `json:"note"`
	Analytics    domain.Analytics `json:"analytics"`
}

// adjustment is one transform over a private copy of the positions.
// satisfied reports that there is nothing to change; reached checks the
// simulated metric against the target.
type adjustment struct {
	metric    func(a domain.Analytics) float64
	label     string
	unchanged string // note format when satisfied: label, metric
	target    func(a domain.Analytics, policy domain.PolicyProfile) float64
	satisfied func(a domain.Analytics, policy domain.PolicyProfile) bool
	reached   func(metric, target float64) bool
	apply     func(positions []domain.Position, a domain.Analytics, policy domain.PolicyProfile) []domain.Position
}

const (
	withinTarget = "A %s já está em %s, dentro da meta; nenhum ajuste necessário."
	missedTarget = " A meta não é alcançável só redistribuindo entre os ativos atuais."

	// metricSlack absorbs float noise when comparing a simulated metric to its target
	metricSlack = 0.05
)

func atMost(metric, target float64) bool  { return metric <= target+metricSlack }
func atLeast(metric, target float64) bool { return metric >= target-metricSlack }

var adjustments = map[AdjustmentType]adjustment{
	AddExterior10: {
		label:     "exposição ao exterior",
		unchanged: "A %s já está em %s; não há valor no Brasil para transferir.",
		metric:    func(a domain.Analytics) float64 { return a.BRvsExterior.Exterior },
		target: func(a domain.Analytics, _ domain.PolicyProfile) float64 {
			return min(100, a.BRvsExterior.Exterior+exteriorStep)
		},
		satisfied: func(a domain.Analytics, _ domain.PolicyProfile) bool {
			return a.BRvsExterior.Exterior >= 100
		},
		reached: atLeast,
		apply:   addExterior,
	},
	ReduceTop5To45: {
		label:     "concentração nos 5 maiores",
		unchanged: withinTarget,
		metric:    func(a domain.Analytics) float64 { return a.ConcentrationTop5 },
		target:    func(_ domain.Analytics, policy domain.PolicyProfile) float64 { return policy.MaxTop5Pct },
		satisfied: func(a domain.Analytics, policy domain.PolicyProfile) bool {
			return a.ConcentrationTop5 <= policy.MaxTop5Pct
		},
		reached: atMost,
		apply:   reduceTop5,
	},
	IncreaseLiquidityTo60: {
		label:     "liquidez",
		unchanged: withinTarget,
		metric:    func(a domain.Analytics) float64 { return a.LiquidityScore },
		target:    func(_ domain.Analytics, policy domain.PolicyProfile) float64 { return policy.MinLiquidity },
		satisfied: func(a domain.Analytics, policy domain.PolicyProfile) bool {
			return a.LiquidityScore >= policy.MinLiquidity
		},
		reached: atLeast,
		apply:   increaseLiquidity,
	},
}

// SimulateAdjustment applies adj to a copy of a's positions and re-scores the result.
// a is never modified.
func SimulateAdjustment(a domain.Analytics, policy domain.PolicyProfile, adj AdjustmentType) (Result, error) {
	def, ok := adjustments[adj]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", domain.ErrUnknownAdjustment, adj)
	}
	if a.Empty || len(a.Positions) == 0 {
		return Result{}, fmt.Errorf("simulate %s: %w", adj, domain.ErrNoHoldings)
	}

	before := scoring.ComputeWeightedScore(a, policy.ScoreWeights)
	metricBefore := def.metric(a)

	if def.satisfied(a, policy) {
		return Result{
			Adjustment:   adj,
			ScoreBefore:  before,
			ScoreAfter:   before,
			MetricBefore: metricBefore,
			MetricAfter:  metricBefore,
			Note:         fmt.Sprintf(def.unchanged, def.label, formatMetric(adj, metricBefore)),
			Analytics:    a.Clone(),
		}, nil
	}

	positions := def.apply(cloneSlice(a.Positions), a, policy)

	simulated, err := analytics.ComputeAnalytics(toHoldings(positions, a.Excluded), a.Profile, policy)
	if err != nil {
		return Result{}, fmt.Errorf("simulate %s: %w", adj, err)
	}
	after := scoring.ComputeWeightedScore(simulated, policy.ScoreWeights)
	metricAfter := def.metric(simulated)
	target := def.target(a, policy)

	note := fmt.Sprintf("Levando a %s de %s para %s (meta %s), a nota vai de %d para %d.",
		def.label, formatMetric(adj, metricBefore), formatMetric(adj, metricAfter),
		formatMetric(adj, target), before, after)
	if !def.reached(metricAfter, target) {
		note += missedTarget
	}

	return Result{
		Adjustment:   adj,
		ScoreBefore:  before,
		ScoreAfter:   after,
		MetricBefore: metricBefore,
		MetricAfter:  metricAfter,
		Note:         note,
		Analytics:    simulated,
	}, nil
}

// SimulateAll runs every adjustment in AllAdjustments order
func SimulateAll(a domain.Analytics, policy domain.PolicyProfile) ([]Result, error) {
	results := make([]Result, 0, len(AllAdjustments))
	for _, adj := range AllAdjustments {
		r, err := SimulateAdjustment(a, policy, adj)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func formatMetric(adj AdjustmentType, v float64) string {
	if adj == IncreaseLiquidityTo60 {
		return formatting.Decimal(v, 0) + "/100"
	}
	return formatting.Percent(v)
}

// toHoldings rebuilds typed holdings; excluded names are carried without a value
// so the simulated analytics keeps reporting them.
func toHoldings(positions []domain.Position, excluded []string) []domain.TypedHolding {
	holdings := make([]domain.TypedHolding, 0, len(positions)+len(excluded))
	for _, p := range positions {
		holdings = append(holdings, domain.TypedHolding{
			NomeOuCodigo: p.Nome,
			Tipo:         p.Tipo,
			Valor:        domain.Float(p.Valor),
		})
	}
	for _, name := range excluded {
		holdings = append(holdings, domain.TypedHolding{NomeOuCodigo: name, Tipo: domain.HoldingTypeOutro})
	}
	return holdings
}

func cloneSlice[T any](s []T) []T {
	return append(make([]T, 0, len(s)), s...)
}
