// Package analytics computes portfolio-health metrics from typed holdings.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const topHoldingsCount = 5

type position struct {
	domain.Position
	order int
}

// ComputeAnalytics derives allocation, concentration, liquidity, complexity and
// cost metrics, the five sub-scores and the active flags.
//
// An empty holdings list is a precondition violation (domain.ErrNoHoldings).
// Holdings without a finite positive value are excluded and reported, and a
// portfolio with nothing left yields an Analytics with Empty set.
func ComputeAnalytics(holdings []domain.TypedHolding, profile domain.UserProfile, policy domain.PolicyProfile) (domain.Analytics, error) {
	if len(holdings) == 0 {
		return domain.Analytics{}, domain.ErrNoHoldings
	}

	positions := make([]position, 0, len(holdings))
	excluded := []string{}
	for i, h := range holdings {
		if !h.Tipo.IsValid() {
			return domain.Analytics{}, fmt.Errorf("holding %d (%s): %w", i+1, h.NomeOuCodigo,
				domain.NewHoldingError("tipo", fmt.Sprintf("tipo desconhecido %q", h.Tipo)))
		}
		v, ok := h.ResolveValue()
		if !ok {
			excluded = append(excluded, h.NomeOuCodigo)
			continue
		}
		positions = append(positions, position{
			Position: domain.Position{Nome: h.NomeOuCodigo, Tipo: h.Tipo, Valor: v},
			order:    i,
		})
	}

	values := make([]float64, len(positions))
	for i, p := range positions {
		values[i] = p.Valor
	}
	total := floats.Sum(values)
	if len(positions) > 0 && math.IsInf(total, 0) {
		return domain.Analytics{}, domain.NewHoldingError("valor", "soma da carteira não é finita")
	}

	if len(positions) == 0 || total <= 0 {
		return emptyAnalytics(profile, excluded), nil
	}

	sort.SliceStable(positions, func(i, j int) bool {
		if positions[i].Valor != positions[j].Valor {
			return positions[i].Valor > positions[j].Valor
		}
		if positions[i].Nome != positions[j].Nome {
			return positions[i].Nome < positions[j].Nome
		}
		return positions[i].order < positions[j].order
	})

	a := domain.Analytics{
		AllocationByClass: map[domain.HoldingType]float64{},
		TopHoldings:       []domain.TopHolding{},
		Positions:         make([]domain.Position, len(positions)),
		Profile:           profile,
		TotalValue:        total,
	}
	if len(excluded) > 0 {
		a.Excluded = excluded
	}

	classValues := make(map[domain.HoldingType]float64, len(domain.AllHoldingTypes))
	liquidityWeights := make([]float64, len(positions))
	positionValues := make([]float64, len(positions))
	for i, p := range positions {
		p.Percentual = p.Valor / total * 100
		a.Positions[i] = p.Position
		classValues[p.Tipo] += p.Valor
		liquidityWeights[i] = policy.LiquidityWeight(p.Tipo)
		positionValues[i] = p.Valor
	}

	var exteriorValue, brValue float64
	for _, t := range domain.AllHoldingTypes {
		v, ok := classValues[t]
		if !ok {
			continue
		}
		pct := v / total * 100
		a.AllocationByClass[t] = pct
		if t.IsExterior() {
			exteriorValue += v
		} else {
			brValue += v
		}
		if t.IsComplex() {
			a.ComplexityPct += pct
		}
		if t.IsRiskAsset() {
			a.RiskAssetPct += pct
		}
	}
	a.BRvsExterior = domain.BRvsExterior{
		BR:       brValue / total * 100,
		Exterior: exteriorValue / total * 100,
	}

	for i := 0; i < len(a.Positions) && i < topHoldingsCount; i++ {
		p := a.Positions[i]
		a.ConcentrationTop5 += p.Percentual
		a.TopHoldings = append(a.TopHoldings, domain.TopHolding{Nome: p.Nome, Tipo: p.Tipo, Percentual: p.Percentual})
	}

	a.LiquidityScore = clamp(stat.Mean(liquidityWeights, positionValues), 0, 100)
	a.CostEfficiency = math.Max(0, 100-policy.CostPenaltyPerPoint*a.ComplexityPct)

	a.Subscores = computeSubscores(a, policy)
	a.Flags = evaluateFlags(a, profile, policy)

	return a, nil
}

func emptyAnalytics(profile domain.UserProfile, excluded []string) domain.Analytics {
	a := domain.Analytics{
		AllocationByClass: map[domain.HoldingType]float64{},
		TopHoldings:       []domain.TopHolding{},
		Positions:         []domain.Position{},
		Flags:             []domain.FlagCode{},
		Profile:           profile,
		Empty:             true,
	}
	if len(excluded) > 0 {
		a.Excluded = excluded
		a.Flags = []domain.FlagCode{domain.FlagExcludedHoldings}
	}
	return a
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
