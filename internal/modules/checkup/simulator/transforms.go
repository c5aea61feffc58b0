package simulator

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
)

const (
	exteriorStep = 10.0

	// maxSyntheticPerType bounds how many placeholder holdings one type receives
	maxSyntheticPerType = 20

	// liquidityOvershoot lands the recomputed score on the target instead of a hair below it
	liquidityOvershoot = 1 + 1e-9
)

func tolerance(total float64) float64 {
	return total * 1e-12
}

func syntheticName(t domain.HoldingType) string {
	return fmt.Sprintf("%s (simulado)", t)
}

func classTotals(positions []domain.Position) map[domain.HoldingType]float64 {
	totals := make(map[domain.HoldingType]float64, len(domain.AllHoldingTypes))
	for _, p := range positions {
		totals[p.Tipo] += p.Valor
	}
	return totals
}

// takeFromClass removes amount from the positions of class t, pro-rata to their value.
// Taking the whole class drops its positions.
func takeFromClass(positions []domain.Position, t domain.HoldingType, amount float64) []domain.Position {
	classTotal := classTotals(positions)[t]
	if classTotal <= 0 || amount <= 0 {
		return positions
	}

	out := positions[:0]
	for _, p := range positions {
		if p.Tipo == t {
			if amount >= classTotal {
				continue
			}
			p.Valor -= amount * p.Valor / classTotal
		}
		out = append(out, p)
	}
	return out
}

// addExterior moves ten percentage points (or what is left below 100%) from the
// largest non-exterior classes into a placeholder exterior holding.
func addExterior(positions []domain.Position, a domain.Analytics, _ domain.PolicyProfile) []domain.Position {
	total := a.TotalValue
	shift := total * (min(100, a.BRvsExterior.Exterior+exteriorStep) - a.BRvsExterior.Exterior) / 100

	remaining := shift
	for remaining > tolerance(total) {
		source, value := largestClass(positions, func(t domain.HoldingType) bool { return !t.IsExterior() })
		if value <= 0 {
			break
		}
		take := min(remaining, value)
		positions = takeFromClass(positions, source, take)
		remaining -= take
	}

	moved := shift - remaining
	if moved <= 0 {
		return positions
	}
	return append(positions, domain.Position{
		Nome:  syntheticName(domain.HoldingTypeExterior),
		Tipo:  domain.HoldingTypeExterior,
		Valor: moved,
	})
}

// largestClass returns the biggest class accepted by keep; ties go to canonical order
func largestClass(positions []domain.Position, keep func(domain.HoldingType) bool) (domain.HoldingType, float64) {
	totals := classTotals(positions)
	var best domain.HoldingType
	bestValue := 0.0
	for _, t := range domain.AllHoldingTypes {
		if keep(t) && totals[t] > bestValue {
			best, bestValue = t, totals[t]
		}
	}
	return best, bestValue
}

// reduceTop5 shrinks the five largest positions pro-rata until the five largest
// of the resulting portfolio hold the concentration ceiling. The smallest shrunk
// top position becomes a cap: other positions above it are cut down to it, and
// the freed value tops up the positions below it pro-rata. What does not fit
// becomes placeholder holdings of the source types, each no larger than the cap.
// With fewer than five positions the placeholders fill the empty top slots, so
// the shrink is deeper.
func reduceTop5(positions []domain.Position, a domain.Analytics, policy domain.PolicyProfile) []domain.Position {
	total := a.TotalValue
	eps := tolerance(total)
	n := min(5, len(positions))
	top, rest := positions[:n], positions[n:]

	topValue := 0.0
	for _, p := range top {
		topValue += p.Valor
	}
	targetValue := total * policy.MaxTop5Pct / 100
	if topValue <= targetValue || topValue <= 0 {
		return positions
	}
	factor := targetValue / (topValue + float64(5-n)*top[n-1].Valor)
	ceiling := top[n-1].Valor * factor

	freedByType := make(map[domain.HoldingType]float64, n)
	freed := 0.0
	for i := range top {
		cut := top[i].Valor * (1 - factor)
		freedByType[top[i].Tipo] += cut
		freed += cut
		top[i].Valor *= factor
	}
	for i := range rest {
		if cut := rest[i].Valor - ceiling; cut > 0 {
			freedByType[rest[i].Tipo] += cut
			freed += cut
			rest[i].Valor = ceiling
		}
	}

	leftover := fillProRata(rest, freed, ceiling, eps)
	if leftover <= eps {
		return positions
	}

	for _, t := range domain.AllHoldingTypes {
		share := leftover * freedByType[t] / freed
		if share <= eps {
			continue
		}
		for j, v := range placeholderChunks(share, ceiling, eps) {
			positions = append(positions, domain.Position{
				Nome:  fmt.Sprintf("%s (simulado %d)", t, j+1),
				Tipo:  t,
				Valor: v,
			})
		}
	}
	return positions
}

// placeholderChunks splits amount into chunks of size ceiling plus a smaller
// remainder. Past maxSyntheticPerType chunks the amount is split evenly, and the
// chunks then exceed the ceiling.
func placeholderChunks(amount, ceiling, eps float64) []float64 {
	full := int(math.Floor((amount + eps) / ceiling))
	remainder := amount - float64(full)*ceiling
	if remainder <= eps {
		remainder = 0
	}

	count := full
	if remainder > 0 {
		count++
	}
	if count > maxSyntheticPerType {
		chunks := make([]float64, maxSyntheticPerType)
		for i := range chunks {
			chunks[i] = amount / maxSyntheticPerType
		}
		return chunks
	}

	chunks := make([]float64, 0, count)
	for i := 0; i < full; i++ {
		chunks = append(chunks, ceiling)
	}
	if remainder > 0 {
		chunks = append(chunks, remainder)
	}
	return chunks
}

// fillProRata spreads amount over positions pro-rata to value, capping each at
// ceiling. It returns what could not be placed.
func fillProRata(positions []domain.Position, amount, ceiling, eps float64) float64 {
	for amount > eps {
		base := 0.0
		for _, p := range positions {
			if p.Valor < ceiling-eps {
				base += p.Valor
			}
		}
		if base <= 0 {
			break
		}

		placed := 0.0
		for i := range positions {
			if positions[i].Valor >= ceiling-eps {
				continue
			}
			add := min(amount*positions[i].Valor/base, ceiling-positions[i].Valor)
			positions[i].Valor += add
			placed += add
		}
		amount -= placed
		if placed <= eps {
			break
		}
	}
	return amount
}

// increaseLiquidity moves value from the least liquid classes into the most liquid
// one, just enough to reach the liquidity floor.
func increaseLiquidity(positions []domain.Position, a domain.Analytics, policy domain.PolicyProfile) []domain.Position {
	total := a.TotalValue
	dest := liquidDestination(policy)
	destWeight := policy.LiquidityWeight(dest)

	totals := classTotals(positions)
	sources := make([]domain.HoldingType, 0, len(totals))
	for _, t := range domain.AllHoldingTypes {
		if totals[t] > 0 && policy.LiquidityWeight(t) < destWeight {
			sources = append(sources, t)
		}
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return policy.LiquidityWeight(sources[i]) < policy.LiquidityWeight(sources[j])
	})

	need := (policy.MinLiquidity - a.LiquidityScore) * total * liquidityOvershoot
	moved := 0.0
	for _, src := range sources {
		if need <= tolerance(total) {
			break
		}
		gain := destWeight - policy.LiquidityWeight(src)
		take := min(totals[src], need/gain)
		positions = takeFromClass(positions, src, take)
		moved += take
		need -= take * gain
	}

	if moved <= 0 {
		return positions
	}
	return append(positions, domain.Position{
		Nome:  syntheticName(dest),
		Tipo:  dest,
		Valor: moved,
	})
}

// liquidDestination is the most liquid type, preferring the policy's reserve type on ties
func liquidDestination(policy domain.PolicyProfile) domain.HoldingType {
	best := domain.HoldingTypeCaixa
	bestWeight := math.Inf(-1)
	for _, t := range domain.AllHoldingTypes {
		if w := policy.LiquidityWeight(t); w > bestWeight {
			best, bestWeight = t, w
		}
	}
	reserve := policy.LiquidityReserveType
	if reserve.IsValid() && policy.LiquidityWeight(reserve) == bestWeight {
		return reserve
	}
	return best
}
