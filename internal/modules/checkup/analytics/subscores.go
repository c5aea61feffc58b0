package analytics

import (
	"math"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
)

func computeSubscores(a domain.Analytics, policy domain.PolicyProfile) domain.Subscores {
	return domain.Subscores{
		GlobalDiversification: BandScore(a.BRvsExterior.Exterior, policy.ExteriorBand, policy.DecayExponent),
		Concentration:         CeilingScore(a.ConcentrationTop5, policy.MaxTop5Pct, policy.DecayExponent),
		Liquidity:             a.LiquidityScore,
		Complexity:            math.Max(0, 100-a.ComplexityPct),
		CostEfficiency:        a.CostEfficiency,
	}
}

// BandScore is 100 while v is inside band and decays to 0 at 0% below it and
// at 100% above it.
func BandScore(v float64, band domain.Band, exponent float64) float64 {
	switch {
	case v < band.Low:
		if band.Low <= 0 {
			return 0
		}
		return decay(v/band.Low, exponent)
	case v > band.High:
		if band.High >= 100 {
			return 0
		}
		return decay((100-v)/(100-band.High), exponent)
	}
	return 100
}

// CeilingScore is 100 up to limit and decays to 0 at 100%
func CeilingScore(v, limit, exponent float64) float64 {
	if v <= limit {
		return 100
	}
	if limit >= 100 {
		return 0
	}
	return decay((100-v)/(100-limit), exponent)
}

// decay maps the remaining closeness (1 at the band edge, 0 at the domain edge)
// to a score. Exponent 1 is linear; larger values punish distance harder.
func decay(closeness, exponent float64) float64 {
	if exponent <= 0 {
		exponent = 1
	}
	closeness = clamp(closeness, 0, 1)
	return 100 * math.Pow(closeness, exponent)
}
