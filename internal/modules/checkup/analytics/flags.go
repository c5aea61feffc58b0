package analytics

import (
	"github.com/aristath/checkup/internal/modules/checkup/domain"
)

// evaluateFlags runs every rule and returns the active flags in severity order
func evaluateFlags(a domain.Analytics, profile domain.UserProfile, policy domain.PolicyProfile) []domain.FlagCode {
	active := map[domain.FlagCode]bool{
		domain.FlagHighConcentrationTop5:    a.ConcentrationTop5 >= policy.MaxTop5Pct,
		domain.FlagRiskMismatchObjective:    riskMismatch(a, profile, policy),
		domain.FlagLowLiquidityBucket:       a.LiquidityScore < policy.MinLiquidity,
		domain.FlagHighComplexityFunds:      a.ComplexityPct >= policy.MaxComplexityPct,
		domain.FlagLowGlobalDiversification: a.BRvsExterior.Exterior < policy.ExteriorBand.Low,
		domain.FlagHighExteriorExposure:     a.BRvsExterior.Exterior > policy.MaxExteriorPct,
		domain.FlagHighCashDrag: a.ClassPct(domain.HoldingTypeCaixa) > policy.MaxCashPct &&
			profile.PrazoAnos >= policy.CashDragMinYears,
		domain.FlagUnclassifiedHoldings: a.ClassPct(domain.HoldingTypeOutro) > 0 &&
			a.ClassPct(domain.HoldingTypeOutro) >= policy.MaxUnclassifiedPct,
		domain.FlagExcludedHoldings: len(a.Excluded) > 0,
	}

	flags := []domain.FlagCode{}
	for _, code := range domain.FlagSeverityOrder {
		if active[code] {
			flags = append(flags, code)
		}
	}
	return flags
}

// riskMismatch checks the equity-like share against the tolerance band, and
// against the short-horizon cap for short deadlines or an emergency-reserve goal.
func riskMismatch(a domain.Analytics, profile domain.UserProfile, policy domain.PolicyProfile) bool {
	if !policy.RiskAssetBand.Contains(a.RiskAssetPct) {
		return true
	}
	shortHorizon := profile.PrazoAnos > 0 && profile.PrazoAnos <= policy.ShortHorizonYears
	if shortHorizon || profile.ObjetivoPrincipal == domain.ObjectiveReservaEmergencia {
		return a.RiskAssetPct > policy.ShortHorizonMaxRiskPct
	}
	return false
}
