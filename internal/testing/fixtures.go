package testing

import (
	"time"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/aristath/checkup/internal/modules/checkup/flow"
)

// PortfolioText is a pasted portfolio with one malformed line (line 5)
const PortfolioText = `PETR4	25.000,00
HGLG11	15.000,00
Tesouro IPCA+ 2035	30.000,00
VGBL Brasilprev	20.000,00
Ativo sem valor
IVVB11	10.000,00`

// NewProfileFixture returns a moderate long-horizon growth profile
func NewProfileFixture() domain.UserProfile {
	return domain.UserProfile{
		ObjetivoPrincipal: domain.ObjectiveCrescimento,
		PrazoAnos:         10,
		ToleranciaRisco:   domain.RiskModerado,
		IdadeFaixa:        domain.Age31a45,
	}
}

// NewHoldingFixtures returns a classified five-holding portfolio worth R$100.000
func NewHoldingFixtures() []domain.TypedHolding {
	h := func(name string, tipo domain.HoldingType, valor float64) domain.TypedHolding {
		return domain.TypedHolding{NomeOuCodigo: name, Tipo: tipo, TipoSugerido: tipo, Valor: domain.Float(valor)}
	}
	return []domain.TypedHolding{
		h("PETR4", domain.HoldingTypeAcaoBR, 25000),
		h("HGLG11", domain.HoldingTypeFII, 15000),
		h("Tesouro IPCA+ 2035", domain.HoldingTypeRFIPCA, 30000),
		h("VGBL Brasilprev", domain.HoldingTypePrevidencia, 20000),
		h("IVVB11", domain.HoldingTypeETFBR, 10000),
	}
}

// NewCheckupFixture returns a checkup in the given step and status, with the
// holding fixtures and, past suitability, the profile fixture and its policy.
func NewCheckupFixture(id string, step flow.State, status domain.Status) *domain.Checkup {
	now := time.Now().UTC().Truncate(time.Second)
	c := &domain.Checkup{
		ID:        id,
		Status:    status,
		Step:      step,
		Holdings:  NewHoldingFixtures(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch step {
	case flow.StateInput:
		c.Holdings = []domain.TypedHolding{}
	case flow.StateAnalyzing, flow.StatePreview, flow.StateReport:
		profile := NewProfileFixture()
		policy := domain.DefaultPolicy(profile.ToleranciaRisco)
		c.Profile, c.PolicyProfile = &profile, &policy
		c.ClassificationConfidence = domain.Float(1)
	}
	return c
}
