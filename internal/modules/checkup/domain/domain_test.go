package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHoldingType(t *testing.T) {
	tests := []struct {
		input    string
		expected HoldingType
		ok       bool
	}{
		{"Ação BR", HoldingTypeAcaoBR, true},
		{"acoes", HoldingTypeAcaoBR, true},
		{"fii", HoldingTypeFII, true},
		{"Fundos Imobiliários", HoldingTypeFII, true},
		{"etf", HoldingTypeETFBR, true},
		{"tesouro ipca", HoldingTypeRFIPCA, true},
		{"Tesouro Selic", HoldingTypeRendaFixa, true},
		{"previdencia", HoldingTypePrevidencia, true},
		{"VGBL", HoldingTypePrevidencia, true},
		{"cash", HoldingTypeCaixa, true},
		{"  Outros ", HoldingTypeOutro, true},
		{"cripto", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseHoldingType(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestHoldingType_IsValid(t *testing.T) {
	for _, ht := range AllHoldingTypes {
		assert.True(t, ht.IsValid(), "%s should be valid", ht)
	}
	assert.False(t, HoldingType("Cripto").IsValid())
}

func TestResolveValue(t *testing.T) {
	tests := []struct {
		name     string
		holding  RawHolding
		expected float64
		ok       bool
	}{
		{"valor wins", RawHolding{Valor: Float(100), Quantidade: Float(2), Preco: Float(10)}, 100, true},
		{"derived from quantity and price", RawHolding{Quantidade: Float(200), Preco: Float(25.5)}, 5100, true},
		{"only quantity", RawHolding{Quantidade: Float(200)}, 0, false},
		{"zero", RawHolding{Valor: Float(0)}, 0, false},
		{"negative", RawHolding{Valor: Float(-10)}, -10, false},
		{"NaN", RawHolding{Valor: Float(math.NaN())}, 0, false},
		{"infinite", RawHolding{Valor: Float(math.Inf(1))}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.holding.ResolveValue()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expected, got, 1e-9)
			}
		})
	}
}

func TestUserProfile_Validate(t *testing.T) {
	valid := UserProfile{
		ObjetivoPrincipal: ObjectiveAposentadoria,
		PrazoAnos:         10,
		ToleranciaRisco:   RiskModerado,
	}
	require.NoError(t, valid.Validate())

	withAge := valid
	withAge.IdadeFaixa = Age31a45
	require.NoError(t, withAge.Validate())

	badPrazo := valid
	badPrazo.PrazoAnos = 0
	err := badPrazo.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidProfile))

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "prazo_anos", vErr.Field)

	badTolerance := valid
	badTolerance.ToleranciaRisco = "agressivo"
	assert.ErrorIs(t, badTolerance.Validate(), ErrInvalidProfile)

	badObjective := valid
	badObjective.ObjetivoPrincipal = "ficar rico"
	assert.ErrorIs(t, badObjective.Validate(), ErrInvalidProfile)
}

func TestDefaultPolicy(t *testing.T) {
	moderate := DefaultPolicy(RiskModerado)
	assert.Equal(t, Band{Low: 10, High: 25}, moderate.ExteriorBand)
	assert.Equal(t, 45.0, moderate.MaxTop5Pct)
	assert.Equal(t, 60.0, moderate.MinLiquidity)

	conservative := DefaultPolicy(RiskConservador)
	assert.Equal(t, RiskConservador, conservative.Tolerance)
	assert.Less(t, conservative.RiskAssetBand.High, moderate.RiskAssetBand.High)

	aggressive := DefaultPolicy(RiskArrojado)
	assert.Greater(t, aggressive.RiskAssetBand.Low, moderate.RiskAssetBand.Low)

	unknown := DefaultPolicy("desconhecido")
	assert.Equal(t, RiskModerado, unknown.Tolerance)

	for _, ht := range AllHoldingTypes {
		_, ok := moderate.LiquidityWeights[ht]
		assert.True(t, ok, "liquidity weight missing for %s", ht)
	}
}

func TestPolicyProfile_JSONRoundTrip(t *testing.T) {
	policy := DefaultPolicy(RiskArrojado)

	data, err := json.Marshal(policy)
	require.NoError(t, err)

	var decoded PolicyProfile
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, policy, decoded)
}

func TestFlagRank(t *testing.T) {
	assert.Less(t, FlagHighConcentrationTop5.Rank(), FlagLowGlobalDiversification.Rank())
	assert.Equal(t, len(FlagSeverityOrder), FlagCode("SOMETHING_ELSE").Rank())
}

func TestAnalyticsClone(t *testing.T) {
	a := Analytics{
		AllocationByClass: map[HoldingType]float64{HoldingTypeAcaoBR: 100},
		Flags:             []FlagCode{FlagHighConcentrationTop5},
		Positions:         []Position{{Nome: "PETR4", Tipo: HoldingTypeAcaoBR, Valor: 10, Percentual: 100}},
	}

	c := a.Clone()
	c.AllocationByClass[HoldingTypeAcaoBR] = 0
	c.Flags[0] = FlagExcludedHoldings
	c.Positions[0].Valor = 99

	assert.Equal(t, 100.0, a.AllocationByClass[HoldingTypeAcaoBR])
	assert.Equal(t, FlagHighConcentrationTop5, a.Flags[0])
	assert.Equal(t, 10.0, a.Positions[0].Valor)
	assert.Nil(t, c.Excluded)
}
