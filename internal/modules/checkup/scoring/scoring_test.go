package scoring

import (
	"testing"

	"github.com/aristath/checkup/internal/modules/checkup/analytics"
	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSubscores(s domain.Subscores) domain.Analytics {
	return domain.Analytics{Subscores: s}
}

func subscores(diversification, concentration, liquidity, complexity, cost float64) domain.Subscores {
	return domain.Subscores{
		GlobalDiversification: diversification,
		Concentration:         concentration,
		Liquidity:             liquidity,
		Complexity:            complexity,
		CostEfficiency:        cost,
	}
}

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name      string
		subscores domain.Subscores
		expected  int
	}{
		{name: "all perfect", subscores: subscores(100, 100, 100, 100, 100), expected: 100},
		{name: "all zero", subscores: domain.Subscores{}, expected: 0},
		{name: "mixed", subscores: subscores(0, 0, 100, 100, 100), expected: 60},
		{name: "rounds up", subscores: subscores(50, 50, 50, 50, 53), expected: 51},
		{name: "rounds down", subscores: subscores(70, 70, 70, 70, 71), expected: 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeScore(withSubscores(tt.subscores)))
		})
	}
}

func TestComputeWeightedScore(t *testing.T) {
	a := withSubscores(domain.Subscores{GlobalDiversification: 100, Liquidity: 50})

	onlyDiversification := domain.ScoreWeights{GlobalDiversification: 1}
	assert.Equal(t, 100, ComputeWeightedScore(a, onlyDiversification))

	unnormalized := domain.ScoreWeights{GlobalDiversification: 2, Liquidity: 2}
	assert.Equal(t, 75, ComputeWeightedScore(a, unnormalized))

	assert.Equal(t, ComputeScore(a), ComputeWeightedScore(a, domain.ScoreWeights{}))
	assert.Equal(t, 100, ComputeWeightedScore(a, domain.ScoreWeights{GlobalDiversification: 1, Liquidity: -5}))
}

func TestComputeScore_EmptyAnalytics(t *testing.T) {
	a := withSubscores(subscores(100, 100, 100, 100, 100))
	a.Empty = true
	assert.Zero(t, ComputeScore(a))
}

func TestComputeScore_StockAndCash(t *testing.T) {
	holdings := []domain.TypedHolding{
		{NomeOuCodigo: "PETR4", Tipo: domain.HoldingTypeAcaoBR, Valor: domain.Float(50000)},
		{NomeOuCodigo: "Caixa", Tipo: domain.HoldingTypeCaixa, Valor: domain.Float(50000)},
	}
	profile := domain.UserProfile{ObjetivoPrincipal: domain.ObjectiveCrescimento, PrazoAnos: 10, ToleranciaRisco: domain.RiskModerado}

	a, err := analytics.ComputeAnalytics(holdings, profile, domain.DefaultPolicy(domain.RiskModerado))
	require.NoError(t, err)

	assert.Equal(t, 60, ComputeScore(a))
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		score    int
		expected Bucket
	}{
		{score: 100, expected: BucketExcelente},
		{score: 80, expected: BucketExcelente},
		{score: 79, expected: BucketBom},
		{score: 60, expected: BucketBom},
		{score: 59, expected: BucketRegular},
		{score: 40, expected: BucketRegular},
		{score: 39, expected: BucketPrecisaAtencao},
		{score: 0, expected: BucketPrecisaAtencao},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, BucketFor(tt.score), "score %d", tt.score)
	}
	assert.Equal(t, "orange", BucketRegular.Color)
}
