package diagnosis

import (
	"testing"

	"github.com/aristath/checkup/internal/modules/checkup/analytics"
	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/aristath/checkup/internal/modules/checkup/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stockAndCash(t *testing.T) (domain.Analytics, int) {
	t.Helper()
	holdings := []domain.TypedHolding{
		{NomeOuCodigo: "PETR4", Tipo: domain.HoldingTypeAcaoBR, Valor: domain.Float(50000)},
		{NomeOuCodigo: "Caixa", Tipo: domain.HoldingTypeCaixa, Valor: domain.Float(50000)},
	}
	profile := domain.UserProfile{ObjetivoPrincipal: domain.ObjectiveCrescimento, PrazoAnos: 10, ToleranciaRisco: domain.RiskModerado}

	a, err := analytics.ComputeAnalytics(holdings, profile, domain.DefaultPolicy(domain.RiskModerado))
	require.NoError(t, err)
	return a, scoring.ComputeScore(a)
}

func TestComposeDiagnosis_StockAndCash(t *testing.T) {
	a, score := stockAndCash(t)

	report := ComposeDiagnosis(a, score)

	assert.Equal(t, 60, report.Score)
	assert.Equal(t, "Bom", report.Bucket)
	assert.Equal(t, "Boa base, com pontos de atenção", report.Headline)
	assert.Contains(t, report.Summary, "60 pontos")

	require.Len(t, report.Risks, len(a.Flags))
	require.Len(t, report.Improvements, len(a.Flags))

	var top5 *domain.Risk
	for i := range report.Risks {
		if report.Risks[i].Flag == domain.FlagHighConcentrationTop5 {
			top5 = &report.Risks[i]
		}
	}
	require.NotNil(t, top5)
	assert.Equal(t, "Concentração elevada nos 5 maiores ativos", top5.Title)
	assert.Equal(t, domain.LevelHigh, top5.Severity)
	assert.Contains(t, top5.Detail, "100,0%")
	assert.Contains(t, top5.Detail, "45,0%")

	assert.Equal(t, domain.FlagHighConcentrationTop5, report.Risks[0].Flag)
}

func TestComposeDiagnosis_RisksOrderedBySeverity(t *testing.T) {
	a := domain.Analytics{
		Flags: []domain.FlagCode{
			domain.FlagHighConcentrationTop5,
			domain.FlagLowGlobalDiversification,
			domain.FlagHighCashDrag,
			domain.FlagExcludedHoldings,
		},
		Profile: domain.UserProfile{PrazoAnos: 5, ToleranciaRisco: domain.RiskModerado},
	}

	report := ComposeDiagnosis(a, 50)

	for i := 1; i < len(report.Risks); i++ {
		assert.LessOrEqual(t, report.Risks[i-1].Severity.Rank(), report.Risks[i].Severity.Rank())
	}
	for i := 1; i < len(report.Improvements); i++ {
		assert.LessOrEqual(t, report.Improvements[i-1].Impact.Rank(), report.Improvements[i].Impact.Rank())
	}

	// cash drag has a medium impact even though its risk is low
	assert.Equal(t, domain.FlagHighCashDrag, report.Improvements[2].Flag)
}

func TestComposeDiagnosis_ActionPlan(t *testing.T) {
	a, score := stockAndCash(t)

	report := ComposeDiagnosis(a, score)

	require.Len(t, report.ActionPlan7Days, 7)
	assert.Contains(t, report.ActionPlan7Days[1], "5 maiores ativos")
	assert.Contains(t, report.ActionPlan7Days[2], "internacional")
	for i, step := range report.ActionPlan7Days {
		assert.NotEmpty(t, step, "day %d", i+1)
	}
}

func TestComposeDiagnosis_ActionPlanFallbacks(t *testing.T) {
	tmpl := DefaultTemplates()
	a := domain.Analytics{Profile: domain.UserProfile{PrazoAnos: 5, ToleranciaRisco: domain.RiskModerado}}

	report := ComposeDiagnosis(a, 90)

	assert.Equal(t, "Excelente", report.Bucket)
	assert.Empty(t, report.Risks)
	assert.Equal(t, "Dia 2: "+tmpl.PrimaryFallback, report.ActionPlan7Days[1])
	assert.Equal(t, "Dia 3: "+tmpl.SecondaryFallback, report.ActionPlan7Days[2])
}

func TestComposeDiagnosis_TransparencyNotes(t *testing.T) {
	a, score := stockAndCash(t)
	a.Excluded = []string{"Imóvel Centro"}

	report := ComposeDiagnosis(a, score)

	require.NotEmpty(t, report.TransparencyNotes)
	assert.Contains(t, report.TransparencyNotes[0], "R$100.000,00")
	assert.Contains(t, report.TransparencyNotes[1], "Imóvel Centro")
	assert.Contains(t, report.TransparencyNotes, "A nota é a média das cinco dimensões, com pesos iguais (20% cada).")
}

func TestComposeDiagnosis_EmptyAnalytics(t *testing.T) {
	a := domain.Analytics{Empty: true, Flags: []domain.FlagCode{domain.FlagExcludedHoldings}, Excluded: []string{"A", "B"}}

	report := ComposeDiagnosis(a, 0)

	assert.Equal(t, "Precisa atenção", report.Bucket)
	require.Len(t, report.Risks, 1)
	assert.Contains(t, report.Risks[0].Detail, "2 ativo(s)")
	assert.Contains(t, report.TransparencyNotes[0], "Nenhum ativo")
}

func TestComposeDiagnosis_Deterministic(t *testing.T) {
	a, score := stockAndCash(t)

	first := ComposeDiagnosis(a, score)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ComposeDiagnosis(a, score))
	}
}

func TestComposer_CustomTemplates(t *testing.T) {
	tmpl := DefaultTemplates()
	tmpl.Buckets["Bom"] = BucketText{Headline: "Nota {{.Score}}", Summary: "ok"}
	c := &Composer{Templates: tmpl}
	a, score := stockAndCash(t)

	report, err := c.Compose(a, score, domain.DefaultPolicy(domain.RiskModerado))
	require.NoError(t, err)
	assert.Equal(t, "Nota 60", report.Headline)

	tmpl.Buckets["Bom"] = BucketText{Headline: "{{.Missing}}"}
	_, err = c.Compose(a, score, domain.DefaultPolicy(domain.RiskModerado))
	assert.Error(t, err)

	delete(tmpl.Flags, domain.FlagHighCashDrag)
	tmpl.Buckets["Bom"] = BucketText{Headline: "x", Summary: "y"}
	_, err = c.Compose(a, score, domain.DefaultPolicy(domain.RiskModerado))
	assert.Error(t, err)
}

func TestComposer_WeightedNote(t *testing.T) {
	c := &Composer{Templates: DefaultTemplates()}
	policy := domain.DefaultPolicy(domain.RiskModerado)
	policy.ScoreWeights = domain.ScoreWeights{GlobalDiversification: 1, Concentration: 1, Liquidity: 2}
	a, score := stockAndCash(t)

	report, err := c.Compose(a, score, policy)
	require.NoError(t, err)
	assert.Contains(t, report.TransparencyNotes, "A nota é a média ponderada das cinco dimensões: diversificação global 25,0%, concentração 25,0%, liquidez 50,0%, complexidade 0,0%, eficiência de custos 0,0%.")
}

func TestMarkdown(t *testing.T) {
	a, score := stockAndCash(t)
	report := ComposeDiagnosis(a, score)

	md := Markdown(report)

	assert.Contains(t, md, "# Boa base, com pontos de atenção\n")
	assert.Contains(t, md, "**Nota: 60/100 (Bom)**")
	assert.Contains(t, md, "## Riscos")
	assert.Contains(t, md, "(severidade alta)")
	assert.Contains(t, md, "## Plano de 7 dias")
	assert.Contains(t, md, "7. Dia 7:")
	assert.Contains(t, md, "## Notas de transparência")
}
