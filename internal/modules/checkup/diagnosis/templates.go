package diagnosis

import "github.com/aristath/checkup/internal/modules/checkup/domain"

// BucketText is the headline and summary shown for a score bucket.
// Both are text/template sources rendered with the report view.
type BucketText struct {
	Headline string
	Summary  string
}

// FlagText is the static narrative attached to one flag.
// Detail fields are text/template sources rendered with the report view.
type FlagText struct {
	RiskTitle  string
	RiskDetail string
	Severity   domain.Level

	ImprovementTitle  string
	ImprovementDetail string
	Impact            domain.Level

	// Action is the remediation line used by the 7-day plan
	Action string
}

// Templates holds every piece of narrative the composer renders
type Templates struct {
	Buckets map[string]BucketText // Keyed by scoring bucket label
	Flags   map[domain.FlagCode]FlagText

	// ActionPlan has one entry per day. {{.Primary}} and {{.Secondary}} are the
	// actions of the two most severe flags; the Fallback lines stand in when a
	// portfolio has fewer flags.
	ActionPlan        [7]string
	PrimaryFallback   string
	SecondaryFallback string
}

// DefaultTemplates returns the built-in pt-BR narrative
func DefaultTemplates() Templates {
	return Templates{
		Buckets: map[string]BucketText{
			"Excelente": {
				Headline: "Carteira bem estruturada",
				Summary:  "Sua carteira marcou {{.Score}} pontos. A alocação está equilibrada para o seu perfil e os ajustes sugeridos são finos.",
			},
			"Bom": {
				Headline: "Boa base, com pontos de atenção",
				Summary:  "Sua carteira marcou {{.Score}} pontos. A estrutura é sólida, mas alguns ajustes podem reduzir riscos e melhorar a eficiência.",
			},
			"Regular": {
				Headline: "Carteira com desequilíbrios relevantes",
				Summary:  "Sua carteira marcou {{.Score}} pontos. Há concentrações ou custos que merecem revisão nas próximas semanas.",
			},
			"Precisa atenção": {
				Headline: "Carteira precisa de atenção",
				Summary:  "Sua carteira marcou {{.Score}} pontos. Os riscos identificados abaixo devem ser tratados antes de novos aportes.",
			},
		},
		Flags: map[domain.FlagCode]FlagText{
			domain.FlagHighConcentrationTop5: {
				RiskTitle:         "Concentração elevada nos 5 maiores ativos",
				RiskDetail:        "Os 5 maiores ativos somam {{.Top5}} da carteira, acima do limite de {{.MaxTop5}}. Um problema em um único emissor pesa muito no resultado.",
				Severity:          domain.LevelHigh,
				ImprovementTitle:  "Diluir os maiores ativos",
				ImprovementDetail: "Reduza gradualmente os maiores ativos até que os 5 maiores fiquem abaixo de {{.MaxTop5}}, direcionando novos aportes para outras posições.",
				Impact:            domain.LevelHigh,
				Action:            "Liste os 5 maiores ativos e defina quanto de cada um realocar para ficar abaixo de {{.MaxTop5}}.",
			},
			domain.FlagRiskMismatchObjective: {
				RiskTitle:         "Risco desalinhado com seu perfil e prazo",
				RiskDetail:        "{{.RiskAsset}} da carteira está em ativos de risco (ações, FIIs, ETFs e exterior), fora da faixa de {{.RiskBand}} indicada para o seu perfil e prazo de {{.Prazo}} anos.",
				Severity:          domain.LevelHigh,
				ImprovementTitle:  "Ajustar o risco ao objetivo",
				ImprovementDetail: "Rebalanceie entre renda fixa e renda variável para trazer a parcela de risco para {{.RiskBand}}.",
				Impact:            domain.LevelHigh,
				Action:            "Compare a parcela em renda variável ({{.RiskAsset}}) com a faixa {{.RiskBand}} e planeje o rebalanceamento.",
			},
			domain.FlagLowLiquidityBucket: {
				RiskTitle:         "Liquidez baixa",
				RiskDetail:        "O índice de liquidez da carteira é {{.Liquidity}}/100, abaixo do mínimo de {{.MinLiquidity}}/100. Resgatar em uma emergência pode levar tempo ou custar caro.",
				Severity:          domain.LevelMed,
				ImprovementTitle:  "Reforçar a reserva líquida",
				ImprovementDetail: "Mantenha uma parcela em caixa ou renda fixa de liquidez diária até o índice passar de {{.MinLiquidity}}/100.",
				Impact:            domain.LevelMed,
				Action:            "Separe uma reserva de liquidez diária e direcione a ela os próximos aportes.",
			},
			domain.FlagHighComplexityFunds: {
				RiskTitle:         "Muitos produtos complexos",
				RiskDetail:        "Fundos e previdência somam {{.Complexity}} da carteira, acima de {{.MaxComplexity}}. Esses produtos têm custos e estratégias pouco transparentes.",
				Severity:          domain.LevelMed,
				ImprovementTitle:  "Simplificar os produtos",
				ImprovementDetail: "Avalie trocar fundos caros por alternativas diretas (títulos, ETFs) com custo menor.",
				Impact:            domain.LevelMed,
				Action:            "Levante taxa de administração e performance de cada fundo e previdência.",
			},
			domain.FlagLowGlobalDiversification: {
				RiskTitle:         "Pouca diversificação internacional",
				RiskDetail:        "Apenas {{.Exterior}} da carteira está no exterior, abaixo da faixa recomendada de {{.ExteriorBand}}. O patrimônio fica exposto a um único país e moeda.",
				Severity:          domain.LevelMed,
				ImprovementTitle:  "Adicionar exposição ao exterior",
				ImprovementDetail: "Aumente gradualmente a parcela internacional para {{.ExteriorBand}}, via ETFs ou BDRs.",
				Impact:            domain.LevelMed,
				Action:            "Escolha um veículo de exposição internacional (ETF ou BDR) e defina um aporte inicial.",
			},
			domain.FlagHighExteriorExposure: {
				RiskTitle:         "Exposição elevada ao exterior",
				RiskDetail:        "{{.Exterior}} da carteira está no exterior, acima do limite de {{.MaxExterior}} para o seu perfil. A variação cambial passa a dominar o resultado.",
				Severity:          domain.LevelLow,
				ImprovementTitle:  "Reduzir a exposição cambial",
				ImprovementDetail: "Traga a parcela internacional para dentro de {{.ExteriorBand}}.",
				Impact:            domain.LevelLow,
				Action:            "Verifique quanto da carteira depende do câmbio e defina o limite desejado.",
			},
			domain.FlagHighCashDrag: {
				RiskTitle:         "Excesso de caixa para o seu prazo",
				RiskDetail:        "{{.Cash}} está parado em caixa, acima de {{.MaxCash}}. Para um prazo de {{.Prazo}} anos esse dinheiro tende a render pouco.",
				Severity:          domain.LevelLow,
				ImprovementTitle:  "Investir o caixa excedente",
				ImprovementDetail: "Mantenha apenas a reserva necessária em caixa e aplique o excedente de acordo com seus objetivos.",
				Impact:            domain.LevelMed,
				Action:            "Calcule sua reserva de emergência e aplique o caixa que passar dela.",
			},
			domain.FlagUnclassifiedHoldings: {
				RiskTitle:         "Ativos sem classificação",
				RiskDetail:        "{{.Unclassified}} da carteira está em ativos classificados como \"Outro\". A análise dessas posições é limitada.",
				Severity:          domain.LevelLow,
				ImprovementTitle:  "Classificar os ativos pendentes",
				ImprovementDetail: "Revise os ativos marcados como \"Outro\" e informe o tipo correto para refinar o diagnóstico.",
				Impact:            domain.LevelLow,
				Action:            "Revise os ativos marcados como \"Outro\" e corrija o tipo de cada um.",
			},
			domain.FlagExcludedHoldings: {
				RiskTitle:         "Ativos sem valor informado",
				RiskDetail:        "{{.ExcludedCount}} ativo(s) ficaram fora da análise por falta de valor válido.",
				Severity:          domain.LevelLow,
				ImprovementTitle:  "Completar os valores",
				ImprovementDetail: "Informe o valor (ou quantidade e preço) dos ativos excluídos para uma análise completa.",
				Impact:            domain.LevelLow,
				Action:            "Complete o valor dos ativos que ficaram fora da análise.",
			},
		},
		ActionPlan: [7]string{
			"Dia 1: Revise este diagnóstico e confirme o tipo de cada ativo.",
			"Dia 2: {{.Primary}}",
			"Dia 3: {{.Secondary}}",
			"Dia 4: Levante os custos de cada produto (taxas, IR e come-cotas).",
			"Dia 5: Defina uma faixa-alvo por classe de ativo para o seu perfil.",
			"Dia 6: Use o simulador para comparar os ajustes sugeridos.",
			"Dia 7: Execute o primeiro ajuste e agende a próxima revisão.",
		},
		PrimaryFallback:   "Confirme seu objetivo e prazo para cada parte do patrimônio.",
		SecondaryFallback: "Mantenha os aportes na alocação atual e acompanhe a carteira mensalmente.",
	}
}
