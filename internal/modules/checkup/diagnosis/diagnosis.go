// Package diagnosis turns analytics and a score into the narrative report.
// Composition is a pure function of its inputs.
package diagnosis

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/aristath/checkup/internal/modules/checkup/scoring"
	"github.com/aristath/checkup/pkg/formatting"
)

// view is the data every template is rendered with
type view struct {
	Score int

	Top5         string
	Exterior     string
	Liquidity    string
	Complexity   string
	Cash         string
	Unclassified string
	RiskAsset    string
	Prazo        int

	ExcludedCount int

	MaxTop5       string
	MaxExterior   string
	MaxComplexity string
	MaxCash       string
	MinLiquidity  string
	ExteriorBand  string
	RiskBand      string

	Primary   string
	Secondary string
}

// Composer renders reports from a set of templates
type Composer struct {
	Templates Templates
}

var defaultComposer = &Composer{Templates: DefaultTemplates()}

// ComposeDiagnosis renders the report for a with the built-in templates.
// Thresholds come from the default policy of the profile's tolerance.
func ComposeDiagnosis(a domain.Analytics, score int) domain.DiagnosisReport {
	report, err := defaultComposer.Compose(a, score, domain.DefaultPolicy(a.Profile.ToleranciaRisco))
	if err != nil {
		panic(fmt.Sprintf("diagnosis: built-in templates: %v", err))
	}
	return report
}

// Compose renders the report for a, quoting thresholds from policy
func (c *Composer) Compose(a domain.Analytics, score int, policy domain.PolicyProfile) (domain.DiagnosisReport, error) {
	bucket := scoring.BucketFor(score)
	v := newView(a, score, policy)

	bt, ok := c.Templates.Buckets[bucket.Label]
	if !ok {
		return domain.DiagnosisReport{}, fmt.Errorf("no bucket text for %q", bucket.Label)
	}

	headline, err := render("headline", bt.Headline, v)
	if err != nil {
		return domain.DiagnosisReport{}, err
	}
	summary, err := render("summary", bt.Summary, v)
	if err != nil {
		return domain.DiagnosisReport{}, err
	}

	risks, improvements, err := c.composeFlags(a.Flags, v)
	if err != nil {
		return domain.DiagnosisReport{}, err
	}

	plan, err := c.actionPlan(a.Flags, v)
	if err != nil {
		return domain.DiagnosisReport{}, err
	}

	return domain.DiagnosisReport{
		Headline:          headline,
		Summary:           summary,
		Score:             score,
		Bucket:            bucket.Label,
		Risks:             risks,
		Improvements:      improvements,
		ActionPlan7Days:   plan,
		TransparencyNotes: transparencyNotes(a, policy.ScoreWeights),
	}, nil
}

func (c *Composer) composeFlags(flags []domain.FlagCode, v view) ([]domain.Risk, []domain.Improvement, error) {
	risks := make([]domain.Risk, 0, len(flags))
	improvements := make([]domain.Improvement, 0, len(flags))

	for _, flag := range flags {
		ft, ok := c.Templates.Flags[flag]
		if !ok {
			return nil, nil, fmt.Errorf("no text for flag %s", flag)
		}

		detail, err := render(string(flag)+".risk", ft.RiskDetail, v)
		if err != nil {
			return nil, nil, err
		}
		risks = append(risks, domain.Risk{Flag: flag, Title: ft.RiskTitle, Detail: detail, Severity: ft.Severity})

		detail, err = render(string(flag)+".improvement", ft.ImprovementDetail, v)
		if err != nil {
			return nil, nil, err
		}
		improvements = append(improvements, domain.Improvement{Flag: flag, Title: ft.ImprovementTitle, Detail: detail, Impact: ft.Impact})
	}

	sort.SliceStable(risks, func(i, j int) bool {
		if risks[i].Severity.Rank() != risks[j].Severity.Rank() {
			return risks[i].Severity.Rank() < risks[j].Severity.Rank()
		}
		return risks[i].Flag.Rank() < risks[j].Flag.Rank()
	})
	sort.SliceStable(improvements, func(i, j int) bool {
		if improvements[i].Impact.Rank() != improvements[j].Impact.Rank() {
			return improvements[i].Impact.Rank() < improvements[j].Impact.Rank()
		}
		return improvements[i].Flag.Rank() < improvements[j].Flag.Rank()
	})

	return risks, improvements, nil
}

// actionPlan fills the two flag-driven days with the actions of the most severe flags
func (c *Composer) actionPlan(flags []domain.FlagCode, v view) ([]string, error) {
	ordered := append([]domain.FlagCode(nil), flags...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Rank() < ordered[j].Rank() })

	actions := []string{c.Templates.PrimaryFallback, c.Templates.SecondaryFallback}
	for i := 0; i < len(ordered) && i < len(actions); i++ {
		action, err := render(string(ordered[i])+".action", c.Templates.Flags[ordered[i]].Action, v)
		if err != nil {
			return nil, err
		}
		if action != "" {
			actions[i] = action
		}
	}
	v.Primary, v.Secondary = actions[0], actions[1]

	plan := make([]string, 0, len(c.Templates.ActionPlan))
	for day, src := range c.Templates.ActionPlan {
		line, err := render(fmt.Sprintf("day%d", day+1), src, v)
		if err != nil {
			return nil, err
		}
		plan = append(plan, line)
	}
	return plan, nil
}

func transparencyNotes(a domain.Analytics, weights domain.ScoreWeights) []string {
	var notes []string

	if a.Empty {
		notes = append(notes, "Nenhum ativo com valor válido foi informado; a nota e as métricas não puderam ser calculadas.")
	} else {
		notes = append(notes, fmt.Sprintf("Valor total analisado: %s em %d ativo(s).", formatting.BRL(a.TotalValue), len(a.Positions)))
	}

	if n := len(a.Excluded); n > 0 {
		notes = append(notes, fmt.Sprintf("%d ativo(s) ficaram fora da análise por não terem valor válido: %s.", n, strings.Join(a.Excluded, ", ")))
	}

	notes = append(notes,
		"Os valores são os informados por você, como uma fotografia da carteira; nenhuma cotação de mercado foi consultada.",
		weightsNote(weights),
		"Este diagnóstico é educativo e não constitui recomendação individual de investimento.",
	)
	return notes
}

func weightsNote(w domain.ScoreWeights) string {
	parts := []struct {
		label  string
		weight float64
	}{
		{"diversificação global", w.GlobalDiversification},
		{"concentração", w.Concentration},
		{"liquidez", w.Liquidity},
		{"complexidade", w.Complexity},
		{"eficiência de custos", w.CostEfficiency},
	}

	total := 0.0
	equal := true
	for _, p := range parts {
		total += max(p.weight, 0)
		if max(p.weight, 0) != max(parts[0].weight, 0) {
			equal = false
		}
	}
	if total <= 0 || equal {
		return "A nota é a média das cinco dimensões, com pesos iguais (20% cada)."
	}

	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		labels = append(labels, fmt.Sprintf("%s %s", p.label, formatting.Percent(max(p.weight, 0)/total*100)))
	}
	return "A nota é a média ponderada das cinco dimensões: " + strings.Join(labels, ", ") + "."
}

func newView(a domain.Analytics, score int, policy domain.PolicyProfile) view {
	return view{
		Score:         score,
		Top5:          formatting.Percent(a.ConcentrationTop5),
		Exterior:      formatting.Percent(a.BRvsExterior.Exterior),
		Liquidity:     formatting.Decimal(a.LiquidityScore, 0),
		Complexity:    formatting.Percent(a.ComplexityPct),
		Cash:          formatting.Percent(a.ClassPct(domain.HoldingTypeCaixa)),
		Unclassified:  formatting.Percent(a.ClassPct(domain.HoldingTypeOutro)),
		RiskAsset:     formatting.Percent(a.RiskAssetPct),
		Prazo:         a.Profile.PrazoAnos,
		ExcludedCount: len(a.Excluded),
		MaxTop5:       formatting.Percent(policy.MaxTop5Pct),
		MaxExterior:   formatting.Percent(policy.MaxExteriorPct),
		MaxComplexity: formatting.Percent(policy.MaxComplexityPct),
		MaxCash:       formatting.Percent(policy.MaxCashPct),
		MinLiquidity:  formatting.Decimal(policy.MinLiquidity, 0),
		ExteriorBand:  bandText(policy.ExteriorBand),
		RiskBand:      bandText(policy.RiskAssetBand),
	}
}

func bandText(b domain.Band) string {
	return fmt.Sprintf("%s a %s", formatting.Percent(b.Low), formatting.Percent(b.High))
}

func render(name, src string, v view) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
