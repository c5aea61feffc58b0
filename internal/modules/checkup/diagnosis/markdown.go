package diagnosis

import (
	"fmt"
	"strings"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
)

var levelLabels = map[domain.Level]string{
	domain.LevelHigh: "alta",
	domain.LevelMed:  "média",
	domain.LevelLow:  "baixa",
}

// Markdown renders report as a markdown document
func Markdown(report domain.DiagnosisReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", report.Headline)
	fmt.Fprintf(&b, "**Nota: %d/100 (%s)**\n\n", report.Score, report.Bucket)
	fmt.Fprintf(&b, "%s\n", report.Summary)

	if len(report.Risks) > 0 {
		b.WriteString("\n## Riscos\n\n")
		for _, r := range report.Risks {
			fmt.Fprintf(&b, "- **%s** (severidade %s): %s\n", r.Title, levelLabels[r.Severity], r.Detail)
		}
	}

	if len(report.Improvements) > 0 {
		b.WriteString("\n## Melhorias\n\n")
		for _, imp := range report.Improvements {
			fmt.Fprintf(&b, "- **%s** (impacto %s): %s\n", imp.Title, levelLabels[imp.Impact], imp.Detail)
		}
	}

	if len(report.ActionPlan7Days) > 0 {
		b.WriteString("\n## Plano de 7 dias\n\n")
		for i, step := range report.ActionPlan7Days {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}

	if len(report.TransparencyNotes) > 0 {
		b.WriteString("\n## Notas de transparência\n\n")
		for _, note := range report.TransparencyNotes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
	}

	return b.String()
}
