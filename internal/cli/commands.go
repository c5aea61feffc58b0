// Package cli implements the checkup command line tool.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/aristath/checkup/internal/database"
	"github.com/aristath/checkup/internal/modules/checkup"
	"github.com/aristath/checkup/internal/modules/checkup/diagnosis"
	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/aristath/checkup/internal/modules/checkup/simulator"
	"github.com/aristath/checkup/internal/version"
	"github.com/aristath/checkup/pkg/logger"
)

// analyzeOptions are the flags of the analyze command
type analyzeOptions struct {
	objetivo   string
	prazo      int
	tolerancia string
	idade      string
	simulate   bool
	jsonOutput bool
	style      string
	width      int
}

// analysisOutput is the --json document
type analysisOutput struct {
	Checkup     *domain.Checkup         `json:"checkup"`
	Report      *domain.DiagnosisReport `json:"report"`
	Simulations []simulator.Result      `json:"simulations,omitempty"`
}

// NewRootCmd creates the root command writing results to out and diagnostics to errOut
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "checkup",
		Short: "Portfolio checkup - diagnose an investment portfolio",
		Long: `checkup reads a portfolio (pasted text, CSV or XLSX), classifies each holding,
scores the portfolio against a suitability profile and prints a diagnosis with
risks, improvements and a 7-day action plan.`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

// newAnalyzeCmd creates the analyze command
func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze a portfolio file",
		Long: `Analyze a portfolio file and print the diagnosis report.
The format is chosen by extension: .csv/.tsv, .xlsx/.xlsm, anything else is read as text.
Example: checkup analyze carteira.csv --tolerancia=moderado --prazo=10 --objetivo=aposentadoria`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			return runAnalyzeCommand(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts, debug)
		},
	}

	cmd.Flags().StringVar(&opts.objetivo, "objetivo", string(domain.ObjectiveCrescimento),
		"Main goal: aposentadoria, reserva_emergencia, crescimento, renda_passiva, preservacao")
	cmd.Flags().IntVar(&opts.prazo, "prazo", 10, "Investment horizon in years")
	cmd.Flags().StringVar(&opts.tolerancia, "tolerancia", string(domain.RiskModerado),
		"Risk tolerance: conservador, moderado, arrojado")
	cmd.Flags().StringVar(&opts.idade, "idade", "", "Age band: ate_30, 31_45, 46_60, acima_60")
	cmd.Flags().BoolVar(&opts.simulate, "simulate", false, "Also run the what-if adjustments")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print JSON instead of the rendered report")
	cmd.Flags().StringVar(&opts.style, "style", "auto", "Report style: auto, dark, light, notty or plain (raw markdown)")
	cmd.Flags().IntVar(&opts.width, "width", 100, "Word wrap width of the rendered report")

	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "checkup %s (%s)\n", version.Version, version.Commit)
		},
	}
}

// runAnalyzeCommand runs the whole checkup flow against a throwaway in-memory database
func runAnalyzeCommand(ctx context.Context, out, errOut io.Writer, path string, opts *analyzeOptions, debug bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	level := "warn"
	if debug {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Pretty: true, Output: errOut})

	profile := domain.UserProfile{
		ObjetivoPrincipal: domain.Objective(opts.objetivo),
		PrazoAnos:         opts.prazo,
		ToleranciaRisco:   domain.RiskTolerance(opts.tolerancia),
		IdadeFaixa:        domain.AgeBand(opts.idade),
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	db, err := database.New(database.Config{
		Path:    "file::memory:",
		Profile: database.ProfileMemory,
		Name:    "checkups",
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	repo := checkup.NewRepository(db.Conn(), log)
	svc := checkup.NewService(repo, nil, log)

	c, err := svc.Create(ctx, &profile)
	if err != nil {
		return err
	}

	// Text files go through the pasted-text parser
	name := path
	if !hasSpreadsheetExt(path) {
		name = path + ".txt"
	}
	c, err = svc.SubmitFile(ctx, c.ID, name, file)
	if err != nil {
		return err
	}
	for _, line := range c.ParseErrors {
		fmt.Fprintf(errOut, "aviso: %s\n", line)
	}

	if _, err := svc.ConfirmTypes(ctx, c.ID); err != nil {
		return err
	}
	if _, err := svc.Analyze(ctx, c.ID); err != nil {
		return err
	}

	// Local runs are not gated by payment
	if err := repo.UpdateStatus(ctx, c.ID, domain.StatusPaid); err != nil {
		return err
	}
	report, err := svc.Report(ctx, c.ID)
	if err != nil {
		return err
	}

	var simulations []simulator.Result
	if opts.simulate {
		if simulations, err = svc.Simulate(ctx, c.ID, nil); err != nil {
			return err
		}
	}

	if opts.jsonOutput {
		final, err := svc.Get(ctx, c.ID)
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(analysisOutput{Checkup: final, Report: report, Simulations: simulations})
	}

	md := diagnosis.Markdown(*report) + simulationsMarkdown(simulations)
	rendered, err := render(md, opts.style, opts.width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, rendered)
	return err
}

func hasSpreadsheetExt(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".csv", ".tsv", ".xlsx", ".xlsm"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func simulationsMarkdown(results []simulator.Result) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n## Simulações\n\n")
	for _, r := range results {
		fmt.Fprintf(&b, "- **%s**: %s\n", r.Adjustment, r.Note)
	}
	return b.String()
}

// render turns markdown into terminal output; "plain" returns it unchanged
func render(md, style string, width int) (string, error) {
	if style == "plain" {
		return md, nil
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return renderer.Render(md)
}
