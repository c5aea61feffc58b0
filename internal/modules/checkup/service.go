// Package checkup orchestrates the checkup flow: it attaches parsed holdings,
// records type confirmations and the suitability profile, runs the analytics
// engine and produces the paid diagnosis report.
package checkup

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aristath/checkup/internal/modules/checkup/analytics"
	"github.com/aristath/checkup/internal/modules/checkup/classifier"
	"github.com/aristath/checkup/internal/modules/checkup/diagnosis"
	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/aristath/checkup/internal/modules/checkup/flow"
	"github.com/aristath/checkup/internal/modules/checkup/parser"
	"github.com/aristath/checkup/internal/modules/checkup/scoring"
	"github.com/aristath/checkup/internal/modules/checkup/simulator"
	"github.com/aristath/checkup/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the persistence the service needs
type Store interface {
	Create(ctx context.Context, c *domain.Checkup) error
	GetByID(ctx context.Context, id string) (*domain.Checkup, error)
	Update(ctx context.Context, c *domain.Checkup) error
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
}

// Extractor reads holdings out of a portfolio screenshot
type Extractor interface {
	Extract(ctx context.Context, filename string, image []byte) ([]domain.RawHolding, error)
}

// Image is one uploaded screenshot
type Image struct {
	Name string
	Data []byte
}

// Service drives a checkup through its steps.
// Mutations of one checkup are serialized; different checkups proceed in parallel.
type Service struct {
	store    Store
	ocr      Extractor
	composer *diagnosis.Composer
	log      zerolog.Logger

	locksMu sync.Mutex
	locks   map[string]*checkupLock // held or awaited locks only
	now     func() time.Time
}

// checkupLock is released from Service.locks once nobody holds or waits for it
type checkupLock struct {
	mu   sync.Mutex
	refs int
}

// NewService creates a checkup service. ocr may be nil when image upload is disabled.
func NewService(store Store, ocr Extractor, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		ocr:      ocr,
		composer: &diagnosis.Composer{Templates: diagnosis.DefaultTemplates()},
		log:      log.With().Str("service", "checkup").Logger(),
		locks:    make(map[string]*checkupLock),
		now:      time.Now,
	}
}

// Create starts a new checkup in the input step.
// The profile is optional here; it can be set later with SetProfile.
func (s *Service) Create(ctx context.Context, profile *domain.UserProfile) (*domain.Checkup, error) {
	now := s.now().UTC()
	c := &domain.Checkup{
		ID:        uuid.NewString(),
		Status:    domain.StatusPreview,
		Step:      flow.StateInput,
		Holdings:  []domain.TypedHolding{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if profile != nil {
		if err := profile.Validate(); err != nil {
			return nil, err
		}
		p := *profile
		policy := domain.DefaultPolicy(p.ToleranciaRisco)
		c.Profile, c.PolicyProfile = &p, &policy
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create checkup: %w", err)
	}

	s.log.Info().Str("checkup_id", c.ID).Bool("with_profile", profile != nil).Msg("Checkup created")
	return c, nil
}

// Get loads a checkup
func (s *Service) Get(ctx context.Context, id string) (*domain.Checkup, error) {
	return s.store.GetByID(ctx, id)
}

// SubmitText parses pasted text and replaces the checkup's holdings
func (s *Service) SubmitText(ctx context.Context, id, raw string) (*domain.Checkup, error) {
	return s.attach(ctx, id, "text", parser.ParseText(raw))
}

// SubmitFile parses an uploaded spreadsheet, dispatching on the file extension
func (s *Service) SubmitFile(ctx context.Context, id, filename string, r io.Reader) (*domain.Checkup, error) {
	var (
		result parser.Result
		err    error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv":
		result, err = parser.ParseCSV(r)
	case ".txt":
		var data []byte
		if data, err = io.ReadAll(r); err == nil {
			result = parser.ParseText(string(data))
		}
	case ".xlsx", ".xlsm":
		result, err = parser.ParseExcel(r)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	return s.attach(ctx, id, "file", result)
}

// SubmitImages runs every screenshot through the OCR service, one at a time.
// A failing image is reported in the parse errors and does not stop the batch.
func (s *Service) SubmitImages(ctx context.Context, id string, images []Image) (*domain.Checkup, error) {
	if s.ocr == nil {
		return nil, fmt.Errorf("%w: image upload is disabled", domain.ErrUnsupportedFile)
	}

	result := parser.Result{Holdings: []domain.RawHolding{}, Errors: []string{}}
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		holdings, err := s.ocr.Extract(ctx, img.Name, img.Data)
		if err != nil {
			s.log.Warn().Err(err).Str("checkup_id", id).Str("image", img.Name).Msg("OCR extraction failed")
			result.Errors = append(result.Errors, fmt.Sprintf("imagem %d (%s): %v", i+1, img.Name, err))
			continue
		}

		for j, h := range holdings {
			if strings.TrimSpace(h.NomeOuCodigo) == "" {
				result.Errors = append(result.Errors, fmt.Sprintf("imagem %d (%s), item %d: nome vazio", i+1, img.Name, j+1))
				continue
			}
			if _, ok := h.ResolveValue(); !ok {
				result.Errors = append(result.Errors, fmt.Sprintf("imagem %d (%s), item %d: valor inválido", i+1, img.Name, j+1))
				continue
			}
			h.NomeOuCodigo = strings.TrimSpace(h.NomeOuCodigo)
			result.Holdings = append(result.Holdings, h)
		}
	}

	return s.attach(ctx, id, "images", result)
}

// attach classifies a parse result and stores it as the checkup's holdings
func (s *Service) attach(ctx context.Context, id, source string, result parser.Result) (*domain.Checkup, error) {
	if len(result.Holdings) == 0 {
		reason := "nenhum ativo reconhecido"
		if len(result.Errors) > 0 {
			reason = strings.Join(result.Errors[:min(3, len(result.Errors))], "; ")
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrNoHoldings, reason)
	}

	return s.mutate(ctx, id, func(c *domain.Checkup) error {
		if err := s.fire(c, flow.HoldingsSubmitted{Count: len(result.Holdings), Errors: len(result.Errors)}); err != nil {
			return err
		}

		c.Holdings = classifier.Classify(result.Holdings)
		c.ParseErrors = result.Errors
		s.resetAnalysis(c)

		s.log.Info().
			Str("checkup_id", c.ID).
			Str("source", source).
			Int("holdings", len(c.Holdings)).
			Int("errors", len(c.ParseErrors)).
			Msg("Holdings submitted")
		return nil
	})
}

// OverrideType sets the type of the holding at index
func (s *Service) OverrideType(ctx context.Context, id string, index int, tipo domain.HoldingType) (*domain.Checkup, error) {
	return s.mutate(ctx, id, func(c *domain.Checkup) error {
		holdings, err := classifier.OverrideType(c.Holdings, index, tipo)
		if err != nil {
			return err
		}
		if err := s.fire(c, flow.HoldingsEdited{Count: 1}); err != nil {
			return err
		}
		c.Holdings = holdings
		s.resetAnalysis(c)
		return nil
	})
}

// ApplyTypeToSimilar sets tipo on every holding whose name contains pattern.
// It returns the updated checkup and how many holdings matched.
func (s *Service) ApplyTypeToSimilar(ctx context.Context, id, pattern string, tipo domain.HoldingType) (*domain.Checkup, int, error) {
	if !tipo.IsValid() {
		return nil, 0, domain.NewHoldingError("tipo", "tipo desconhecido: "+string(tipo))
	}

	matched := 0
	c, err := s.mutate(ctx, id, func(c *domain.Checkup) error {
		matched = classifier.CountSimilar(c.Holdings, pattern)
		if err := s.fire(c, flow.HoldingsEdited{Count: matched}); err != nil {
			return err
		}
		c.Holdings = classifier.ApplyTypeToSimilar(c.Holdings, pattern, tipo)
		s.resetAnalysis(c)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return c, matched, nil
}

// ConfirmTypes accepts the current classification and records its confidence
func (s *Service) ConfirmTypes(ctx context.Context, id string) (*domain.Checkup, error) {
	return s.mutate(ctx, id, func(c *domain.Checkup) error {
		if len(c.Holdings) == 0 {
			return fmt.Errorf("confirm types: %w", domain.ErrNoHoldings)
		}

		confidence := classifier.Confidence(c.Holdings)
		if err := s.fire(c, flow.TypesConfirmed{Confidence: confidence}); err != nil {
			return err
		}
		c.ClassificationConfidence = domain.Float(confidence)
		return nil
	})
}

// SetProfile validates and stores the suitability profile with its default policy
func (s *Service) SetProfile(ctx context.Context, id string, profile domain.UserProfile) (*domain.Checkup, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(c *domain.Checkup) error {
		if err := s.fire(c, flow.ProfileSubmitted{Tolerance: string(profile.ToleranciaRisco)}); err != nil {
			return err
		}
		policy := domain.DefaultPolicy(profile.ToleranciaRisco)
		c.Profile, c.PolicyProfile = &profile, &policy
		return nil
	})
}

// Analyze runs the analytics engine and scorer on the confirmed holdings.
// A checkup waiting on suitability with a profile already set, or one in preview,
// is moved into analysis first. A failed analysis returns to suitability.
func (s *Service) Analyze(ctx context.Context, id string) (*domain.Checkup, error) {
	var analysisErr error

	c, err := s.mutate(ctx, id, func(c *domain.Checkup) error {
		if c.Profile == nil || c.PolicyProfile == nil {
			return fmt.Errorf("analyze: %w: perfil não informado", domain.ErrInvalidProfile)
		}
		if c.Step == flow.StateSuitability || c.Step == flow.StatePreview {
			if err := s.fire(c, flow.ProfileSubmitted{Tolerance: string(c.Profile.ToleranciaRisco)}); err != nil {
				return err
			}
		}
		if !flow.Can(c.Step, flow.EventAnalysisCompleted) {
			return fmt.Errorf("%w: analyze in %s", domain.ErrInvalidTransition, c.Step)
		}

		start := time.Now()
		a, err := analytics.ComputeAnalytics(c.Holdings, *c.Profile, *c.PolicyProfile)
		if err != nil {
			analysisErr = err
			c.Analytics, c.Score = nil, nil
			s.log.Warn().Err(err).Str("checkup_id", c.ID).Msg("Analysis failed")
			return s.fire(c, flow.AnalysisFailed{Reason: err.Error()})
		}

		score := scoring.ComputeWeightedScore(a, c.PolicyProfile.ScoreWeights)
		if err := s.fire(c, flow.AnalysisCompleted{Score: score}); err != nil {
			return err
		}
		c.Analytics, c.Score = &a, &score

		s.log.Info().
			Str("checkup_id", c.ID).
			Int("score", score).
			Strs("flags", flagStrings(a.Flags)).
			Dur("elapsed", time.Since(start)).
			Msg("Analysis completed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	if analysisErr != nil {
		return c, fmt.Errorf("analyze: %w", analysisErr)
	}
	return c, nil
}

// Simulate runs the named what-if adjustments (all of them when none are named)
// against the stored analytics. Nothing is persisted.
func (s *Service) Simulate(ctx context.Context, id string, adjustments []string) ([]simulator.Result, error) {
	defer utils.OperationTimer("simulate", s.log)()

	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Analytics == nil || c.PolicyProfile == nil {
		return nil, fmt.Errorf("simulate: %w", domain.ErrNotAnalyzed)
	}

	if len(adjustments) == 0 {
		return simulator.SimulateAll(*c.Analytics, *c.PolicyProfile)
	}

	results := make([]simulator.Result, 0, len(adjustments))
	for _, name := range adjustments {
		adj, err := simulator.ParseAdjustmentType(name)
		if err != nil {
			return nil, err
		}
		r, err := simulator.SimulateAdjustment(*c.Analytics, *c.PolicyProfile, adj)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Report composes and stores the diagnosis report, then marks the checkup done.
// It requires the payment gate to have marked the checkup paid.
func (s *Service) Report(ctx context.Context, id string) (*domain.DiagnosisReport, error) {
	c, err := s.mutate(ctx, id, func(c *domain.Checkup) error {
		if c.Status != domain.StatusPaid && c.Status != domain.StatusDone {
			return fmt.Errorf("report: %w", domain.ErrNotPaid)
		}
		if c.Analytics == nil || c.Score == nil || c.PolicyProfile == nil {
			return fmt.Errorf("report: %w", domain.ErrNotAnalyzed)
		}

		report, err := s.composer.Compose(*c.Analytics, *c.Score, *c.PolicyProfile)
		if err != nil {
			return fmt.Errorf("failed to compose report: %w", err)
		}
		if err := s.fire(c, flow.ReportUnlocked{}); err != nil {
			return err
		}
		c.Report = &report
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.Status != domain.StatusDone {
		if err := s.store.UpdateStatus(ctx, id, domain.StatusDone); err != nil {
			return nil, err
		}
		s.log.Info().Str("checkup_id", id).Int("score", c.Report.Score).Msg("Report generated")
	}
	return c.Report, nil
}

// mutate loads a checkup, applies fn and persists the result, holding the
// checkup's lock throughout. Nothing is written when fn fails, unless fn has
// already moved the step (a failed analysis is recorded).
func (s *Service) mutate(ctx context.Context, id string, fn func(c *domain.Checkup) error) (*domain.Checkup, error) {
	unlock := s.lock(id)
	defer unlock()

	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	c.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save checkup %s: %w", id, err)
	}
	return c, nil
}

func (s *Service) lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &checkupLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

// fire advances the checkup's step, logging the transition
func (s *Service) fire(c *domain.Checkup, p flow.Payload) error {
	t, err := flow.Fire(c.Step, p)
	if err != nil {
		return err
	}
	c.Step = t.To

	if t.From != t.To {
		s.log.Debug().
			Str("checkup_id", c.ID).
			Str("from", string(t.From)).
			Str("to", string(t.To)).
			Str("event", string(p.Event())).
			Msg("Step transition")
	}
	return nil
}

// resetAnalysis drops results computed from an earlier set of holdings
func (s *Service) resetAnalysis(c *domain.Checkup) {
	c.Analytics = nil
	c.Score = nil
	c.ClassificationConfidence = nil
}

func flagStrings(flags []domain.FlagCode) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}
