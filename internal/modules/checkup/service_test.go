package checkup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/aristath/checkup/internal/modules/checkup/flow"
	"github.com/aristath/checkup/internal/modules/checkup/simulator"
	testutil "github.com/aristath/checkup/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *testutil.MockCheckupStore, *testutil.MockExtractor) {
	t.Helper()
	store := testutil.NewMockCheckupStore()
	ocr := &testutil.MockExtractor{}
	return NewService(store, ocr, zerolog.Nop()), store, ocr
}

func TestService_FullFlow(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreview, c.Status)
	assert.Equal(t, flow.StateInput, c.Step)
	assert.NotEmpty(t, c.ID)

	c, err = svc.SubmitText(ctx, c.ID, testutil.PortfolioText)
	require.NoError(t, err)
	assert.Equal(t, flow.StateTypes, c.Step)
	require.Len(t, c.Holdings, 5)
	assert.Equal(t, []string{"linha 5: valor inválido"}, c.ParseErrors)
	assert.Equal(t, domain.HoldingTypeAcaoBR, c.Holdings[0].Tipo)
	assert.Equal(t, domain.HoldingTypeETFBR, c.Holdings[4].Tipo)

	c, err = svc.ConfirmTypes(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, flow.StateSuitability, c.Step)
	require.NotNil(t, c.ClassificationConfidence)
	assert.Equal(t, 1.0, *c.ClassificationConfidence)

	c, err = svc.SetProfile(ctx, c.ID, testutil.NewProfileFixture())
	require.NoError(t, err)
	assert.Equal(t, flow.StateAnalyzing, c.Step)
	require.NotNil(t, c.PolicyProfile)
	assert.Equal(t, domain.RiskModerado, c.PolicyProfile.Tolerance)

	c, err = svc.Analyze(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, flow.StatePreview, c.Step)
	require.NotNil(t, c.Analytics)
	require.NotNil(t, c.Score)
	assert.True(t, c.Analytics.HasFlag(domain.FlagHighConcentrationTop5))
	assert.InDelta(t, 100000, c.Analytics.TotalValue, 1e-6)

	_, err = svc.Report(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotPaid)

	require.NoError(t, store.UpdateStatus(ctx, c.ID, domain.StatusPaid))

	report, err := svc.Report(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, *c.Score, report.Score)
	assert.Len(t, report.ActionPlan7Days, 7)

	stored, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, stored.Status)
	assert.Equal(t, flow.StateReport, stored.Step)
	require.NotNil(t, stored.Report)
	assert.Equal(t, report.Headline, stored.Report.Headline)

	again, err := svc.Report(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, report, again)
}

func TestService_CreateWithProfile(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	profile := testutil.NewProfileFixture()

	c, err := svc.Create(ctx, &profile)
	require.NoError(t, err)
	require.NotNil(t, c.PolicyProfile)

	c, err = svc.SubmitText(ctx, c.ID, testutil.PortfolioText)
	require.NoError(t, err)
	c, err = svc.ConfirmTypes(ctx, c.ID)
	require.NoError(t, err)

	// profile already known: analysis can start straight from suitability
	c, err = svc.Analyze(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, flow.StatePreview, c.Step)
}

func TestService_CreateInvalidProfile(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &domain.UserProfile{ObjetivoPrincipal: "ficar rico", PrazoAnos: 1, ToleranciaRisco: domain.RiskModerado})
	assert.ErrorIs(t, err, domain.ErrInvalidProfile)
}

func TestService_GetNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_SubmitTextWithoutHoldings(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, nil)
	require.NoError(t, err)

	_, err = svc.SubmitText(ctx, c.ID, "PETR4\tabc\n\tVALE3")
	require.ErrorIs(t, err, domain.ErrNoHoldings)
	assert.Contains(t, err.Error(), "linha 1: valor inválido")

	stored, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, flow.StateInput, stored.Step)
}

func TestService_SubmitFile(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		content  string
		count    int
		err      error
	}{
		{name: "csv", filename: "carteira.CSV", content: "ativo;valor\nPETR4;1.000,00\nVALE3;2.000,00\n", count: 2},
		{name: "text", filename: "carteira.txt", content: "PETR4\t1000\n", count: 1},
		{name: "unsupported", filename: "carteira.pdf", content: "%PDF", err: domain.ErrUnsupportedFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := svc.Create(ctx, nil)
			require.NoError(t, err)

			c, err = svc.SubmitFile(ctx, c.ID, tt.filename, strings.NewReader(tt.content))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, c.Holdings, tt.count)
		})
	}
}

func TestService_SubmitImages(t *testing.T) {
	svc, _, ocr := newTestService(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, nil)
	require.NoError(t, err)

	ocr.On("Extract", mock.Anything, "print1.png", []byte("a")).Return([]domain.RawHolding{
		{NomeOuCodigo: " PETR4 ", Valor: domain.Float(1000)},
		{NomeOuCodigo: "", Valor: domain.Float(50)},
	}, nil).Once()
	ocr.On("Extract", mock.Anything, "print2.png", []byte("b")).Return(nil, errors.New("unreadable")).Once()
	ocr.On("Extract", mock.Anything, "print3.png", []byte("c")).Return([]domain.RawHolding{
		{NomeOuCodigo: "HGLG11", Quantidade: domain.Float(10), Preco: domain.Float(160)},
		{NomeOuCodigo: "VALE3"},
	}, nil).Once()

	c, err = svc.SubmitImages(ctx, c.ID, []Image{
		{Name: "print1.png", Data: []byte("a")},
		{Name: "print2.png", Data: []byte("b")},
		{Name: "print3.png", Data: []byte("c")},
	})
	require.NoError(t, err)

	require.Len(t, c.Holdings, 2)
	assert.Equal(t, "PETR4", c.Holdings[0].NomeOuCodigo)
	assert.Equal(t, domain.HoldingTypeFII, c.Holdings[1].Tipo)
	assert.Equal(t, []string{
		"imagem 1 (print1.png), item 2: nome vazio",
		"imagem 2 (print2.png): unreadable",
		"imagem 3 (print3.png), item 2: valor inválido",
	}, c.ParseErrors)
	ocr.AssertExpectations(t)
}

func TestService_SubmitImagesAllFail(t *testing.T) {
	svc, _, ocr := newTestService(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, nil)
	require.NoError(t, err)

	ocr.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	_, err = svc.SubmitImages(ctx, c.ID, []Image{{Name: "a.png", Data: []byte("a")}})
	assert.ErrorIs(t, err, domain.ErrNoHoldings)
}

func TestService_SubmitImagesDisabled(t *testing.T) {
	svc := NewService(testutil.NewMockCheckupStore(), nil, zerolog.Nop())

	_, err := svc.SubmitImages(context.Background(), "any", []Image{{Name: "a.png", Data: []byte("a")}})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFile)
}

func TestService_TypeEdits(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, nil)
	require.NoError(t, err)
	c, err = svc.SubmitText(ctx, c.ID, "CDB Banco A\t1000\nCDB Banco B\t1000\nPETR4\t1000\nXYZW\t1000")
	require.NoError(t, err)

	c, matched, err := svc.ApplyTypeToSimilar(ctx, c.ID, "cdb", domain.HoldingTypeRFIPCA)
	require.NoError(t, err)
	assert.Equal(t, 2, matched)
	assert.Equal(t, domain.HoldingTypeRFIPCA, c.Holdings[0].Tipo)
	assert.Equal(t, domain.HoldingTypeRFIPCA, c.Holdings[1].Tipo)

	c, err = svc.OverrideType(ctx, c.ID, 2, domain.HoldingTypeAcaoBR)
	require.NoError(t, err)

	_, err = svc.OverrideType(ctx, c.ID, 9, domain.HoldingTypeAcaoBR)
	assert.ErrorIs(t, err, domain.ErrInvalidHolding)

	_, _, err = svc.ApplyTypeToSimilar(ctx, c.ID, "cdb", domain.HoldingType("Cripto"))
	assert.ErrorIs(t, err, domain.ErrInvalidHolding)

	c, err = svc.ConfirmTypes(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, c.ClassificationConfidence)
	assert.InDelta(t, 0.5, *c.ClassificationConfidence, 1e-9)

	// editing after confirmation sends the checkup back to the types step
	c, err = svc.OverrideType(ctx, c.ID, 3, domain.HoldingTypeOutro)
	require.NoError(t, err)
	assert.Equal(t, flow.StateTypes, c.Step)
	assert.Nil(t, c.ClassificationConfidence)
}

func TestService_AnalyzeRequiresProfile(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	fixture := testutil.NewCheckupFixture("c1", flow.StateSuitability, domain.StatusPreview)
	store.Put(fixture)

	_, err := svc.Analyze(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrInvalidProfile)
}

func TestService_AnalyzeInvalidStep(t *testing.T) {
	svc, store, _ := newTestService(t)
	fixture := testutil.NewCheckupFixture("c1", flow.StateTypes, domain.StatusPreview)
	profile := testutil.NewProfileFixture()
	policy := domain.DefaultPolicy(profile.ToleranciaRisco)
	fixture.Profile, fixture.PolicyProfile = &profile, &policy
	store.Put(fixture)

	_, err := svc.Analyze(context.Background(), "c1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestService_AnalyzeFailureReturnsToSuitability(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	fixture := testutil.NewCheckupFixture("c1", flow.StateAnalyzing, domain.StatusPreview)
	fixture.Holdings[0].Tipo = domain.HoldingType("Cripto")
	store.Put(fixture)

	_, err := svc.Analyze(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrInvalidHolding)

	stored, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, flow.StateSuitability, stored.Step)
	assert.Nil(t, stored.Analytics)
}

func TestService_ReanalyzeConcurrently(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	store.Put(testutil.NewCheckupFixture("c1", flow.StateAnalyzing, domain.StatusPreview))

	first, err := svc.Analyze(ctx, "c1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	scores := make([]int, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := svc.Analyze(ctx, "c1")
			errs[i] = err
			if err == nil {
				scores[i] = *c.Score
			}
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Equal(t, *first.Score, scores[i])
	}
	assert.Zero(t, svc.heldLocks())
}

// heldLocks is the number of checkups with a held or awaited lock
func (s *Service) heldLocks() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

func TestService_LocksReleasedAfterUse(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		c, err := svc.Create(ctx, nil)
		require.NoError(t, err)
		_, err = svc.SubmitText(ctx, c.ID, testutil.PortfolioText)
		require.NoError(t, err)
	}
	_, err := svc.SubmitText(ctx, "missing", testutil.PortfolioText)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Zero(t, svc.heldLocks())
}

func TestService_Simulate(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	store.Put(testutil.NewCheckupFixture("c1", flow.StateAnalyzing, domain.StatusPreview))

	_, err := svc.Simulate(ctx, "c1", nil)
	assert.ErrorIs(t, err, domain.ErrNotAnalyzed)

	_, err = svc.Analyze(ctx, "c1")
	require.NoError(t, err)

	all, err := svc.Simulate(ctx, "c1", nil)
	require.NoError(t, err)
	require.Len(t, all, len(simulator.AllAdjustments))

	one, err := svc.Simulate(ctx, "c1", []string{"ADD_EXTERIOR_10"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, simulator.AddExterior10, one[0].Adjustment)
	assert.GreaterOrEqual(t, one[0].ScoreAfter, one[0].ScoreBefore)

	_, err = svc.Simulate(ctx, "c1", []string{"BUY_BITCOIN"})
	assert.ErrorIs(t, err, domain.ErrUnknownAdjustment)
}

func TestService_ReportRequiresAnalysis(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.Put(testutil.NewCheckupFixture("c1", flow.StateTypes, domain.StatusPaid))

	_, err := svc.Report(context.Background(), "c1")
	assert.ErrorIs(t, err, domain.ErrNotAnalyzed)
}

func TestService_StoreErrorsPropagate(t *testing.T) {
	svc, store, _ := newTestService(t)
	boom := errors.New("disk full")
	store.SetError(boom)

	_, err := svc.Create(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}
