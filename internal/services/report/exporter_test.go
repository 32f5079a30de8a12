package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/models"
	"github.com/ternarybob/finsaathi/internal/services/capture"
	"github.com/ternarybob/finsaathi/internal/services/charts"
)

var fixedNow = time.Date(2025, 3, 14, 16, 30, 0, 0, time.UTC)

type memorySink struct {
	saved []*models.Report
	err   error
}

func (m *memorySink) Save(ctx context.Context, report *models.Report) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, report)
	return nil
}

type panickySurface struct{ interfaces.ChartSurface }

func (panickySurface) Handles() []models.ChartHandle { panic("surface gone") }

func newTestExporter(sink interfaces.ReportSink) *Exporter {
	e := NewExporter(capture.NewNativeCapturer(2), sink, "", arbor.NewLogger(), nil)
	e.now = func() time.Time { return fixedNow }
	return e
}

func aaplViewModel() *models.ViewModel {
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	series := make([]models.PricePoint, 60)
	for i := range series {
		rsi := 40 + float64(i%12)*2
		macd := -1 + float64(i%5)*0.5
		ma := 220 + float64(i)/4
		series[i] = models.PricePoint{
			Date:   start.AddDate(0, 0, i),
			Close:  220 + float64(i%10),
			Volume: 4.5e7 + float64(i%4)*2e6,
			RSI:    &rsi,
			MACD:   &macd,
			MA50:   &ma,
		}
	}
	capUSD := 3.4e12

	return &models.ViewModel{
		Symbol: "AAPL",
		Basic: models.Basic{
			CompanyName: "Apple Inc.",
			Series:      series,
			Metadata:    models.Metadata{Sector: "Technology", MarketCap: &capUSD, Currency: "USD"},
		},
		Detailed: models.Detailed{
			Narrative:   "<think>compare moving averages</think>## Outlook\n\nApple trades **above** its 50-day average.",
			RiskMetrics: map[string]float64{"sharpe_ratio": 1.42, "max_drawdown": -0.12},
			MonteCarlo:  &models.MonteCarlo{ExpectedPrice: 241.3, Lower: 205.1, Upper: 268.9},
		},
		Confidence: models.Confidence{Overall: 0.78, Technical: 0.7, Statistical: 0.8, Market: 0.82, Available: true},
		Backtest: models.Backtest{
			InitialCapital: 100000,
			Metrics:        map[string]float64{"total_return": 0.184, "win_rate": 0.56},
		},
	}
}

func TestExport_EndToEnd(t *testing.T) {
	sink := &memorySink{}
	vm := aaplViewModel()

	report, err := newTestExporter(sink).Export(context.Background(), vm, charts.Build(vm), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "FinSaathi_AAPL_Analysis_2025-03-14.pdf", report.Filename)
	assert.Equal(t, "AAPL", report.Symbol)
	assert.GreaterOrEqual(t, report.Pages, 1)
	assert.Equal(t, 3, report.Charts)
	assert.True(t, strings.HasPrefix(string(report.Content), "%PDF-"))
	assert.Equal(t, len(report.Content), report.Size)
	assert.True(t, strings.HasPrefix(report.ID, "rpt_"))

	require.Len(t, sink.saved, 1)
	assert.Same(t, report, sink.saved[0])
}

func TestExport_EmptyViewModel(t *testing.T) {
	report, err := newTestExporter(nil).Export(context.Background(), &models.ViewModel{}, nil, "MSFT")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Pages)
	assert.Equal(t, 0, report.Charts)
	assert.Equal(t, "FinSaathi_MSFT_Analysis_2025-03-14.pdf", report.Filename)
}

func TestExport_NilViewModelUsesSymbol(t *testing.T) {
	report, err := newTestExporter(nil).Export(context.Background(), nil, nil, "tsla")
	require.NoError(t, err)
	assert.Equal(t, "TSLA", report.Symbol)
}

func TestExport_LongNarrativePaginates(t *testing.T) {
	vm := &models.ViewModel{Symbol: "AAPL"}
	vm.Detailed.Narrative = strings.Repeat("The stock has shown resilient momentum over the quarter.\n\n", 120)

	report, err := newTestExporter(nil).Export(context.Background(), vm, nil, "AAPL")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.Pages, 3)
}

func TestExport_StagePanicOmitsBlock(t *testing.T) {
	report, err := newTestExporter(nil).Export(context.Background(), aaplViewModel(), panickySurface{}, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Charts)
	assert.GreaterOrEqual(t, report.Pages, 1)
}

func TestExport_SaveFailure(t *testing.T) {
	sink := &memorySink{err: errors.New("read-only filesystem")}

	report, err := newTestExporter(sink).Export(context.Background(), aaplViewModel(), nil, "AAPL")
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.Contains(t, err.Error(), "read-only filesystem")
}

func TestConfidenceScore(t *testing.T) {
	assert.Equal(t, "78.0%", ConfidenceScore(models.Confidence{Overall: 0.78, Available: true}))
	assert.Equal(t, "0.0%", ConfidenceScore(models.FallbackConfidence("Error loading confidence data")))
	assert.Equal(t, NotAvailable, ConfidenceScore(models.Confidence{}))
}

func TestExport_MissingSymbol(t *testing.T) {
	_, err := newTestExporter(nil).Export(context.Background(), &models.ViewModel{}, nil, " ")
	assert.ErrorIs(t, err, ErrExportFailed)
}

func TestExport_RejectsPathInSymbol(t *testing.T) {
	root := t.TempDir()
	sink := NewDiskSink(filepath.Join(root, "reports", "out"), arbor.NewLogger())

	report, err := newTestExporter(sink).Export(context.Background(), &models.ViewModel{}, nil, "/../../../escaped")
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.ErrorIs(t, err, common.ErrInvalidSymbol)

	var written []string
	require.NoError(t, filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			written = append(written, path)
		}
		return err
	}))
	assert.Empty(t, written)
}

func TestExport_CancelledContext(t *testing.T) {
	sink := &memorySink{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExporter(sink).Export(ctx, aaplViewModel(), nil, "AAPL")
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.saved)
}

func TestDiskSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	sink := NewDiskSink(dir, arbor.NewLogger())

	report := &models.Report{Filename: "FinSaathi_AAPL_Analysis_2025-03-14.pdf", Content: []byte("%PDF-1.3 test")}
	require.NoError(t, sink.Save(context.Background(), report))

	data, err := os.ReadFile(sink.Path(report.Filename))
	require.NoError(t, err)
	assert.Equal(t, report.Content, data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDiskSink_RejectsFilenameOutsideDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "reports")
	sink := NewDiskSink(dir, arbor.NewLogger())

	for _, name := range []string{"../escaped.pdf", "nested/report.pdf", "..", ""} {
		err := sink.Save(context.Background(), &models.Report{Filename: name, Content: []byte("%PDF")})
		assert.Error(t, err, name)
	}

	_, err := os.Stat(filepath.Join(root, "escaped.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestSinks_StopsAtFirstError(t *testing.T) {
	first := &memorySink{err: errors.New("boom")}
	second := &memorySink{}

	err := Sinks{first, nil, second}.Save(context.Background(), &models.Report{})
	assert.Error(t, err)
	assert.Empty(t, second.saved)

	ok := &memorySink{}
	require.NoError(t, Sinks{ok, second}.Save(context.Background(), &models.Report{}))
	assert.Len(t, ok.saved, 1)
	assert.Len(t, second.saved, 1)
}
