// Package report lays out a ViewModel as a paginated PDF analysis report.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/metrics"
	"github.com/ternarybob/finsaathi/internal/models"
	"github.com/ternarybob/finsaathi/internal/services/capture"
)

// ErrExportFailed is returned when the document cannot be produced or saved.
// Nothing is handed to the sink in that case.
var ErrExportFailed = errors.New("failed to generate PDF")

// DefaultAttribution is the source line printed in every footer
const DefaultAttribution = "Generated by FinSaathi - Your AI Financial Assistant"

const (
	reportTitle    = "FinSaathi Analysis Report"
	continuedTitle = "FinSaathi Analysis Report - Continued"
	summaryTitle   = "Analysis Summary"

	bannerHeight      = 40.0
	chartTitleHeight  = 8.0
	chartSpacing      = 15.0
	narrativeMinSpace = 40.0
)

// Filename is FinSaathi_<SYMBOL>_Analysis_<YYYY-MM-DD>.pdf
func Filename(symbol string, at time.Time) string {
	return fmt.Sprintf("FinSaathi_%s_Analysis_%s.pdf", symbol, at.Format("2006-01-02"))
}

// Exporter renders reports. Each layout stage is isolated: a stage that fails
// or panics is logged and its block left out.
type Exporter struct {
	capturer    interfaces.ChartCapturer
	sink        interfaces.ReportSink
	attribution string
	logger      arbor.ILogger
	metrics     *metrics.Metrics
	now         func() time.Time
}

var _ interfaces.ReportExporter = (*Exporter)(nil)

// NewExporter creates an exporter. sink may be nil when the caller only wants the bytes.
func NewExporter(capturer interfaces.ChartCapturer, sink interfaces.ReportSink, attribution string, logger arbor.ILogger, m *metrics.Metrics) *Exporter {
	if attribution == "" {
		attribution = DefaultAttribution
	}
	return &Exporter{
		capturer:    capturer,
		sink:        sink,
		attribution: attribution,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
	}
}

// Export implements interfaces.ReportExporter
func (e *Exporter) Export(ctx context.Context, vm *models.ViewModel, surface interfaces.ChartSurface, symbol string) (*models.Report, error) {
	start := time.Now()
	report, err := e.export(ctx, vm, surface, symbol)

	pages := 0
	if report != nil {
		pages = report.Pages
	}
	e.metrics.RecordExport(err, pages, time.Since(start))

	if err != nil {
		e.logger.Error().Str("symbol", symbol).Err(err).Msg("Report export failed")
		return nil, err
	}

	e.logger.Info().
		Str("symbol", report.Symbol).
		Str("filename", report.Filename).
		Int("pages", report.Pages).
		Int("charts", report.Charts).
		Int("size", report.Size).
		Dur("duration", time.Since(start)).
		Msg("Report exported")
	return report, nil
}

// layout carries the per-export state shared by the stages
type layout struct {
	doc    *Document
	vm     *models.ViewModel
	symbol string
	now    time.Time
	images []models.ChartImage
}

func (e *Exporter) export(ctx context.Context, vm *models.ViewModel, surface interfaces.ChartSurface, symbol string) (*models.Report, error) {
	if vm == nil {
		vm = &models.ViewModel{}
	}
	if strings.TrimSpace(symbol) == "" {
		symbol = vm.Symbol
	}
	symbol, err := common.ParseSymbol(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrExportFailed)
	}

	l := &layout{
		doc:    NewDocument(),
		vm:     vm,
		symbol: symbol,
		now:    e.now(),
	}
	l.doc.SetMetadata(fmt.Sprintf("%s - %s", reportTitle, symbol), "FinSaathi")

	// Charts are captured up front, concurrently, so layout never waits on rendering.
	e.stage("capture", func() error {
		if surface == nil || e.capturer == nil {
			return nil
		}
		l.images = capture.CaptureAll(ctx, e.capturer, surface, surface.Handles(), e.logger, e.metrics)
		return nil
	})

	e.stage("header", l.header)
	e.stage("key_metrics", l.keyMetrics)
	e.stage("performance", l.performance)
	e.stage("charts", l.charts)
	e.stage("narrative", l.narrative)
	e.stage("footer", func() error {
		l.doc.StampFooters(func(page, total int) string {
			return fmt.Sprintf("Page %d of %d | %s", page, total, e.attribution)
		})
		return nil
	})

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	if err := l.doc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	data, err := l.doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	pages, err := verify(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	report := &models.Report{
		ID:        common.NewReportID(),
		Symbol:    symbol,
		Filename:  Filename(symbol, l.now),
		Pages:     pages,
		Size:      len(data),
		Charts:    len(l.images),
		CreatedAt: l.now,
		Content:   data,
	}

	if e.sink != nil {
		if err := e.sink.Save(ctx, report); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
		}
	}

	return report, nil
}

func (e *Exporter) stage(name string, fn func() error) {
	if err := common.Guard(e.logger, "report."+name, fn); err != nil {
		e.logger.Warn().Str("stage", name).Err(err).Msg("Report stage failed, block omitted")
	}
}

// verify parses the finished PDF and returns its page count
func verify(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return 0, fmt.Errorf("invalid PDF: %w", err)
	}
	return pdfCtx.PageCount, nil
}

// ---- Stages ----

func (l *layout) header() error {
	d := l.doc
	d.Banner(41, 128, 185, bannerHeight)

	d.SetTextGray(255)
	d.SetFont("B", 24)
	d.TextAt(Margin, 25, reportTitle)

	d.SetFont("", 10)
	d.TextAt(Margin, 35, "Generated: "+l.now.Format("January 2, 2006, 03:04 PM"))

	d.SetTextGray(0)
	d.SetY(bannerHeight + 10)
	return nil
}

func (l *layout) keyMetrics() error {
	d := l.doc
	basic := l.vm.Basic
	currencyCode := basic.Metadata.Currency

	name := basic.CompanyName
	if name == "" {
		name = l.symbol
	}
	d.SetFont("B", 18)
	d.Line(name, 10)

	var price, volume *float64
	if latest := basic.Latest(); latest != nil {
		price, volume = &latest.Close, &latest.Volume
	}

	rows := [][2]string{
		{"Current Price", FormatPrice(price, currencyCode)},
		{"Trading Volume", FormatVolume(volume)},
		{"Market Cap", FormatCompactCurrency(basic.Metadata.MarketCap, currencyCode)},
		{"Confidence Score", ConfidenceScore(l.vm.Confidence)},
	}

	d.SetFont("", 11)
	for _, row := range rows {
		d.Line(row[0]+": "+row[1], LineHeight)
	}
	d.Advance(10)
	return nil
}

// ConfidenceScore is the overall score as a percentage. The zero-score
// fallback left by a failed confidence fetch prints 0.0%; only a view model
// that never received confidence data prints N/A.
func ConfidenceScore(c models.Confidence) string {
	if !c.Available && c.Interpretation == "" {
		return NotAvailable
	}
	return FormatPercent(c.Overall)
}

// performance writes backtest, risk and Monte Carlo figures when present
func (l *layout) performance() error {
	var rows [][2]string

	if bt := l.vm.Backtest; len(bt.Metrics) > 0 {
		if bt.InitialCapital > 0 {
			rows = append(rows, [2]string{"Initial Capital", FormatPrice(&bt.InitialCapital, l.vm.Basic.Metadata.Currency)})
		}
		rows = append(rows, sortedRows(bt.Metrics)...)
	}
	rows = append(rows, sortedRows(l.vm.Detailed.RiskMetrics)...)

	if mc := l.vm.Detailed.MonteCarlo; mc != nil {
		cur := l.vm.Basic.Metadata.Currency
		rows = append(rows,
			[2]string{"Expected Price (Monte Carlo)", FormatPrice(&mc.ExpectedPrice, cur)},
			[2]string{"Confidence Interval", FormatPrice(&mc.Lower, cur) + " - " + FormatPrice(&mc.Upper, cur)},
		)
	}

	if len(rows) == 0 {
		return nil
	}

	d := l.doc
	d.EnsureSpace(chartTitleHeight + 6*2)
	d.SetFont("B", 14)
	d.Line("Performance and Risk", chartTitleHeight)
	d.Advance(-4)
	d.Table(rows, ContentWidth*0.6)
	d.Advance(10)
	return nil
}

func sortedRows(values map[string]float64) [][2]string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][2]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, [2]string{MetricLabel(k), FormatMetric(values[k])})
	}
	return rows
}

// maxImageHeight keeps a chart and its title on one page
const maxImageHeight = PageHeight - 2*Margin - chartTitleHeight

func (l *layout) charts() error {
	d := l.doc
	var errs []error

	for _, img := range l.images {
		if img.Width <= 0 || img.Height <= 0 {
			continue
		}
		w := ContentWidth
		h := w * float64(img.Height) / float64(img.Width)
		if h > maxImageHeight {
			w = w * maxImageHeight / h
			h = maxImageHeight
		}

		d.EnsureSpace(chartTitleHeight + h)
		d.SetFont("B", 14)
		d.TextAt(Margin, d.Y()+5, img.Handle.Title)
		d.Advance(chartTitleHeight)

		if err := d.Image(img.Data, w, h); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", img.Handle.ID, err))
			continue
		}
		d.Advance(chartSpacing)
	}

	return errors.Join(errs...)
}

func (l *layout) narrative() error {
	text := PlainText(RemoveThinkContent(l.vm.NarrativeText()))
	if text == "" {
		return nil
	}

	d := l.doc
	d.EnsureSpace(narrativeMinSpace)

	d.SetFont("B", 14)
	d.Line(summaryTitle, 10)

	d.SetFont("", 11)
	lines := d.Wrap(text)

	d.OnNewPage(func(d *Document) {
		d.SetFont("", 8)
		d.SetTextGray(128)
		d.TextAt(Margin, Margin, continuedTitle)
		d.SetTextGray(0)
		d.SetFont("", 11)
		d.Advance(LineHeight)
	})
	defer d.OnNewPage(nil)

	d.Paragraph(lines)
	return nil
}
