// Package charts builds the three report charts (price, volume, indicators)
// from a ViewModel and renders them as SVG, PNG or a standalone HTML page.
package charts

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/models"
)

// Base chart size in pixels at scale 1
const (
	BaseWidth  = 1000
	BaseHeight = 420
)

var (
	colorClose  = drawing.ColorFromHex("2980b9")
	colorMA50   = drawing.ColorFromHex("27ae60")
	colorMA200  = drawing.ColorFromHex("e67e22")
	colorVolume = drawing.ColorFromHex("8e44ad")
	colorRSI    = drawing.ColorFromHex("c0392b")
	colorMACD   = drawing.ColorFromHex("16a085")
)

// builder produces a fresh chart for the given pixel size and DPI
type builder func(width, height int, dpi float64) chart.Chart

// Surface is the set of charts built from one ViewModel
type Surface struct {
	symbol   string
	handles  []models.ChartHandle
	builders map[string]builder
}

var _ interfaces.ChartSurface = (*Surface)(nil)

// Build creates the surface for vm. Regions without at least two plottable
// points are left out.
func Build(vm *models.ViewModel) *Surface {
	s := &Surface{
		symbol:   vm.Symbol,
		builders: make(map[string]builder),
	}

	series := vm.Basic.Series
	candidates := map[string][]chart.Series{
		models.RegionPrice: compact(
			timeSeries("Close", series, func(p models.PricePoint) *float64 { return &p.Close }, colorClose, false, chart.YAxisPrimary),
			timeSeries("50 MA", series, func(p models.PricePoint) *float64 { return p.MA50 }, colorMA50, false, chart.YAxisPrimary),
			timeSeries("200 MA", series, func(p models.PricePoint) *float64 { return p.MA200 }, colorMA200, false, chart.YAxisPrimary),
		),
		models.RegionVolume: compact(
			timeSeries("Volume", series, func(p models.PricePoint) *float64 { return &p.Volume }, colorVolume, true, chart.YAxisPrimary),
		),
		models.RegionIndicators: compact(
			timeSeries("RSI", series, func(p models.PricePoint) *float64 { return p.RSI }, colorRSI, false, chart.YAxisPrimary),
			timeSeries("MACD", series, func(p models.PricePoint) *float64 { return p.MACD }, colorMACD, false, chart.YAxisSecondary),
		),
	}

	for _, handle := range models.DefaultChartHandles() {
		seriesList := candidates[handle.ID]
		if len(seriesList) == 0 {
			continue
		}
		s.handles = append(s.handles, handle)
		s.builders[handle.ID] = newBuilder(handle, seriesList)
	}

	return s
}

// Symbol returns the symbol the surface was built for
func (s *Surface) Symbol() string {
	return s.symbol
}

// Handles lists the regions with content in print order
func (s *Surface) Handles() []models.ChartHandle {
	out := make([]models.ChartHandle, len(s.handles))
	copy(out, s.handles)
	return out
}

// SVG renders one region as an SVG document at base size
func (s *Surface) SVG(regionID string) ([]byte, error) {
	return s.render(regionID, 1, chart.SVG)
}

// RenderPNG rasterizes one region at scale × base size on a white background
func (s *Surface) RenderPNG(regionID string, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return s.render(regionID, scale, chart.PNG)
}

func (s *Surface) render(regionID string, scale float64, provider chart.RendererProvider) ([]byte, error) {
	build, ok := s.builders[regionID]
	if !ok {
		return nil, fmt.Errorf("chart region %q has no content", regionID)
	}

	graph := build(int(BaseWidth*scale), int(BaseHeight*scale), chart.DefaultDPI*scale)

	var buf bytes.Buffer
	if err := graph.Render(provider, &buf); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", regionID, err)
	}
	return buf.Bytes(), nil
}

type pageRegion struct {
	ID    string
	Title string
	SVG   template.HTML
}

var pageTemplate = template.Must(template.New("charts").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Symbol}} charts</title>
<style>
body { margin: 0; padding: 16px; background: #ffffff; font-family: sans-serif; }
.chart { width: {{.Width}}px; margin-bottom: 24px; }
.chart h3 { margin: 0 0 8px 0; font-size: 16px; color: #333333; }
</style>
</head>
<body>
{{range .Regions}}<div class="chart" id="{{.ID}}">
<h3>{{.Title}}</h3>
{{.SVG}}
</div>
{{end}}</body>
</html>
`))

// HTML renders a standalone page with one div per region holding its SVG.
// A region whose chart fails to render is left out of the page.
func (s *Surface) HTML() ([]byte, error) {
	data := struct {
		Symbol  string
		Width   int
		Regions []pageRegion
	}{Symbol: s.symbol, Width: BaseWidth}

	for _, handle := range s.handles {
		svg, err := s.SVG(handle.ID)
		if err != nil {
			continue
		}
		data.Regions = append(data.Regions, pageRegion{ID: handle.ID, Title: handle.Title, SVG: template.HTML(svg)})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render chart page: %w", err)
	}
	return buf.Bytes(), nil
}

func newBuilder(handle models.ChartHandle, seriesList []chart.Series) builder {
	return func(width, height int, dpi float64) chart.Chart {
		graph := chart.Chart{
			Title:  handle.Title,
			Width:  width,
			Height: height,
			DPI:    dpi,
			Background: chart.Style{
				FillColor: drawing.ColorWhite,
				Padding:   chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
			},
			Canvas: chart.Style{FillColor: drawing.ColorWhite},
			XAxis: chart.XAxis{
				ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 06"),
			},
			YAxis: chart.YAxis{
				ValueFormatter: compactFormatter,
			},
			Series: seriesList,
		}
		if usesSecondary(seriesList) {
			graph.YAxisSecondary = chart.YAxis{ValueFormatter: compactFormatter}
		}
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
		return graph
	}
}

// timeSeries extracts one field; nil and non-finite values are skipped.
// Returns nil when fewer than two points remain or all values are equal.
func timeSeries(name string, points []models.PricePoint, field func(models.PricePoint) *float64, color drawing.Color, filled bool, axis chart.YAxisType) chart.Series {
	var xs []time.Time
	var ys []float64
	for _, p := range points {
		v := field(p)
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || p.Date.IsZero() {
			continue
		}
		xs = append(xs, p.Date)
		ys = append(ys, *v)
	}
	if len(xs) < 2 || xs[0].Equal(xs[len(xs)-1]) || flat(ys) {
		return nil
	}

	style := chart.Style{
		StrokeColor: color,
		StrokeWidth: 2,
	}
	if filled {
		style.FillColor = color.WithAlpha(64)
	}

	return chart.TimeSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
		Style:   style,
		YAxis:   axis,
	}
}

func compact(series ...chart.Series) []chart.Series {
	var out []chart.Series
	for _, s := range series {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func flat(ys []float64) bool {
	for _, y := range ys[1:] {
		if y != ys[0] {
			return false
		}
	}
	return true
}

func usesSecondary(seriesList []chart.Series) bool {
	for _, s := range seriesList {
		if ts, ok := s.(chart.TimeSeries); ok && ts.YAxis == chart.YAxisSecondary {
			return true
		}
	}
	return false
}

// compactFormatter renders axis values as 1.2K / 3.4M / 5.6B
func compactFormatter(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	abs := math.Abs(f)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.1fB", f/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", f/1e6)
	case abs >= 1e4:
		return fmt.Sprintf("%.1fK", f/1e3)
	case abs >= 100:
		return fmt.Sprintf("%.0f", f)
	default:
		return fmt.Sprintf("%.2f", f)
	}
}
