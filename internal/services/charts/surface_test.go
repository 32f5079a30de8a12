package charts

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/finsaathi/internal/models"
)

func f(v float64) *float64 { return &v }

// sampleViewModel returns a ViewModel with n days of plottable data
func sampleViewModel(n int) *models.ViewModel {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make([]models.PricePoint, n)
	for i := range series {
		px := 100 + float64(i%7)*1.5 + float64(i)/10
		series[i] = models.PricePoint{
			Date:   start.AddDate(0, 0, i),
			Close:  px,
			Volume: 1e6 + float64(i%5)*1e5,
			RSI:    f(40 + float64(i%10)*2),
			MACD:   f(-1 + float64(i%6)*0.4),
			MA50:   f(px - 1),
		}
	}
	return &models.ViewModel{Symbol: "AAPL", Basic: models.Basic{CompanyName: "Apple Inc.", Series: series}}
}

func TestBuild_AllRegions(t *testing.T) {
	surface := Build(sampleViewModel(30))

	assert.Equal(t, models.DefaultChartHandles(), surface.Handles())
	assert.Equal(t, "AAPL", surface.Symbol())
}

func TestBuild_EmptyViewModelHasNoRegions(t *testing.T) {
	surface := Build(&models.ViewModel{Symbol: "AAPL"})
	assert.Empty(t, surface.Handles())

	_, err := surface.RenderPNG(models.RegionPrice, 2)
	assert.Error(t, err)
}

func TestBuild_SkipsRegionsWithoutIndicators(t *testing.T) {
	vm := sampleViewModel(10)
	for i := range vm.Basic.Series {
		vm.Basic.Series[i].RSI = nil
		vm.Basic.Series[i].MACD = nil
	}

	handles := Build(vm).Handles()
	require.Len(t, handles, 2)
	assert.Equal(t, models.RegionPrice, handles[0].ID)
	assert.Equal(t, models.RegionVolume, handles[1].ID)
}

func TestRenderPNG_Scale(t *testing.T) {
	surface := Build(sampleViewModel(30))

	data, err := surface.RenderPNG(models.RegionPrice, 2)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, BaseWidth*2, cfg.Width)
	assert.Equal(t, BaseHeight*2, cfg.Height)
}

func TestHTML_ContainsRegionDivs(t *testing.T) {
	surface := Build(sampleViewModel(30))

	page, err := surface.HTML()
	require.NoError(t, err)

	html := string(page)
	for _, handle := range models.DefaultChartHandles() {
		assert.Contains(t, html, `id="`+handle.ID+`"`)
		assert.Contains(t, html, handle.Title)
	}
	assert.Equal(t, 3, strings.Count(html, "<svg"))
}

func TestCompactFormatter(t *testing.T) {
	assert.Equal(t, "2.5B", compactFormatter(2.5e9))
	assert.Equal(t, "1.2M", compactFormatter(1.2e6))
	assert.Equal(t, "45.0K", compactFormatter(45000.0))
	assert.Equal(t, "150", compactFormatter(150.0))
	assert.Equal(t, "0.42", compactFormatter(0.42))
}
