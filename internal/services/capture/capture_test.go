package capture

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/models"
	"github.com/ternarybob/finsaathi/internal/services/charts"
)

type fakeCapturer struct {
	calls   atomic.Int32
	capture func(handle models.ChartHandle) (*models.ChartImage, error)
}

func (f *fakeCapturer) CaptureRegion(ctx context.Context, surface interfaces.ChartSurface, handle models.ChartHandle) (*models.ChartImage, error) {
	f.calls.Add(1)
	return f.capture(handle)
}

func imageFor(h models.ChartHandle) *models.ChartImage {
	return &models.ChartImage{Handle: h, Data: []byte{1}, Width: 10, Height: 5}
}

func sampleViewModel(n int) *models.ViewModel {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	series := make([]models.PricePoint, n)
	for i := range series {
		rsi := 45 + float64(i%8)
		macd := -0.5 + float64(i%4)*0.3
		series[i] = models.PricePoint{
			Date:   start.AddDate(0, 0, i),
			Close:  180 + float64(i%9),
			Volume: 5e7 + float64(i%3)*1e6,
			RSI:    &rsi,
			MACD:   &macd,
		}
	}
	return &models.ViewModel{Symbol: "AAPL", Basic: models.Basic{Series: series}}
}

func TestCaptureAll_PreservesOrder(t *testing.T) {
	handles := models.DefaultChartHandles()
	capturer := &fakeCapturer{capture: func(h models.ChartHandle) (*models.ChartImage, error) {
		// price finishes last
		if h.ID == models.RegionPrice {
			time.Sleep(20 * time.Millisecond)
		}
		return imageFor(h), nil
	}}

	images := CaptureAll(context.Background(), capturer, nil, handles, arbor.NewLogger(), nil)

	require.Len(t, images, 3)
	for i, img := range images {
		assert.Equal(t, handles[i].ID, img.Handle.ID)
	}
	assert.Equal(t, int32(3), capturer.calls.Load())
}

func TestCaptureAll_DropsFailedRegions(t *testing.T) {
	capturer := &fakeCapturer{capture: func(h models.ChartHandle) (*models.ChartImage, error) {
		switch h.ID {
		case models.RegionVolume:
			return nil, errors.New("no svg")
		case models.RegionIndicators:
			return nil, nil
		}
		return imageFor(h), nil
	}}

	images := CaptureAll(context.Background(), capturer, nil, models.DefaultChartHandles(), arbor.NewLogger(), nil)

	require.Len(t, images, 1)
	assert.Equal(t, models.RegionPrice, images[0].Handle.ID)
}

func TestCaptureAll_PanicIsContained(t *testing.T) {
	capturer := &fakeCapturer{capture: func(h models.ChartHandle) (*models.ChartImage, error) {
		if h.ID == models.RegionPrice {
			panic("renderer blew up")
		}
		return imageFor(h), nil
	}}

	images := CaptureAll(context.Background(), capturer, nil, models.DefaultChartHandles(), arbor.NewLogger(), nil)

	require.Len(t, images, 2)
	assert.Equal(t, models.RegionVolume, images[0].Handle.ID)
	assert.Equal(t, models.RegionIndicators, images[1].Handle.ID)
}

func TestChain_FallsThrough(t *testing.T) {
	failing := &fakeCapturer{capture: func(h models.ChartHandle) (*models.ChartImage, error) {
		return nil, errors.New("browser unavailable")
	}}
	empty := &fakeCapturer{capture: func(h models.ChartHandle) (*models.ChartImage, error) {
		return nil, nil
	}}
	working := &fakeCapturer{capture: func(h models.ChartHandle) (*models.ChartImage, error) {
		return imageFor(h), nil
	}}

	handle := models.DefaultChartHandles()[0]

	img, err := Chain{failing, empty, working}.CaptureRegion(context.Background(), nil, handle)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, handle.ID, img.Handle.ID)

	img, err = Chain{failing}.CaptureRegion(context.Background(), nil, handle)
	assert.Error(t, err)
	assert.Nil(t, img)
}

func TestNativeCapturer_RendersSurface(t *testing.T) {
	surface := charts.Build(sampleViewModel(40))
	capturer := NewNativeCapturer(0)

	images := CaptureAll(context.Background(), capturer, surface, surface.Handles(), arbor.NewLogger(), nil)

	require.Len(t, images, 3)
	for _, img := range images {
		assert.Equal(t, charts.BaseWidth*2, img.Width)
		assert.Equal(t, charts.BaseHeight*2, img.Height)
		assert.NotEmpty(t, img.Data)
	}
}

func TestNativeCapturer_UnknownRegion(t *testing.T) {
	surface := charts.Build(&models.ViewModel{Symbol: "AAPL"})

	img, err := NewNativeCapturer(2).CaptureRegion(context.Background(), surface, models.DefaultChartHandles()[0])
	assert.Error(t, err)
	assert.Nil(t, img)
}

func TestNativeCapturer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	surface := charts.Build(sampleViewModel(10))
	_, err := NewNativeCapturer(2).CaptureRegion(ctx, surface, models.DefaultChartHandles()[0])
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewChartImage_EmptyData(t *testing.T) {
	img, err := newChartImage(models.DefaultChartHandles()[0], nil)
	assert.NoError(t, err)
	assert.Nil(t, img)

	_, err = newChartImage(models.DefaultChartHandles()[0], []byte("not a png"))
	assert.Error(t, err)
}
