// Package capture rasterizes chart regions for the PDF report.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/metrics"
	"github.com/ternarybob/finsaathi/internal/models"
)

// DefaultScale is the device pixel ratio used for captures
const DefaultScale = 2.0

// CaptureAll captures every handle concurrently and waits for all of them.
// The result keeps handle order; regions that failed or had no content are
// logged and left out.
func CaptureAll(ctx context.Context, capturer interfaces.ChartCapturer, surface interfaces.ChartSurface, handles []models.ChartHandle, logger arbor.ILogger, m *metrics.Metrics) []models.ChartImage {
	results := make([]*models.ChartImage, len(handles))

	var wg sync.WaitGroup
	for i, handle := range handles {
		wg.Add(1)
		go func(idx int, h models.ChartHandle) {
			defer wg.Done()

			var img *models.ChartImage
			err := common.Guard(logger, "capture."+h.ID, func() error {
				var captureErr error
				img, captureErr = capturer.CaptureRegion(ctx, surface, h)
				return captureErr
			})

			switch {
			case err != nil:
				logger.Warn().Str("region", h.ID).Err(err).Msg("Chart capture failed, omitting region")
				img = nil
			case img == nil:
				logger.Debug().Str("region", h.ID).Msg("Chart region has no content")
			}

			m.RecordCapture(h.ID, img != nil)
			results[idx] = img
		}(i, handle)
	}
	wg.Wait()

	images := make([]models.ChartImage, 0, len(results))
	for _, img := range results {
		if img != nil {
			images = append(images, *img)
		}
	}
	return images
}

// NativeCapturer renders regions straight to PNG with go-chart
type NativeCapturer struct {
	scale float64
}

var _ interfaces.ChartCapturer = (*NativeCapturer)(nil)

// NewNativeCapturer creates a capturer rendering at scale (DefaultScale when <= 0)
func NewNativeCapturer(scale float64) *NativeCapturer {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &NativeCapturer{scale: scale}
}

// CaptureRegion implements interfaces.ChartCapturer
func (n *NativeCapturer) CaptureRegion(ctx context.Context, surface interfaces.ChartSurface, handle models.ChartHandle) (*models.ChartImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := surface.RenderPNG(handle.ID, n.scale)
	if err != nil {
		return nil, err
	}
	return newChartImage(handle, data)
}

// Chain tries each capturer in order and returns the first image produced
type Chain []interfaces.ChartCapturer

var _ interfaces.ChartCapturer = Chain(nil)

// CaptureRegion implements interfaces.ChartCapturer
func (c Chain) CaptureRegion(ctx context.Context, surface interfaces.ChartSurface, handle models.ChartHandle) (*models.ChartImage, error) {
	var lastErr error
	for _, capturer := range c {
		img, err := capturer.CaptureRegion(ctx, surface, handle)
		if err != nil {
			lastErr = err
			continue
		}
		if img != nil {
			return img, nil
		}
	}
	return nil, lastErr
}

// newChartImage reads the pixel size from the PNG header. Empty data means no content.
func newChartImage(handle models.ChartHandle, data []byte) (*models.ChartImage, error) {
	if len(data) == 0 {
		return nil, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid image for %s: %w", handle.ID, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, nil
	}
	return &models.ChartImage{
		Handle: handle,
		Data:   data,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}
