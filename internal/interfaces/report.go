package interfaces

import (
	"context"

	"github.com/ternarybob/finsaathi/internal/models"
)

// ChartSurface is the set of live chart regions built from one ViewModel
type ChartSurface interface {
	// Handles lists the regions that have content, in print order
	Handles() []models.ChartHandle
	// HTML renders a standalone page with one element per region, id = handle ID
	HTML() ([]byte, error)
	// RenderPNG rasterizes one region at the given scale
	RenderPNG(regionID string, scale float64) ([]byte, error)
}

// ChartCapturer rasterizes a chart region. A nil image with a nil error means no content.
type ChartCapturer interface {
	CaptureRegion(ctx context.Context, surface ChartSurface, handle models.ChartHandle) (*models.ChartImage, error)
}

// ReportExporter renders a ViewModel to a PDF report
type ReportExporter interface {
	Export(ctx context.Context, vm *models.ViewModel, surface ChartSurface, symbol string) (*models.Report, error)
}

// ReportSink receives finished reports (disk, archive, ...)
type ReportSink interface {
	Save(ctx context.Context, report *models.Report) error
}
