package interfaces

import (
	"context"

	"github.com/ternarybob/finsaathi/internal/models"
)

// ReportStorage - interface for archived report persistence
type ReportStorage interface {
	SaveReport(ctx context.Context, report *models.Report) error
	// GetReport returns the report including its PDF content
	GetReport(ctx context.Context, id string) (*models.Report, error)
	// ListReports returns metadata only, newest first; empty symbol lists all
	ListReports(ctx context.Context, symbol string, limit int) ([]*models.Report, error)
	DeleteReport(ctx context.Context, id string) error
}

// StorageManager - interface for managing all storage backends
type StorageManager interface {
	ReportStorage() ReportStorage
	Close() error
}
