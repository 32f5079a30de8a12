package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/models"
)

// ErrReportNotFound is returned for an unknown report ID
var ErrReportNotFound = errors.New("report not found")

// ReportStorage implements interfaces.ReportStorage for Badger
type ReportStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewReportStorage creates a new ReportStorage instance
func NewReportStorage(db *DB, logger arbor.ILogger) interfaces.ReportStorage {
	return &ReportStorage{
		db:     db,
		logger: logger,
	}
}

// SaveReport inserts or replaces a report by ID
func (s *ReportStorage) SaveReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}
	if err := s.db.Store().Upsert(report.ID, report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.Debug().
		Str("id", report.ID).
		Str("symbol", report.Symbol).
		Int("size", report.Size).
		Msg("Report archived")
	return nil
}

// GetReport returns the report with its PDF content
func (s *ReportStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	err := s.db.Store().Get(id, &report)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// ListReports returns report metadata, newest first. Content is not included.
func (s *ReportStorage) ListReports(ctx context.Context, symbol string, limit int) ([]*models.Report, error) {
	var query *badgerhold.Query
	if symbol = common.NormalizeSymbol(symbol); symbol != "" {
		query = badgerhold.Where("Symbol").Eq(symbol).Index("Symbol")
	} else {
		query = badgerhold.Where("ID").Ne("")
	}
	query = query.SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []models.Report
	if err := s.db.Store().Find(&reports, query); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	out := make([]*models.Report, 0, len(reports))
	for i := range reports {
		reports[i].Content = nil
		out = append(out, &reports[i])
	}
	return out, nil
}

// DeleteReport removes a report; unknown IDs are not an error
func (s *ReportStorage) DeleteReport(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.Report{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}
