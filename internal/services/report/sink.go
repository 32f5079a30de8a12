package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/models"
)

// DiskSink writes each report to dir under its filename. A report for the
// same symbol and day replaces the earlier file.
type DiskSink struct {
	dir    string
	logger arbor.ILogger
}

var _ interfaces.ReportSink = (*DiskSink)(nil)

// NewDiskSink creates a sink writing into dir
func NewDiskSink(dir string, logger arbor.ILogger) *DiskSink {
	return &DiskSink{dir: dir, logger: logger}
}

// Path is where a report with this filename is written
func (s *DiskSink) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

// Save implements interfaces.ReportSink. The file appears atomically.
func (s *DiskSink) Save(ctx context.Context, report *models.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name := report.Filename; name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return fmt.Errorf("invalid report filename %q", report.Filename)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".report-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(report.Content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write report: %w", err)
	}

	path := s.Path(report.Filename)
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.Debug().Str("path", path).Int("size", len(report.Content)).Msg("Report written to disk")
	return nil
}

// ArchiveSink stores reports in ReportStorage
type ArchiveSink struct {
	storage interfaces.ReportStorage
}

var _ interfaces.ReportSink = (*ArchiveSink)(nil)

// NewArchiveSink creates a sink backed by storage
func NewArchiveSink(storage interfaces.ReportStorage) *ArchiveSink {
	return &ArchiveSink{storage: storage}
}

// Save implements interfaces.ReportSink
func (s *ArchiveSink) Save(ctx context.Context, report *models.Report) error {
	if err := s.storage.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("failed to archive report: %w", err)
	}
	return nil
}

// Sinks saves to each sink in order and stops at the first error
type Sinks []interfaces.ReportSink

var _ interfaces.ReportSink = Sinks(nil)

// Save implements interfaces.ReportSink
func (s Sinks) Save(ctx context.Context, report *models.Report) error {
	for _, sink := range s {
		if sink == nil {
			continue
		}
		if err := sink.Save(ctx, report); err != nil {
			return err
		}
	}
	return nil
}
