package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr.(*Manager)
}

func TestReportStorage_SaveGetDelete(t *testing.T) {
	storage := newTestManager(t).ReportStorage()
	ctx := context.Background()

	report := &models.Report{
		ID:        "rpt_1",
		Symbol:    "AAPL",
		Filename:  "FinSaathi_AAPL_Analysis_2025-03-14.pdf",
		Pages:     3,
		Size:      11,
		CreatedAt: time.Now(),
		Content:   []byte("%PDF-1.3..."),
	}
	require.NoError(t, storage.SaveReport(ctx, report))

	got, err := storage.GetReport(ctx, "rpt_1")
	require.NoError(t, err)
	assert.Equal(t, report.Filename, got.Filename)
	assert.Equal(t, report.Content, got.Content)
	assert.Equal(t, 3, got.Pages)

	require.NoError(t, storage.DeleteReport(ctx, "rpt_1"))
	_, err = storage.GetReport(ctx, "rpt_1")
	assert.ErrorIs(t, err, ErrReportNotFound)

	assert.NoError(t, storage.DeleteReport(ctx, "missing"))
}

func TestReportStorage_SaveRequiresID(t *testing.T) {
	storage := newTestManager(t).ReportStorage()
	assert.Error(t, storage.SaveReport(context.Background(), &models.Report{Symbol: "AAPL"}))
}

func TestReportStorage_ListNewestFirst(t *testing.T) {
	storage := newTestManager(t).ReportStorage()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, sym := range []string{"AAPL", "MSFT", "AAPL", "AAPL"} {
		require.NoError(t, storage.SaveReport(ctx, &models.Report{
			ID:        common.NewReportID(),
			Symbol:    sym,
			Pages:     i + 1,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Content:   []byte("pdf"),
		}))
	}

	all, err := storage.ListReports(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, 4, all[0].Pages)
	assert.Equal(t, 1, all[3].Pages)
	for _, r := range all {
		assert.Nil(t, r.Content)
	}

	aapl, err := storage.ListReports(ctx, "aapl", 2)
	require.NoError(t, err)
	require.Len(t, aapl, 2)
	assert.Equal(t, 4, aapl[0].Pages)
	assert.Equal(t, 3, aapl[1].Pages)
}

func TestOpenDB_ReopenAndReset(t *testing.T) {
	path := t.TempDir()
	ctx := context.Background()

	mgr, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, mgr.ReportStorage().SaveReport(ctx, &models.Report{ID: "rpt_keep", Symbol: "INFY.NS", CreatedAt: time.Now()}))
	require.NoError(t, mgr.Close())
	require.NoError(t, mgr.Close())

	mgr, err = NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: path})
	require.NoError(t, err)
	_, err = mgr.ReportStorage().GetReport(ctx, "rpt_keep")
	require.NoError(t, err)
	require.NoError(t, mgr.Close())

	mgr, err = NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: path, ResetOnStartup: true})
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	_, err = mgr.ReportStorage().GetReport(ctx, "rpt_keep")
	assert.ErrorIs(t, err, ErrReportNotFound)
}
