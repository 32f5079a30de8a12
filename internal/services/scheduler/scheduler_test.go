package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/models"
)

type fakeAggregator struct {
	failing map[string]bool
}

func (f *fakeAggregator) FetchAll(ctx context.Context, symbol string) *models.ViewModel {
	vm := &models.ViewModel{Symbol: symbol}
	if f.failing[symbol] {
		vm.Failed = true
		vm.Error = "Failed to load analysis for " + symbol
	}
	return vm
}

type fakeExporter struct {
	mu       sync.Mutex
	exported []string
	err      error
}

func (f *fakeExporter) Export(ctx context.Context, vm *models.ViewModel, surface interfaces.ChartSurface, symbol string) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.exported = append(f.exported, symbol)
	return &models.Report{Symbol: symbol, Filename: "FinSaathi_" + symbol + ".pdf", Pages: 2}, nil
}

func TestNewService_NormalizesWatchlist(t *testing.T) {
	svc := NewService(&fakeAggregator{}, &fakeExporter{}, nil, []string{" aapl", "MSFT", "AAPL", ""}, arbor.NewLogger())
	assert.Equal(t, []string{"AAPL", "MSFT"}, svc.Status().Watchlist)
}

func TestRunNow_ExportsWatchlist(t *testing.T) {
	exporter := &fakeExporter{}
	agg := &fakeAggregator{failing: map[string]bool{"TSLA": true}}
	svc := NewService(agg, exporter, nil, []string{"AAPL", "TSLA", "MSFT"}, arbor.NewLogger())

	results := svc.RunNow(context.Background())

	require.Len(t, results, 3)
	assert.Equal(t, "FinSaathi_AAPL.pdf", results[0].Filename)
	assert.Equal(t, 2, results[0].Pages)
	assert.Equal(t, "Failed to load analysis for TSLA", results[1].Error)
	assert.Empty(t, results[2].Error)
	assert.Equal(t, []string{"AAPL", "MSFT"}, exporter.exported)

	status := svc.Status()
	require.NotNil(t, status.LastRun)
	assert.False(t, status.LastRunOK)
	assert.Len(t, status.Results, 3)
}

func TestRunNow_ExportError(t *testing.T) {
	svc := NewService(&fakeAggregator{}, &fakeExporter{err: errors.New("disk full")}, nil, []string{"AAPL"}, arbor.NewLogger())

	results := svc.RunNow(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, "disk full", results[0].Error)
}

func TestRunNow_CancelledContext(t *testing.T) {
	exporter := &fakeExporter{}
	svc := NewService(&fakeAggregator{}, exporter, nil, []string{"AAPL", "MSFT"}, arbor.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := svc.RunNow(ctx)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEmpty(t, r.Error)
	}
	assert.Empty(t, exporter.exported)
}

func TestStart(t *testing.T) {
	logger := arbor.NewLogger()

	empty := NewService(&fakeAggregator{}, &fakeExporter{}, nil, nil, logger)
	assert.Error(t, empty.Start("0 18 * * 1-5"))

	svc := NewService(&fakeAggregator{}, &fakeExporter{}, nil, []string{"AAPL"}, logger)
	assert.Error(t, svc.Start("not a schedule"))

	require.NoError(t, svc.Start("0 18 * * 1-5"))
	defer svc.Stop()

	assert.Error(t, svc.Start("0 18 * * 1-5"))

	status := svc.Status()
	assert.True(t, status.Running)
	assert.Equal(t, "0 18 * * 1-5", status.Schedule)
	assert.NotNil(t, status.NextRun)
}

func TestRunNow_ConcurrentKeepsWatchlistOrder(t *testing.T) {
	exporter := &fakeExporter{}
	watchlist := []string{"AAPL", "MSFT", "GOOG", "TSLA", "NVDA"}
	svc := NewService(&fakeAggregator{}, exporter, nil, watchlist, arbor.NewLogger())
	svc.SetConcurrency(3)

	results := svc.RunNow(context.Background())

	require.Len(t, results, len(watchlist))
	for i, symbol := range watchlist {
		assert.Equal(t, symbol, results[i].Symbol)
		assert.Empty(t, results[i].Error)
	}
	assert.ElementsMatch(t, watchlist, exporter.exported)
}
