// Package scheduler generates reports for a watchlist on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/models"
	"github.com/ternarybob/finsaathi/internal/services/workers"
)

// SurfaceBuilder turns a ViewModel into its chart surface
type SurfaceBuilder func(vm *models.ViewModel) interfaces.ChartSurface

// Result is the outcome of one symbol in a run
type Result struct {
	Symbol   string `json:"symbol"`
	Filename string `json:"filename,omitempty"`
	Pages    int    `json:"pages,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Status describes the scheduler
type Status struct {
	Running   bool       `json:"running"`
	Schedule  string     `json:"schedule,omitempty"`
	Watchlist []string   `json:"watchlist"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRunOK bool       `json:"last_run_ok"`
	Results   []Result   `json:"results,omitempty"`
}

// Service runs watchlist exports. Runs never overlap: a tick that fires while
// the previous run is still going is skipped.
type Service struct {
	aggregator  interfaces.Aggregator
	exporter    interfaces.ReportExporter
	surface     SurfaceBuilder
	watchlist   []string
	concurrency int
	timeout     time.Duration
	logger      arbor.ILogger

	cron     *cron.Cron
	cronID   cron.EntryID
	schedule string

	mu           sync.Mutex // protects the fields below
	running      bool
	isProcessing bool
	lastRun      *time.Time
	lastResults  []Result
}

// NewService creates a scheduler. Symbols are upper-cased and de-duplicated.
func NewService(aggregator interfaces.Aggregator, exporter interfaces.ReportExporter, surface SurfaceBuilder, watchlist []string, logger arbor.ILogger) *Service {
	seen := make(map[string]bool)
	var symbols []string
	for _, s := range watchlist {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}

	return &Service{
		aggregator:  aggregator,
		exporter:    exporter,
		surface:     surface,
		watchlist:   symbols,
		concurrency: 1,
		timeout:     5 * time.Minute,
		logger:      logger,
		cron:        cron.New(),
	}
}

// SetConcurrency sets how many symbols are exported at once (minimum 1)
func (s *Service) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	s.concurrency = n
	s.mu.Unlock()
}

// Start registers the schedule and starts the cron runner
func (s *Service) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if len(s.watchlist) == 0 {
		return fmt.Errorf("watchlist is empty")
	}

	id, err := s.cron.AddFunc(schedule, func() {
		s.RunNow(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cronID = id
	s.schedule = schedule
	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Strs("watchlist", s.watchlist).
		Msg("Report scheduler started")
	return nil
}

// Stop halts the cron runner and waits for a run in progress
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.cron.Remove(s.cronID)
	s.logger.Info().Msg("Report scheduler stopped")
}

// RunNow exports every watchlist symbol; results follow watchlist order.
// Returns nil when a run is already in progress.
func (s *Service) RunNow(ctx context.Context) []Result {
	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Debug().Msg("Scheduled export already in progress, skipping")
		return nil
	}
	s.isProcessing = true
	concurrency := s.concurrency
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isProcessing = false
		s.mu.Unlock()
	}()

	start := time.Now()
	results := make([]Result, len(s.watchlist))

	pool := workers.NewPool(ctx, concurrency, s.logger)
	pool.Start()
	for i, symbol := range s.watchlist {
		err := pool.Submit(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Symbol: symbol, Error: err.Error()}
				return err
			}
			results[i] = s.exportOne(ctx, symbol)
			if results[i].Error != "" {
				return fmt.Errorf("%s: %s", symbol, results[i].Error)
			}
			return nil
		})
		if err != nil {
			results[i] = Result{Symbol: symbol, Error: err.Error()}
		}
	}
	pool.Wait()

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	now := time.Now()
	s.mu.Lock()
	s.lastRun = &now
	s.lastResults = results
	s.mu.Unlock()

	s.logger.Info().
		Int("symbols", len(results)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Scheduled export run completed")

	return results
}

func (s *Service) exportOne(ctx context.Context, symbol string) (result Result) {
	result.Symbol = symbol

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("symbol", symbol).Str("panic", fmt.Sprintf("%v", r)).Msg("PANIC RECOVERED in scheduled export")
			result.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vm := s.aggregator.FetchAll(ctx, symbol)
	if vm.Failed {
		result.Error = vm.Error
		s.logger.Warn().Str("symbol", symbol).Str("error", vm.Error).Msg("Skipping scheduled export, aggregation failed")
		return result
	}

	var surface interfaces.ChartSurface
	if s.surface != nil {
		surface = s.surface(vm)
	}

	report, err := s.exporter.Export(ctx, vm, surface, symbol)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Filename = report.Filename
	result.Pages = report.Pages
	return result
}

// Status returns a snapshot of the scheduler state
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Running:   s.running,
		Schedule:  s.schedule,
		Watchlist: append([]string(nil), s.watchlist...),
		LastRun:   s.lastRun,
		Results:   append([]Result(nil), s.lastResults...),
	}

	if s.lastRun != nil {
		status.LastRunOK = true
		for _, r := range s.lastResults {
			if r.Error != "" {
				status.LastRunOK = false
				break
			}
		}
	}

	if s.running {
		if entry := s.cron.Entry(s.cronID); entry.Valid() {
			next := entry.Next
			status.NextRun = &next
		}
	}

	return status
}
