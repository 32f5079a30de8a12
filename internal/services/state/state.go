// Package state holds the dashboard's current analysis. Each aggregation run
// takes a generation number when it starts; only the newest run may commit.
package state

import (
	"context"
	"sync"

	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/models"
)

// Store is the single owner of the committed ViewModel
type Store struct {
	mu         sync.RWMutex
	generation uint64
	committed  uint64
	symbol     string
	current    *models.ViewModel
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Begin starts a run for symbol and returns its generation.
// Any run begun earlier becomes stale.
func (s *Store) Begin(symbol string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.symbol = symbol
	return s.generation
}

// Commit stores vm wholesale if gen is still the latest generation.
// It reports whether vm was stored; stale results are discarded.
func (s *Store) Commit(gen uint64, vm *models.ViewModel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || vm == nil {
		return false
	}
	s.current = vm
	s.committed = gen
	return true
}

// Current returns the last committed ViewModel and its generation (nil, 0 when none).
func (s *Store) Current() (*models.ViewModel, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.committed
}

// Pending returns the symbol of the latest run and whether it has not committed yet.
func (s *Store) Pending() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.symbol, s.generation != s.committed
}

// Refresh runs one aggregation for symbol and commits the result unless a
// newer run began in the meantime. The ViewModel is returned either way.
func (s *Store) Refresh(ctx context.Context, agg interfaces.Aggregator, symbol string) (vm *models.ViewModel, gen uint64, committed bool) {
	gen = s.Begin(symbol)
	vm = agg.FetchAll(ctx, symbol)
	return vm, gen, s.Commit(gen, vm)
}
