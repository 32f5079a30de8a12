package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/finsaathi/internal/models"
)

func TestStore_StaleCompletionIsDiscarded(t *testing.T) {
	store := NewStore()

	first := store.Begin("AAPL")
	second := store.Begin("MSFT")

	// MSFT finishes first, then the slow AAPL run arrives
	assert.True(t, store.Commit(second, &models.ViewModel{Symbol: "MSFT"}))
	assert.False(t, store.Commit(first, &models.ViewModel{Symbol: "AAPL"}))

	vm, gen := store.Current()
	require.NotNil(t, vm)
	assert.Equal(t, "MSFT", vm.Symbol)
	assert.Equal(t, second, gen)
}

func TestStore_EmptyAndPending(t *testing.T) {
	store := NewStore()

	vm, gen := store.Current()
	assert.Nil(t, vm)
	assert.Zero(t, gen)

	g := store.Begin("TSLA")
	symbol, pending := store.Pending()
	assert.Equal(t, "TSLA", symbol)
	assert.True(t, pending)

	assert.False(t, store.Commit(g, nil))
	assert.True(t, store.Commit(g, &models.ViewModel{Symbol: "TSLA"}))
	_, pending = store.Pending()
	assert.False(t, pending)
}

func TestStore_ConcurrentRunsOnlyLatestWins(t *testing.T) {
	store := NewStore()

	gens := make([]uint64, 50)
	for i := range gens {
		gens[i] = store.Begin("AAPL")
	}

	var wg sync.WaitGroup
	for i, g := range gens {
		wg.Add(1)
		go func(i int, g uint64) {
			defer wg.Done()
			store.Commit(g, &models.ViewModel{Symbol: "AAPL", Error: string(rune('a' + i%26))})
		}(i, g)
	}
	wg.Wait()

	_, gen := store.Current()
	assert.Equal(t, gens[len(gens)-1], gen)
}

type blockingAggregator struct {
	release map[string]chan struct{}
}

func (b *blockingAggregator) FetchAll(ctx context.Context, symbol string) *models.ViewModel {
	if ch, ok := b.release[symbol]; ok {
		<-ch
	}
	return &models.ViewModel{Symbol: symbol}
}

func TestStore_RefreshDiscardsSupersededRun(t *testing.T) {
	store := NewStore()
	agg := &blockingAggregator{release: map[string]chan struct{}{"AAPL": make(chan struct{})}}

	done := make(chan bool)
	go func() {
		_, _, committed := store.Refresh(context.Background(), agg, "AAPL")
		done <- committed
	}()

	// wait until the AAPL run has begun
	require.Eventually(t, func() bool {
		sym, pending := store.Pending()
		return sym == "AAPL" && pending
	}, time.Second, time.Millisecond)

	vm, _, committed := store.Refresh(context.Background(), agg, "MSFT")
	assert.True(t, committed)
	assert.Equal(t, "MSFT", vm.Symbol)

	close(agg.release["AAPL"])
	assert.False(t, <-done)

	current, _ := store.Current()
	assert.Equal(t, "MSFT", current.Symbol)
}
