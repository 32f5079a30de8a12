package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestPool_RunsAllJobs(t *testing.T) {
	pool := NewPool(context.Background(), 3, arbor.NewLogger())
	pool.Start()

	var done atomic.Int32
	for i := 0; i < 10; i++ {
		fail := i%4 == 0
		assert.NoError(t, pool.Submit(func(ctx context.Context) error {
			done.Add(1)
			if fail {
				return errors.New("failed")
			}
			return nil
		}))
	}
	pool.Wait()

	assert.Equal(t, int32(10), done.Load())
	assert.Len(t, pool.Errors(), 3)
}

func TestPool_LimitsConcurrency(t *testing.T) {
	pool := NewPool(context.Background(), 2, arbor.NewLogger())
	pool.Start()

	var active, peak atomic.Int32
	for i := 0; i < 6; i++ {
		pool.Submit(func(ctx context.Context) error {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return nil
		})
	}
	pool.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPool_PanicBecomesError(t *testing.T) {
	pool := NewPool(context.Background(), 1, arbor.NewLogger())
	pool.Start()
	pool.Submit(func(ctx context.Context) error { panic("boom") })
	pool.Wait()

	errs := pool.Errors()
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "boom")
}

func TestPool_ZeroWorkersDefaultsToOne(t *testing.T) {
	pool := NewPool(context.Background(), 0, arbor.NewLogger())
	assert.Equal(t, 1, pool.maxWorkers)
}
