package finapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/metrics"
)

// BreakerConfig holds configuration for the per-endpoint circuit breakers
type BreakerConfig struct {
	MaxRequests uint32        // max requests allowed in half-open state
	Interval    time.Duration // cyclic period of the closed state to clear counts
	Timeout     time.Duration // period of the open state before transitioning to half-open
}

// DefaultBreakerConfig is used when the client is built without WithBreaker.
var DefaultBreakerConfig = BreakerConfig{
	MaxRequests: 1,
	Interval:    time.Minute,
	Timeout:     30 * time.Second,
}

// ErrCircuitOpen is returned without contacting the backend while a breaker is open.
var ErrCircuitOpen = errors.New("analysis endpoint unavailable: circuit breaker open")

// BreakerRegistry holds one breaker per upstream endpoint, created on first use.
type BreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
	config   BreakerConfig
	logger   arbor.ILogger
	metrics  *metrics.Metrics
}

// NewBreakerRegistry creates a registry with the given config
func NewBreakerRegistry(config BreakerConfig, logger arbor.ILogger, m *metrics.Metrics) *BreakerRegistry {
	return &BreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
		config:   config,
		logger:   logger,
		metrics:  m,
	}
}

func (r *BreakerRegistry) get(name string) *gobreaker.CircuitBreaker[any] {
	r.mu.RLock()
	cb, exists := r.breakers[name]
	r.mu.RUnlock()
	if exists {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, exists = r.breakers[name]; exists {
		return cb
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: r.config.MaxRequests,
		Interval:    r.config.Interval,
		Timeout:     r.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		IsSuccessful: func(err error) bool {
			// A caller cancelling is not an upstream failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if r.logger != nil {
				r.logger.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Circuit breaker state change")
			}
			r.metrics.SetCircuitBreakerState(name, stateToInt(to))
		},
	}

	cb = gobreaker.NewCircuitBreaker[any](settings)
	r.breakers[name] = cb
	return cb
}

// Execute runs fn through the named breaker
func (r *BreakerRegistry) Execute(ctx context.Context, name string, fn func() error) error {
	_, err := r.get(name).Execute(func() (any, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fn()
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", name, ErrCircuitOpen)
	}
	return err
}

// BreakerStatus is the externally visible state of one breaker
type BreakerStatus struct {
	Name          string `json:"name"`
	State         string `json:"state"`
	Requests      uint32 `json:"requests"`
	TotalFailures uint32 `json:"total_failures"`
}

// Status returns the current state of all breakers
func (r *BreakerRegistry) Status() map[string]BreakerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := make(map[string]BreakerStatus, len(r.breakers))
	for name, cb := range r.breakers {
		counts := cb.Counts()
		status[name] = BreakerStatus{
			Name:          name,
			State:         cb.State().String(),
			Requests:      counts.Requests,
			TotalFailures: counts.TotalFailures,
		}
	}
	return status
}

// 0=closed, 1=half-open, 2=open
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
