// Package workers runs jobs on a bounded number of goroutines.
package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
)

// Job represents a work item to be processed
type Job func(ctx context.Context) error

// Pool manages a pool of workers for parallel processing. Every submitted job
// runs, even after ctx is cancelled; jobs check ctx themselves.
type Pool struct {
	jobs       chan Job
	maxWorkers int
	wg         sync.WaitGroup
	ctx        context.Context
	errors     []error
	errorsMu   sync.Mutex
	logger     arbor.ILogger
}

// NewPool creates a new worker pool bound to ctx
func NewPool(ctx context.Context, maxWorkers int, logger arbor.ILogger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	return &Pool{
		jobs:       make(chan Job, maxWorkers*2),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		logger:     logger,
	}
}

// Start begins the worker pool
func (p *Pool) Start() {
	p.logger.Debug().
		Int("max_workers", p.maxWorkers).
		Msg("Starting worker pool")

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit adds a job to the pool. It fails once ctx is done and the queue is full.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", p.ctx.Err())
	}
}

// Wait closes the queue and waits for all submitted jobs to complete
func (p *Pool) Wait() {
	close(p.jobs)
	p.wg.Wait()
}

// Errors returns all collected errors
func (p *Pool) Errors() []error {
	p.errorsMu.Lock()
	defer p.errorsMu.Unlock()
	return append([]error(nil), p.errors...)
}

// worker processes jobs from the queue until it is closed
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		if err := p.run(job); err != nil {
			p.errorsMu.Lock()
			p.errors = append(p.errors, err)
			p.errorsMu.Unlock()

			p.logger.Debug().
				Err(err).
				Int("worker_id", id).
				Msg("Job failed")
		}
	}
}

func (p *Pool) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job(p.ctx)
}
