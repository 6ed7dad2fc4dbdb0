package scheduler

import (
	"fmt"
	"time"

	"github.com/jzx17/asyncchain/pkg/types"
	"github.com/jzx17/asyncchain/pkg/worker"
)

// PoolConfig defines configuration for the pool scheduler
type PoolConfig struct {
	// Clock measures delays (optional, defaults to real clock)
	Clock types.Clock

	// SubmitTimeout bounds how long a due task waits for queue space
	SubmitTimeout time.Duration

	// ErrorHandler receives submission failures (optional)
	ErrorHandler types.ErrorHandler
}

// DefaultPoolConfig returns default configuration
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Clock:         types.NewRealClock(),
		SubmitTimeout: time.Second,
	}
}

// Pool waits out the delay on a timer and then hands the task to a worker
// pool, so resumed chains run on pool goroutines. The worker pool is owned by
// the caller and must be started before tasks fall due.
type Pool struct {
	pool   types.WorkerPool
	timer  *Timer
	config *PoolConfig
}

// NewPool creates a scheduler that feeds pool
func NewPool(pool types.WorkerPool, config *PoolConfig) (*Pool, error) {
	if pool == nil {
		return nil, fmt.Errorf("worker pool cannot be nil")
	}
	if config == nil {
		config = DefaultPoolConfig()
	}
	if config.Clock == nil {
		config.Clock = types.NewRealClock()
	}
	if config.SubmitTimeout < 0 {
		return nil, fmt.Errorf("submit timeout cannot be negative, got %v", config.SubmitTimeout)
	}

	return &Pool{
		pool:   pool,
		timer:  NewTimer(WithClock(config.Clock), WithRejectHandler(config.ErrorHandler)),
		config: config,
	}, nil
}

// Schedule submits task to the worker pool once delay has elapsed
func (p *Pool) Schedule(task func(), delay time.Duration) {
	if delay <= 0 {
		p.submit(task)
		return
	}
	p.timer.Schedule(func() { p.submit(task) }, delay)
}

// submit falls back to running task on the calling goroutine when the pool
// rejects it, so the waiting chain still completes
func (p *Pool) submit(task func()) {
	t := worker.FromFunc(task)
	if err := p.pool.SubmitWithTimeout(t, p.config.SubmitTimeout); err != nil {
		if p.config.ErrorHandler != nil {
			p.config.ErrorHandler(fmt.Errorf("submit %s: %w", t.ID(), err))
		}
		task()
	}
}

// Pending reports how many tasks are still waiting for their delay
func (p *Pool) Pending() int {
	return p.timer.Pending()
}

// Close stops waiting tasks. The worker pool is left running.
func (p *Pool) Close() error {
	return p.timer.Close()
}

var _ types.Scheduler = (*Pool)(nil)
