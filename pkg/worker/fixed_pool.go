package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/asyncchain/pkg/types"
)

// FixedWorkerPoolConfig defines configuration for fixed worker pool
type FixedWorkerPoolConfig struct {
	// PoolSize is the size of the worker pool
	PoolSize int

	// QueueSize is the task queue size
	QueueSize int

	// SubmitTimeout is the task submission timeout
	SubmitTimeout time.Duration

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// ErrorHandler receives task errors and recovered panics (optional)
	ErrorHandler types.ErrorHandler
}

// DefaultFixedWorkerPoolConfig returns default configuration
func DefaultFixedWorkerPoolConfig() *FixedWorkerPoolConfig {
	return &FixedWorkerPoolConfig{
		PoolSize:      4,
		QueueSize:     64,
		SubmitTimeout: 5 * time.Second,
		Clock:         types.NewRealClock(),
	}
}

const (
	poolStopped int32 = iota
	poolRunning
	poolClosed
)

// FixedWorkerPool implements a fixed-size worker pool
type FixedWorkerPool struct {
	config   *FixedWorkerPoolConfig
	workers  []*Worker
	taskChan chan types.Task

	state     int32
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	completed int64
	failed    int64

	mu sync.RWMutex
}

// NewFixedWorkerPool creates a new fixed worker pool
func NewFixedWorkerPool(config *FixedWorkerPoolConfig) (*FixedWorkerPool, error) {
	if config == nil {
		config = DefaultFixedWorkerPoolConfig()
	}

	if config.PoolSize <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", config.PoolSize)
	}
	if config.QueueSize <= 0 {
		return nil, fmt.Errorf("queue size must be positive, got %d", config.QueueSize)
	}

	if config.Clock == nil {
		config.Clock = types.NewRealClock()
	}

	pool := &FixedWorkerPool{
		config:   config,
		taskChan: make(chan types.Task, config.QueueSize),
	}

	pool.workers = pool.newWorkers()

	return pool, nil
}

func (p *FixedWorkerPool) newWorkers() []*Worker {
	workers := make([]*Worker, p.config.PoolSize)
	for i := range workers {
		w := NewWorkerWithClock(i, p.taskChan, p.config.Clock)
		w.onDone = p.taskDone
		workers[i] = w
	}
	return workers
}

func (p *FixedWorkerPool) taskDone(task types.Task, err error) {
	if err == nil {
		atomic.AddInt64(&p.completed, 1)
		return
	}

	if p.config.ErrorHandler != nil {
		p.config.ErrorHandler(err)
	}
	atomic.AddInt64(&p.failed, 1)
}

// Start starts the worker pool
func (p *FixedWorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch atomic.LoadInt32(&p.state) {
	case poolRunning:
		return fmt.Errorf("worker pool is already running")
	case poolClosed:
		return fmt.Errorf("worker pool is closed")
	}

	// workers cannot be restarted once stopped
	if p.cancel != nil {
		p.workers = p.newWorkers()
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		go w.Start(p.ctx)
	}

	atomic.StoreInt32(&p.state, poolRunning)
	return nil
}

// Submit submits a task to the worker pool
func (p *FixedWorkerPool) Submit(task types.Task) error {
	return p.SubmitWithTimeout(task, p.config.SubmitTimeout)
}

// SubmitWithTimeout submits a task to the worker pool with timeout
func (p *FixedWorkerPool) SubmitWithTimeout(task types.Task, timeout time.Duration) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if atomic.LoadInt32(&p.state) != poolRunning {
		return types.ErrPoolNotRunning
	}

	// if no timeout, try to send directly
	if timeout <= 0 {
		select {
		case p.taskChan <- task:
			return nil
		default:
			return types.ErrPoolFull
		}
	}

	timer := p.config.Clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case p.taskChan <- task:
		return nil
	case <-timer.C():
		return types.ErrTimeout
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Stop stops the workers; queued tasks stay queued until the next Start
func (p *FixedWorkerPool) Stop() error {
	if !atomic.CompareAndSwapInt32(&p.state, poolRunning, poolStopped) {
		if atomic.LoadInt32(&p.state) == poolClosed {
			return fmt.Errorf("worker pool is closed")
		}
		return fmt.Errorf("worker pool is not running")
	}

	// cancel first so a blocked SubmitWithTimeout releases the read lock
	p.cancel()

	p.mu.Lock()
	workers := p.workers
	p.mu.Unlock()

	var wg sync.WaitGroup
	errs := make(chan error, len(workers))
	for _, w := range workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			if err := w.Stop(); err != nil {
				errs <- err
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	return <-errs
}

// Close stops the pool for good and releases its resources
func (p *FixedWorkerPool) Close() error {
	var closeErr error

	p.closeOnce.Do(func() {
		if atomic.LoadInt32(&p.state) == poolRunning {
			closeErr = p.Stop()
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		atomic.StoreInt32(&p.state, poolClosed)
		close(p.taskChan)
	})

	return closeErr
}

// Size returns the worker pool size
func (p *FixedWorkerPool) Size() int {
	return p.config.PoolSize
}

// Stats gets basic worker pool statistics
func (p *FixedWorkerPool) Stats() types.WorkerPoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var active int
	for _, w := range p.workers {
		if w.State() == WorkerStateWorking {
			active++
		}
	}

	return types.WorkerPoolStats{
		PoolSize:      p.config.PoolSize,
		ActiveWorkers: active,
		QueueSize:     len(p.taskChan),
		QueueCapacity: p.config.QueueSize,
		Completed:     atomic.LoadInt64(&p.completed),
		Failed:        atomic.LoadInt64(&p.failed),
	}
}

// IsRunning checks if the worker pool is running
func (p *FixedWorkerPool) IsRunning() bool {
	return atomic.LoadInt32(&p.state) == poolRunning
}

var _ types.WorkerPool = (*FixedWorkerPool)(nil)
