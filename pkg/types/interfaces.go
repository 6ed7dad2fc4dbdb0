// Package types defines core interfaces shared by the chain engine and its schedulers
package types

import (
	"context"
	"time"
)

// Scheduler defers a task. Implementations must eventually invoke task once,
// on any goroutine, after roughly delay has elapsed. Schedule must not block
// waiting for the task.
type Scheduler interface {
	Schedule(task func(), delay time.Duration)
}

// SchedulerFunc adapts an ordinary function to the Scheduler interface
type SchedulerFunc func(task func(), delay time.Duration)

// Schedule calls f(task, delay)
func (f SchedulerFunc) Schedule(task func(), delay time.Duration) {
	f(task, delay)
}

// Task defines the unit of work run by a worker pool
type Task interface {
	// Execute executes the task
	Execute(ctx context.Context) error

	// ID returns the task ID (for tracking)
	ID() string
}

// WorkerPool defines the worker pool interface
type WorkerPool interface {
	// Submit submits a task to the worker pool
	Submit(task Task) error

	// SubmitWithTimeout submits a task to the worker pool with timeout
	SubmitWithTimeout(task Task, timeout time.Duration) error

	// Start starts the worker pool
	Start(ctx context.Context) error

	// Stop stops the worker pool
	Stop() error

	// Close closes the worker pool and releases resources
	Close() error

	// Size returns the size of the worker pool
	Size() int

	// Stats returns worker pool statistics
	Stats() WorkerPoolStats
}

// WorkerPoolStats defines basic statistics for worker pools
type WorkerPoolStats struct {
	// PoolSize is the size of the pool
	PoolSize int

	// ActiveWorkers is the number of active worker goroutines
	ActiveWorkers int

	// QueueSize is the current number of tasks in the queue
	QueueSize int

	// QueueCapacity is the capacity of the queue
	QueueCapacity int

	// Completed is the number of tasks that finished without error
	Completed int64

	// Failed is the number of tasks that returned an error or panicked
	Failed int64
}

// ErrorHandler receives errors that have no caller to return to
type ErrorHandler func(error)

// Option defines a configuration option function
type Option[T any] func(T)
