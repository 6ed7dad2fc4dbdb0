/*
Package worker provides the fixed-size goroutine pool used to resume chains
whose retries were deferred by a scheduler.

# Overview

A FixedWorkerPool owns PoolSize workers draining one buffered task queue.
The scheduler.Pool scheduler waits out a retry delay and then submits the
resumed attempt as a Task, so the rest of the chain runs on a pool worker
instead of a timer goroutine.

# Usage

	pool, err := worker.NewFixedWorkerPool(&worker.FixedWorkerPoolConfig{
		PoolSize:      4,
		QueueSize:     64,
		SubmitTimeout: time.Second,
		ErrorHandler: func(err error) {
			log.Printf("task failed: %v", err)
		},
	})
	if err != nil {
		return err
	}
	if err := pool.Start(ctx); err != nil {
		return err
	}
	defer pool.Close()

	_ = pool.Submit(worker.FromFunc(func() { resume() }))

# Error handling

Task errors and recovered panics are counted in Stats and passed to the
configured ErrorHandler. A panicking task never takes its worker down.

# Lifecycle

Start launches the workers, Stop waits for in-flight tasks and leaves queued
tasks in place for a later Start, Close stops the pool permanently.
*/
package worker
