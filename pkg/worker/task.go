// Package worker provides the goroutine pool that resumes deferred chain work
package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jzx17/asyncchain/pkg/types"
)

// taskIDCounter is the global task ID counter
var taskIDCounter int64

// FuncTask runs a function as a pool task
type FuncTask struct {
	id string
	fn func(ctx context.Context) error
}

// NewTask creates a task with a generated ID
func NewTask(fn func(ctx context.Context) error) *FuncTask {
	id := atomic.AddInt64(&taskIDCounter, 1)
	return NewTaskWithID(fmt.Sprintf("task-%d", id), fn)
}

// NewTaskWithID creates a task with custom ID
func NewTaskWithID(id string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{id: id, fn: fn}
}

// FromFunc wraps a deferred callback, such as a scheduled retry, as a task
func FromFunc(fn func()) *FuncTask {
	return NewTask(func(context.Context) error {
		fn()
		return nil
	})
}

// Execute executes the task
func (t *FuncTask) Execute(ctx context.Context) error {
	if t.fn == nil {
		return fmt.Errorf("task %s has no execution function", t.id)
	}
	return t.fn(ctx)
}

// ID returns the task ID
func (t *FuncTask) ID() string {
	return t.id
}

var _ types.Task = (*FuncTask)(nil)
