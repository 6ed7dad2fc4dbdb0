// Package testutils provides simplified testing utilities and helper functions
package testutils

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jzx17/asyncchain/pkg/types"
	"github.com/stretchr/testify/require"
)

// DefaultTimeout bounds every wait performed by the helpers
const DefaultTimeout = 5 * time.Second

// Context returns a context that is cancelled when the test ends or after
// DefaultTimeout
func Context(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	t.Cleanup(cancel)
	return ctx
}

// Recorder captures the terminal results delivered to a chain's final callback
type Recorder[T, E any] struct {
	mu      sync.Mutex
	results []types.Result[T, E]
	done    chan struct{}
	once    sync.Once
}

// NewRecorder creates an empty Recorder
func NewRecorder[T, E any]() *Recorder[T, E] {
	return &Recorder[T, E]{done: make(chan struct{})}
}

// Record is the final callback to hand to Finally
func (r *Recorder[T, E]) Record(result types.Result[T, E]) {
	r.mu.Lock()
	r.results = append(r.results, result)
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

// Calls returns how many times the callback ran
func (r *Recorder[T, E]) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

// Done is closed after the first recorded result
func (r *Recorder[T, E]) Done() <-chan struct{} {
	return r.done
}

// Last returns the terminal result, failing the test if none was recorded
func (r *Recorder[T, E]) Last(t testing.TB) types.Result[T, E] {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.results, "final callback was never invoked")
	return r.results[len(r.results)-1]
}

// Wait blocks until the callback ran or the timeout elapsed, then returns
// the terminal result
func (r *Recorder[T, E]) Wait(t testing.TB) types.Result[T, E] {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(DefaultTimeout):
		t.Fatalf("final callback not invoked within %v", DefaultTimeout)
	}
	return r.Last(t)
}
