// Package observe provides lifecycle hooks for chain runs: structured
// logging, Prometheus metrics and OpenTelemetry tracing.
package observe

import (
	"context"
	"time"
)

// StepKind identifies how a step is driven by its holder
type StepKind string

const (
	// KindThen runs once on a successful input
	KindThen StepKind = "then"
	// KindCatch runs once on a failed input
	KindCatch StepKind = "catch"
	// KindRetry retries immediately on failure
	KindRetry StepKind = "retry"
	// KindRetryDelayed retries through the scheduler on failure
	KindRetryDelayed StepKind = "retry_delayed"
)

// Event describes one point in a chain run. Fields that do not apply to a
// hook are left at their zero value.
type Event struct {
	// RunID identifies the run
	RunID string
	// Chain is the optional chain name given at Finally
	Chain string
	// Steps is the number of steps in the chain
	Steps int

	// Index is the step position, -1 for chain level events
	Index int
	// Step is the step name
	Step string
	// Kind is the step kind
	Kind StepKind
	// Attempt is the zero-based attempt of a retrying step
	Attempt uint
	// Delay is the backoff before a scheduled retry
	Delay time.Duration

	// Failed reports whether the step or chain produced an error result
	Failed bool
	// Err is the error payload when Failed is set
	Err any
	// Duration is the elapsed time of the step attempt or of the whole run
	Duration time.Duration
}

// Observer receives chain lifecycle events. Hooks may be called from any
// goroutine that resumes a chain, so implementations must be safe for
// concurrent use.
//
// ChainStarted and StepStarted return the context handed to the following
// hooks and, for StepStarted, to the step itself.
type Observer interface {
	ChainStarted(ctx context.Context, ev Event) context.Context
	StepStarted(ctx context.Context, ev Event) context.Context
	StepFinished(ctx context.Context, ev Event)
	StepSkipped(ctx context.Context, ev Event)
	RetryScheduled(ctx context.Context, ev Event)
	ChainFinished(ctx context.Context, ev Event)
}

// Nop is an Observer that ignores every event
type Nop struct{}

func (Nop) ChainStarted(ctx context.Context, _ Event) context.Context { return ctx }
func (Nop) StepStarted(ctx context.Context, _ Event) context.Context  { return ctx }
func (Nop) StepFinished(context.Context, Event)                       {}
func (Nop) StepSkipped(context.Context, Event)                        {}
func (Nop) RetryScheduled(context.Context, Event)                     {}
func (Nop) ChainFinished(context.Context, Event)                      {}

// Multi fans events out to several observers in order
type Multi []Observer

// NewMulti combines observers, dropping nil entries
func NewMulti(observers ...Observer) Observer {
	m := make(Multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return Nop{}
	case 1:
		return m[0]
	}
	return m
}

func (m Multi) ChainStarted(ctx context.Context, ev Event) context.Context {
	for _, o := range m {
		ctx = o.ChainStarted(ctx, ev)
	}
	return ctx
}

func (m Multi) StepStarted(ctx context.Context, ev Event) context.Context {
	for _, o := range m {
		ctx = o.StepStarted(ctx, ev)
	}
	return ctx
}

func (m Multi) StepFinished(ctx context.Context, ev Event) {
	for _, o := range m {
		o.StepFinished(ctx, ev)
	}
}

func (m Multi) StepSkipped(ctx context.Context, ev Event) {
	for _, o := range m {
		o.StepSkipped(ctx, ev)
	}
}

func (m Multi) RetryScheduled(ctx context.Context, ev Event) {
	for _, o := range m {
		o.RetryScheduled(ctx, ev)
	}
}

func (m Multi) ChainFinished(ctx context.Context, ev Event) {
	for _, o := range m {
		o.ChainFinished(ctx, ev)
	}
}
