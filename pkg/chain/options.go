package chain

import (
	"context"
	"time"

	"github.com/jzx17/asyncchain/pkg/observe"
	"github.com/jzx17/asyncchain/pkg/scheduler"
	"github.com/jzx17/asyncchain/pkg/types"
)

// StepOption configures a single step when it is appended
type StepOption func(*stepConfig)

type stepConfig struct {
	name string
}

// Named labels the step for logs, metrics and spans
func Named(name string) StepOption {
	return func(c *stepConfig) {
		c.name = name
	}
}

// RunOption configures one execution started by Finally or Await
type RunOption func(*runConfig)

type runConfig struct {
	scheduler    types.Scheduler
	observer     observe.Observer
	panicHandler any
	runID        string
	name         string
	clock        types.Clock
}

func newRunConfig(ctx context.Context, opts []RunOption) *runConfig {
	cfg := &runConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.scheduler == nil {
		cfg.scheduler = scheduler.Default()
	}
	if cfg.observer == nil {
		cfg.observer = observe.Nop{}
	}
	if cfg.clock == nil {
		cfg.clock = types.ClockFromContext(ctx)
	}
	return cfg
}

// WithScheduler sets the scheduler for delayed retries of this run,
// overriding the process-wide default
func WithScheduler(s types.Scheduler) RunOption {
	return func(c *runConfig) {
		c.scheduler = s
	}
}

// WithObserver attaches lifecycle observers to the run
func WithObserver(observers ...observe.Observer) RunOption {
	return func(c *runConfig) {
		if c.observer != nil {
			observers = append([]observe.Observer{c.observer}, observers...)
		}
		c.observer = observe.NewMulti(observers...)
	}
}

// WithPanicHandler recovers panicking steps. The handler maps the recovered
// panic to the chain's error type and the run continues with that error.
// Without a handler a panicking step unwinds the goroutine that drove it.
func WithPanicHandler[E any](h func(err *types.StepError) E) RunOption {
	return func(c *runConfig) {
		c.panicHandler = h
	}
}

// WithRunID overrides the generated run ID
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithName names the chain for observers
func WithName(name string) RunOption {
	return func(c *runConfig) {
		c.name = name
	}
}

// WithClock sets the clock used to time steps. Defaults to the clock stored
// in the context passed to Finally.
func WithClock(clock types.Clock) RunOption {
	return func(c *runConfig) {
		c.clock = clock
	}
}

// SetScheduler installs fn as the process-wide scheduler. It must be set, or
// WithScheduler given, before a chain with delayed retries is finalized.
func SetScheduler(fn func(task func(), delay time.Duration)) {
	if fn == nil {
		scheduler.Reset()
		return
	}
	scheduler.SetDefault(types.SchedulerFunc(fn))
}
