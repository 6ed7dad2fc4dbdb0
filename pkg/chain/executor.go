package chain

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jzx17/asyncchain/pkg/observe"
	"github.com/jzx17/asyncchain/pkg/types"
)

// run is the state of one execution of a chain
type run[E any] struct {
	ctx       context.Context
	id        string
	name      string
	holders   []holder[E]
	final     func(erased[E])
	scheduler types.Scheduler
	observer  observe.Observer
	onPanic   func(*types.StepError) E
	clock     types.Clock
	started   time.Time
}

func newRun[E any](ctx context.Context, holders []holder[E], cfg *runConfig, final func(erased[E])) *run[E] {
	r := &run[E]{
		ctx:       ctx,
		id:        cfg.runID,
		name:      cfg.name,
		holders:   holders,
		final:     final,
		scheduler: cfg.scheduler,
		observer:  cfg.observer,
		clock:     cfg.clock,
	}
	if r.id == "" {
		r.id = uuid.NewString()
	}

	if cfg.panicHandler != nil {
		h, ok := cfg.panicHandler.(func(*types.StepError) E)
		if !ok {
			var zero E
			panic(fmt.Sprintf("chain: panic handler %T does not produce the chain error type %T", cfg.panicHandler, zero))
		}
		r.onPanic = h
	}

	if r.scheduler == nil {
		for _, h := range holders {
			if m := h.meta(); m.kind == observe.KindRetryDelayed {
				panic(fmt.Errorf("%w: delayed retry step %q needs a scheduler", types.ErrSchedulerNotConfigured, m.name))
			}
		}
	}
	return r
}

func (r *run[E]) event(idx int) observe.Event {
	return observe.Event{
		RunID: r.id,
		Chain: r.name,
		Steps: len(r.holders),
		Index: idx,
	}
}

func (r *run[E]) stepEvent(idx int, m stepMeta) observe.Event {
	ev := r.event(idx)
	ev.Step = m.name
	ev.Kind = m.kind
	return ev
}

func outcome[E any](res erased[E]) (bool, any) {
	if res.IsErr() {
		return true, res.Err()
	}
	return false, nil
}

func (r *run[E]) start(seed erased[E]) {
	r.ctx = r.observer.ChainStarted(r.ctx, r.event(-1))
	r.started = r.clock.Now()
	r.drive(0, seed)
}

// drive walks the holders from idx. A holder that settles before its call
// returns is followed by the next iteration of the loop; one that settles
// later resumes drive on the settling goroutine.
func (r *run[E]) drive(idx int, cur erased[E]) {
	for idx < len(r.holders) {
		next := idx + 1
		var f frame[E]
		r.holders[idx].call(r, idx, f.continuation(func(res erased[E]) {
			r.drive(next, res)
		}), cur)

		res, ok := f.settle()
		if !ok {
			return
		}
		idx, cur = next, res
	}
	r.finish(cur)
}

func (r *run[E]) finish(res erased[E]) {
	ev := r.event(-1)
	ev.Duration = r.clock.Since(r.started)
	ev.Failed, ev.Err = outcome(res)
	r.observer.ChainFinished(r.ctx, ev)
	r.final(res)
}

func (r *run[E]) skip(idx int, m stepMeta) {
	r.observer.StepSkipped(r.ctx, r.stepEvent(idx, m))
}

func (r *run[E]) retryScheduled(idx int, m stepMeta, attempt uint, delay time.Duration) {
	ev := r.stepEvent(idx, m)
	ev.Attempt = attempt
	ev.Delay = delay
	r.observer.RetryScheduled(r.ctx, ev)
}

// invoke runs one attempt of a step. fn receives the step context and a
// next callback that reports the attempt and forwards its result to cont.
func (r *run[E]) invoke(idx int, m stepMeta, attempt uint, cont continuation[E], fn func(context.Context, continuation[E])) {
	ev := r.stepEvent(idx, m)
	ev.Attempt = attempt
	ctx := r.observer.StepStarted(r.ctx, ev)
	started := r.clock.Now()

	var called atomic.Bool
	next := func(res erased[E]) {
		if called.Swap(true) {
			panic(fmt.Errorf("%w: step %d (%s)", types.ErrContinuationReused, idx, m.name))
		}
		done := ev
		done.Duration = r.clock.Since(started)
		done.Failed, done.Err = outcome(res)
		r.observer.StepFinished(ctx, done)
		cont(res)
	}

	if r.onPanic == nil {
		fn(ctx, next)
		return
	}

	defer func() {
		v := recover()
		if v == nil {
			return
		}
		// a step that already handed on its result cannot be failed again
		if called.Load() {
			panic(v)
		}
		err := types.NewStepError(idx, m.name, &types.PanicError{Value: v})
		next(types.Err[any, E](r.onPanic(err)))
	}()
	fn(ctx, next)
}

// frame records whether a continuation fired before the call that received
// it returned, which lets drive loop instead of recursing
type frame[E any] struct {
	mu       sync.Mutex
	returned bool
	invoked  bool
	pending  bool
	result   erased[E]
}

func (f *frame[E]) continuation(resume continuation[E]) continuation[E] {
	return func(res erased[E]) {
		f.mu.Lock()
		if f.invoked {
			f.mu.Unlock()
			panic(types.ErrContinuationReused)
		}
		f.invoked = true
		if !f.returned {
			f.result = res
			f.pending = true
			f.mu.Unlock()
			return
		}
		f.mu.Unlock()
		resume(res)
	}
}

// settle marks the call as returned and yields a result delivered during it
func (f *frame[E]) settle() (erased[E], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.returned = true
	return f.result, f.pending
}
