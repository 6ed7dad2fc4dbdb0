package chain

import (
	"context"
	"fmt"

	"github.com/jzx17/asyncchain/pkg/observe"
	"github.com/jzx17/asyncchain/pkg/retry"
	"github.com/jzx17/asyncchain/pkg/types"
)

// erased is the result type that travels between holders
type erased[E any] = types.Result[any, E]

// continuation carries a result to the rest of the chain
type continuation[E any] func(erased[E])

// holder drives one step. call must invoke cont exactly once, either before
// it returns or later from any goroutine.
type holder[E any] interface {
	call(r *run[E], idx int, cont continuation[E], cur erased[E])
	meta() stepMeta
}

type stepMeta struct {
	name string
	kind observe.StepKind
}

func (m stepMeta) meta() stepMeta {
	return m
}

func newStepMeta(kind observe.StepKind, idx int, opts []StepOption) stepMeta {
	cfg := &stepConfig{name: fmt.Sprintf("step-%d", idx)}
	for _, opt := range opts {
		opt(cfg)
	}
	return stepMeta{name: cfg.name, kind: kind}
}

func erase[T, E any](r types.Result[T, E]) erased[E] {
	switch {
	case r.IsErr():
		return types.Err[any, E](r.Err())
	case r.IsSeed():
		return types.Seed[any, E]()
	default:
		return types.Ok[any, E](r.Value())
	}
}

func restore[T, E any](r erased[E]) types.Result[T, E] {
	switch {
	case r.IsErr():
		return types.Err[T, E](r.Err())
	case r.IsSeed():
		return types.Seed[T, E]()
	}

	v := r.Value()
	if v == nil {
		var zero T
		return types.Ok[T, E](zero)
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("chain: step produced %T, next step expects %T", v, zero))
	}
	return types.Ok[T, E](t)
}

// plainHolder runs its step once on a successful input
type plainHolder[T, U, E any] struct {
	stepMeta
	step Step[T, U, E]
}

func (h *plainHolder[T, U, E]) call(r *run[E], idx int, cont continuation[E], cur erased[E]) {
	if cur.IsErr() {
		r.skip(idx, h.stepMeta)
		cont(cur)
		return
	}

	in := restore[T](cur)
	r.invoke(idx, h.stepMeta, 0, cont, func(ctx context.Context, next continuation[E]) {
		h.step(ctx, func(res types.Result[U, E]) { next(erase(res)) }, in)
	})
}

// catchHolder runs its step once on a failed input and passes successes
// through untouched
type catchHolder[T, E any] struct {
	stepMeta
	step CatchStep[T, E]
}

func (h *catchHolder[T, E]) call(r *run[E], idx int, cont continuation[E], cur erased[E]) {
	if !cur.IsErr() {
		r.skip(idx, h.stepMeta)
		cont(cur)
		return
	}

	in := restore[T](cur)
	r.invoke(idx, h.stepMeta, 0, cont, func(ctx context.Context, next continuation[E]) {
		h.step(ctx, func(res types.Result[T, E]) { next(erase(res)) }, in)
	})
}

// retryHolder reruns its step right away after a failure, up to maxRetries
// extra attempts
type retryHolder[U, E any] struct {
	stepMeta
	maxRetries uint
	step       RetryStep[U, E]
}

func (h *retryHolder[U, E]) call(r *run[E], idx int, cont continuation[E], cur erased[E]) {
	if cur.IsErr() {
		r.skip(idx, h.stepMeta)
		cont(cur)
		return
	}
	h.loop(r, idx, 0, cont)
}

// loop runs attempts from attempt onwards. Attempts that settle before the
// step returns are iterated here; a late settlement re-enters loop on the
// goroutine that delivered it.
func (h *retryHolder[U, E]) loop(r *run[E], idx int, attempt uint, cont continuation[E]) {
	for {
		n := attempt
		var f frame[E]
		h.attempt(r, idx, n, f.continuation(func(res erased[E]) {
			if settled(res, n, h.maxRetries) {
				cont(res)
				return
			}
			h.loop(r, idx, n+1, cont)
		}))

		res, ok := f.settle()
		if !ok {
			return
		}
		if settled(res, n, h.maxRetries) {
			cont(res)
			return
		}
		attempt++
	}
}

func (h *retryHolder[U, E]) attempt(r *run[E], idx int, n uint, next continuation[E]) {
	r.invoke(idx, h.stepMeta, n, next, func(ctx context.Context, next continuation[E]) {
		h.step(ctx, func(res types.Result[U, E]) { next(erase(res)) }, n)
	})
}

// delayedHolder hands each retry of a failed step to the run's scheduler
type delayedHolder[U, E any] struct {
	stepMeta
	maxRetries uint
	backoff    retry.Backoff
	step       RetryStep[U, E]
}

func (h *delayedHolder[U, E]) call(r *run[E], idx int, cont continuation[E], cur erased[E]) {
	if cur.IsErr() {
		r.skip(idx, h.stepMeta)
		cont(cur)
		return
	}
	h.attempt(r, idx, 0, cont)
}

func (h *delayedHolder[U, E]) attempt(r *run[E], idx int, n uint, cont continuation[E]) {
	var f frame[E]
	r.invoke(idx, h.stepMeta, n, f.continuation(func(res erased[E]) {
		h.after(r, idx, n, cont, res)
	}), func(ctx context.Context, next continuation[E]) {
		h.step(ctx, func(res types.Result[U, E]) { next(erase(res)) }, n)
	})

	if res, ok := f.settle(); ok {
		h.after(r, idx, n, cont, res)
	}
}

func (h *delayedHolder[U, E]) after(r *run[E], idx int, n uint, cont continuation[E], res erased[E]) {
	if settled(res, n, h.maxRetries) {
		cont(res)
		return
	}

	delay := h.backoff.NextDelay(n + 1)
	r.retryScheduled(idx, h.stepMeta, n+1, delay)
	r.scheduler.Schedule(func() {
		h.attempt(r, idx, n+1, cont)
	}, delay)
}

// settled reports whether a retrying holder is done after attempt n
func settled[E any](res erased[E], n, maxRetries uint) bool {
	return !res.IsErr() || n >= maxRetries
}
