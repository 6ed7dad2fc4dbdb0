package chain

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jzx17/asyncchain/pkg/observe"
	"github.com/jzx17/asyncchain/pkg/retry"
	"github.com/jzx17/asyncchain/pkg/types"
)

// Next hands a step's result to the rest of the chain. It must be called
// exactly once per step invocation, from any goroutine.
type Next[T, E any] func(types.Result[T, E])

// Step consumes the current result and produces a result of a new type
type Step[T, U, E any] func(ctx context.Context, next Next[U, E], cur types.Result[T, E])

// RetryStep is invoked with the zero-based attempt number
type RetryStep[U, E any] func(ctx context.Context, next Next[U, E], attempt uint)

// CatchStep receives a failed result and may recover it with an Ok result
type CatchStep[T, E any] func(ctx context.Context, next Next[T, E], failed types.Result[T, E])

// Chain is an ordered list of steps whose current value type is T and whose
// error type is E. Appending a step consumes the chain and returns a new one;
// a consumed chain panics on further use.
type Chain[T, E any] struct {
	holders  []holder[E]
	seed     erased[E]
	consumed atomic.Bool
}

// Init creates an empty chain. The first step receives a seed result: Ok
// with the zero value of T, for which IsSeed reports true.
func Init[T, E any]() *Chain[T, E] {
	return &Chain[T, E]{seed: types.Seed[any, E]()}
}

// Start creates an empty chain whose first step receives Ok(value)
func Start[T, E any](value T) *Chain[T, E] {
	return &Chain[T, E]{seed: types.Ok[any, E](value)}
}

// Len returns the number of steps
func (c *Chain[T, E]) Len() int {
	return len(c.holders)
}

// take transfers the holder list out of c
func (c *Chain[T, E]) take() []holder[E] {
	if !c.consumed.CompareAndSwap(false, true) {
		panic(types.ErrChainConsumed)
	}
	return c.holders
}

func extend[T, U, E any](c *Chain[T, E], newHolder func(idx int) holder[E]) *Chain[U, E] {
	holders := c.take()
	return &Chain[U, E]{
		holders: append(holders, newHolder(len(holders))),
		seed:    c.seed,
	}
}

func mustStep(isNil bool, kind observe.StepKind) {
	if isNil {
		panic(fmt.Errorf("%w: %s", types.ErrNilStep, kind))
	}
}

// Then appends a step that runs when the current result is Ok. An Err
// result skips the step and flows on unchanged.
func Then[T, U, E any](c *Chain[T, E], step Step[T, U, E], opts ...StepOption) *Chain[U, E] {
	mustStep(step == nil, observe.KindThen)
	return extend[T, U](c, func(idx int) holder[E] {
		return &plainHolder[T, U, E]{
			stepMeta: newStepMeta(observe.KindThen, idx, opts),
			step:     step,
		}
	})
}

// ThenWithRetry appends a step that is rerun immediately after each failed
// attempt, up to maxRetries more times
func ThenWithRetry[T, U, E any](c *Chain[T, E], maxRetries uint, step RetryStep[U, E], opts ...StepOption) *Chain[U, E] {
	mustStep(step == nil, observe.KindRetry)
	return extend[T, U](c, func(idx int) holder[E] {
		return &retryHolder[U, E]{
			stepMeta:   newStepMeta(observe.KindRetry, idx, opts),
			maxRetries: maxRetries,
			step:       step,
		}
	})
}

// ThenWithRetryDelayed appends a step whose retries are handed to the
// scheduler with a fixed delay
func ThenWithRetryDelayed[T, U, E any](c *Chain[T, E], maxRetries uint, delay time.Duration, step RetryStep[U, E], opts ...StepOption) *Chain[U, E] {
	return ThenWithRetryBackoff[T](c, maxRetries, retry.Fixed(delay), step, opts...)
}

// ThenWithRetryBackoff appends a step whose retries are handed to the
// scheduler with delays taken from b
func ThenWithRetryBackoff[T, U, E any](c *Chain[T, E], maxRetries uint, b retry.Backoff, step RetryStep[U, E], opts ...StepOption) *Chain[U, E] {
	mustStep(step == nil, observe.KindRetryDelayed)
	if b == nil {
		panic("chain: backoff cannot be nil")
	}
	return extend[T, U](c, func(idx int) holder[E] {
		return &delayedHolder[U, E]{
			stepMeta:   newStepMeta(observe.KindRetryDelayed, idx, opts),
			maxRetries: maxRetries,
			backoff:    b,
			step:       step,
		}
	})
}

// Map appends a step that transforms an Ok value with fn
func Map[T, U, E any](c *Chain[T, E], fn func(T) U, opts ...StepOption) *Chain[U, E] {
	mustStep(fn == nil, observe.KindThen)
	return Then[T, U, E](c, func(_ context.Context, next Next[U, E], cur types.Result[T, E]) {
		next(types.Ok[U, E](fn(cur.Value())))
	}, opts...)
}

// Then appends a step that keeps the value type
func (c *Chain[T, E]) Then(step Step[T, T, E], opts ...StepOption) *Chain[T, E] {
	return Then(c, step, opts...)
}

// ThenWithRetry appends a retrying step that keeps the value type
func (c *Chain[T, E]) ThenWithRetry(maxRetries uint, step RetryStep[T, E], opts ...StepOption) *Chain[T, E] {
	return ThenWithRetry[T](c, maxRetries, step, opts...)
}

// ThenWithRetryDelayed appends a delayed retrying step that keeps the value type
func (c *Chain[T, E]) ThenWithRetryDelayed(maxRetries uint, delay time.Duration, step RetryStep[T, E], opts ...StepOption) *Chain[T, E] {
	return ThenWithRetryDelayed[T](c, maxRetries, delay, step, opts...)
}

// CatchError appends a step that runs only when the current result is Err.
// An Ok result passes through without invoking step.
func (c *Chain[T, E]) CatchError(step CatchStep[T, E], opts ...StepOption) *Chain[T, E] {
	mustStep(step == nil, observe.KindCatch)
	return extend[T, T](c, func(idx int) holder[E] {
		return &catchHolder[T, E]{
			stepMeta: newStepMeta(observe.KindCatch, idx, opts),
			step:     step,
		}
	})
}

// Finally consumes the chain and runs it, invoking callback exactly once
// with the terminal result. Steps that settle synchronously run on the
// calling goroutine before Finally returns; after a step settles
// asynchronously the rest of the chain runs on the goroutine that settled it.
//
// ctx is handed to every step. The chain does not observe its cancellation.
func (c *Chain[T, E]) Finally(ctx context.Context, callback func(types.Result[T, E]), opts ...RunOption) {
	if callback == nil {
		panic(fmt.Errorf("%w: final callback", types.ErrNilStep))
	}
	holders := c.take()
	r := newRun(ctx, holders, newRunConfig(ctx, opts), func(res erased[E]) {
		callback(restore[T](res))
	})
	r.start(c.seed)
}

// Await runs the chain and blocks until the terminal result is available or
// ctx is done. Giving up on ctx does not stop the chain.
func Await[T, E any](ctx context.Context, c *Chain[T, E], opts ...RunOption) (types.Result[T, E], error) {
	done := make(chan types.Result[T, E], 1)
	c.Finally(ctx, func(res types.Result[T, E]) {
		done <- res
	}, opts...)

	// a result delivered during Finally wins over a context that is already done
	select {
	case res := <-done:
		return res, nil
	default:
	}

	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		return types.Result[T, E]{}, ctx.Err()
	}
}
