// Package chain sequences asynchronous, fallible steps.
//
// A chain is built by appending steps. Each step receives the current result
// and a next callback that it must call exactly once, either before it
// returns or later from another goroutine:
//
//	c := chain.Init[int, string]()
//	c2 := chain.Then(c, func(ctx context.Context, next chain.Next[int, string], _ types.Result[int, string]) {
//		next(types.Ok[int, string](10))
//	})
//	c3 := c2.Then(func(ctx context.Context, next chain.Next[int, string], cur types.Result[int, string]) {
//		next(types.Ok[int, string](cur.Value() + 5))
//	})
//	c3.Finally(ctx, func(res types.Result[int, string]) {
//		fmt.Println(res) // Ok(15)
//	})
//
// An Err result skips every following step except catch steps, which are
// the only way back to Ok. ThenWithRetry reruns a failing step right away;
// ThenWithRetryDelayed and ThenWithRetryBackoff hand each retry to a
// types.Scheduler, taken from WithScheduler or the process-wide default.
//
// Appending to a chain or finalizing it consumes it. Reusing a consumed
// chain panics with types.ErrChainConsumed.
package chain
