// Package retry provides the backoff strategies behind delayed chain retries.
//
// A delayed retry step asks its Backoff for the delay before every retry and
// hands the next attempt to the chain's scheduler with that delay:
//
//	c := chain.ThenWithRetryBackoff(prev, 5,
//		retry.Exponential(100*time.Millisecond, retry.WithMaxDelay(5*time.Second)),
//		fetch)
//
// Available strategies:
//   - Fixed: same delay every time (used by chain.ThenWithRetryDelayed)
//   - Linear: initial delay plus a fixed increment per retry
//   - Exponential: initial delay times multiplier^(attempt-1)
//   - Fibonacci: base delay times the Fibonacci sequence
//
// Every strategy accepts WithMaxDelay and WithJitter; Exponential also takes
// WithMultiplier. FullJitter and EqualJitter are ready-made jitter functions.
//
// Strategies are stateless and safe for concurrent use.
package retry
