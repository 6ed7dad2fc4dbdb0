// Package retry provides the backoff strategies used by delayed retry steps
package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes the delay before a retry. Attempt is the zero-based index
// of the attempt about to run, so the first retry asks for NextDelay(1).
// Implementations must be safe for concurrent use since one backoff may be
// shared by chains running on several goroutines.
type Backoff interface {
	NextDelay(attempt uint) time.Duration
}

// BackoffFunc adapts an ordinary function to the Backoff interface
type BackoffFunc func(attempt uint) time.Duration

// NextDelay calls f(attempt)
func (f BackoffFunc) NextDelay(attempt uint) time.Duration {
	return f(attempt)
}

// FixedBackoff waits the same delay before every retry
type FixedBackoff struct {
	delay  time.Duration
	jitter JitterFunc
}

// Fixed creates a fixed backoff strategy
func Fixed(delay time.Duration, opts ...Option) *FixedBackoff {
	cfg := applyOptions(opts)
	return &FixedBackoff{
		delay:  delay,
		jitter: cfg.jitter,
	}
}

// NextDelay calculates the delay for the next retry
func (b *FixedBackoff) NextDelay(attempt uint) time.Duration {
	return applyJitter(b.jitter, b.delay)
}

// ExponentialBackoff multiplies the delay after every retry
type ExponentialBackoff struct {
	initialDelay time.Duration
	multiplier   float64
	maxDelay     time.Duration
	jitter       JitterFunc
}

// Exponential creates an exponential backoff strategy
func Exponential(initialDelay time.Duration, opts ...Option) *ExponentialBackoff {
	cfg := applyOptions(opts)
	b := &ExponentialBackoff{
		initialDelay: initialDelay,
		multiplier:   2.0,
		maxDelay:     30 * time.Second,
		jitter:       cfg.jitter,
	}
	if cfg.multiplier != nil {
		b.multiplier = *cfg.multiplier
	}
	if cfg.maxDelay != nil {
		b.maxDelay = *cfg.maxDelay
	}
	return b
}

// NextDelay calculates the delay for the next retry
func (b *ExponentialBackoff) NextDelay(attempt uint) time.Duration {
	if attempt == 0 {
		attempt = 1
	}

	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt-1))
	if delay > float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}

	return applyJitter(b.jitter, time.Duration(delay))
}

// LinearBackoff grows the delay by a fixed increment after every retry
type LinearBackoff struct {
	initialDelay time.Duration
	increment    time.Duration
	maxDelay     time.Duration
	jitter       JitterFunc
}

// Linear creates a linear backoff strategy
func Linear(initialDelay, increment time.Duration, opts ...Option) *LinearBackoff {
	cfg := applyOptions(opts)
	b := &LinearBackoff{
		initialDelay: initialDelay,
		increment:    increment,
		maxDelay:     30 * time.Second,
		jitter:       cfg.jitter,
	}
	if cfg.maxDelay != nil {
		b.maxDelay = *cfg.maxDelay
	}
	return b
}

// NextDelay calculates the delay for the next retry
func (b *LinearBackoff) NextDelay(attempt uint) time.Duration {
	if attempt == 0 {
		attempt = 1
	}

	// clamp on the step count so the product cannot overflow
	delay := b.maxDelay
	switch {
	case b.initialDelay >= b.maxDelay:
	case b.increment <= 0:
		delay = b.initialDelay
	case uint64(attempt-1) <= uint64((b.maxDelay-b.initialDelay)/b.increment):
		delay = b.initialDelay + time.Duration(attempt-1)*b.increment
	}

	return applyJitter(b.jitter, delay)
}

// FibonacciBackoff scales the base delay by the Fibonacci sequence
type FibonacciBackoff struct {
	baseDelay time.Duration
	maxDelay  time.Duration
	jitter    JitterFunc
}

// Fibonacci creates a fibonacci backoff strategy
func Fibonacci(baseDelay time.Duration, opts ...Option) *FibonacciBackoff {
	cfg := applyOptions(opts)
	b := &FibonacciBackoff{
		baseDelay: baseDelay,
		maxDelay:  30 * time.Second,
		jitter:    cfg.jitter,
	}
	if cfg.maxDelay != nil {
		b.maxDelay = *cfg.maxDelay
	}
	return b
}

// NextDelay calculates the delay for the next retry
func (b *FibonacciBackoff) NextDelay(attempt uint) time.Duration {
	if attempt == 0 {
		attempt = 1
	}

	delay := b.baseDelay
	if b.baseDelay > 0 {
		// largest factor whose product stays within maxDelay
		limit := int64(b.maxDelay / b.baseDelay)
		prev, cur := int64(1), int64(1)
		for i := uint(1); i < attempt; i++ {
			prev, cur = cur, prev+cur
			if prev > limit || prev < 0 {
				delay = b.maxDelay
				break
			}
			delay = time.Duration(prev) * b.baseDelay
		}
	}
	if delay > b.maxDelay {
		delay = b.maxDelay
	}

	return applyJitter(b.jitter, delay)
}

// JitterFunc jitter function type
type JitterFunc func(time.Duration) time.Duration

// FullJitter full jitter function - random within [0, delay) range
func FullJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(delay)))
}

// EqualJitter equal jitter function - delay/2 + random(0, delay/2)
func EqualJitter(delay time.Duration) time.Duration {
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + time.Duration(rand.Int64N(int64(half)))
}

func applyJitter(jitter JitterFunc, delay time.Duration) time.Duration {
	if jitter == nil {
		return delay
	}
	return jitter(delay)
}

// Option configures a backoff strategy
type Option func(*options)

type options struct {
	multiplier *float64
	maxDelay   *time.Duration
	jitter     JitterFunc
}

func applyOptions(opts []Option) options {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMultiplier sets backoff multiplier (exponential backoff only)
func WithMultiplier(multiplier float64) Option {
	return func(o *options) {
		o.multiplier = &multiplier
	}
}

// WithMaxDelay sets maximum delay time
func WithMaxDelay(maxDelay time.Duration) Option {
	return func(o *options) {
		o.maxDelay = &maxDelay
	}
}

// WithJitter sets jitter function
func WithJitter(jitter JitterFunc) Option {
	return func(o *options) {
		o.jitter = jitter
	}
}
