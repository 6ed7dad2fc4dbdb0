package scheduler

import (
	"sync"
	"time"

	"github.com/jzx17/asyncchain/pkg/types"
)

// Timer runs each task on its own goroutine once the delay has elapsed on
// the configured clock
type Timer struct {
	clock   types.Clock
	onClose types.ErrorHandler

	mu      sync.Mutex
	pending map[uint64]types.Timer
	nextID  uint64
	closed  bool
}

// WithClock sets the clock used to measure delays
func WithClock(clock types.Clock) types.Option[*Timer] {
	return func(t *Timer) {
		t.clock = clock
	}
}

// WithRejectHandler receives ErrSchedulerClosed for tasks scheduled after
// Close. Without a handler such tasks are dropped.
func WithRejectHandler(h types.ErrorHandler) types.Option[*Timer] {
	return func(t *Timer) {
		t.onClose = h
	}
}

// NewTimer creates a timer scheduler backed by the real clock unless
// WithClock is given
func NewTimer(opts ...types.Option[*Timer]) *Timer {
	t := &Timer{
		clock:   types.NewRealClock(),
		pending: make(map[uint64]types.Timer),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Schedule arms a timer that runs task after delay
func (t *Timer) Schedule(task func(), delay time.Duration) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		if t.onClose != nil {
			t.onClose(types.ErrSchedulerClosed)
		}
		return
	}
	id := t.nextID
	t.nextID++
	t.pending[id] = nil
	t.mu.Unlock()

	// the lock is not held across AfterFunc: a clock may fire zero delays inline
	timer := t.clock.AfterFunc(delay, func() {
		t.mu.Lock()
		_, armed := t.pending[id]
		delete(t.pending, id)
		t.mu.Unlock()
		if armed {
			task()
		}
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, armed := t.pending[id]; armed {
		t.pending[id] = timer
	} else if t.closed {
		timer.Stop()
	}
}

// Pending reports how many tasks are armed but have not started
func (t *Timer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Close stops every pending timer. Chains waiting on a stopped task never
// complete.
func (t *Timer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	for id, timer := range t.pending {
		if timer != nil {
			timer.Stop()
		}
		delete(t.pending, id)
	}
	return nil
}

var _ types.Scheduler = (*Timer)(nil)
