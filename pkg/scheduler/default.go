package scheduler

import (
	"sync/atomic"

	"github.com/jzx17/asyncchain/pkg/types"
)

type holder struct {
	s types.Scheduler
}

var defaultScheduler atomic.Pointer[holder]

// SetDefault installs the process-wide scheduler used by chains that are
// finalized without an explicit scheduler. A nil s clears it.
func SetDefault(s types.Scheduler) {
	if s == nil {
		defaultScheduler.Store(nil)
		return
	}
	defaultScheduler.Store(&holder{s: s})
}

// Default returns the process-wide scheduler, or nil when none is set
func Default() types.Scheduler {
	if h := defaultScheduler.Load(); h != nil {
		return h.s
	}
	return nil
}

// Reset clears the process-wide scheduler
func Reset() {
	defaultScheduler.Store(nil)
}
