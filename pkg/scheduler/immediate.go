package scheduler

import (
	"time"

	"github.com/jzx17/asyncchain/pkg/types"
)

// Immediate runs every task inline on the scheduling goroutine and ignores
// the delay. Useful for tests and demos that do not want to wait.
type Immediate struct{}

// Schedule runs task before returning
func (Immediate) Schedule(task func(), _ time.Duration) {
	task()
}

var _ types.Scheduler = Immediate{}
