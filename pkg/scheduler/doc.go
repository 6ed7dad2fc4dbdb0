// Package scheduler provides implementations of types.Scheduler, the deferral
// mechanism used by delayed-retry chain steps, and the process-wide default
// scheduler.
//
// Three implementations are available:
//
//   - Immediate runs the task inline and ignores the delay
//   - Timer runs the task on its own goroutine after the delay
//   - Pool waits out the delay and then submits the task to a worker pool
//
// Cron is not a scheduler itself. It fires recurring tasks on cron
// expressions and hands each firing to one of the schedulers above.
//
// Basic usage:
//
//	s := scheduler.NewTimer()
//	defer s.Close()
//	scheduler.SetDefault(s)
//
// A scheduler given to chain.WithScheduler takes precedence over the default.
package scheduler
