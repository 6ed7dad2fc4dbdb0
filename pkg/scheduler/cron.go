package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jzx17/asyncchain/pkg/types"
	"github.com/robfig/cron/v3"
)

// Cron fires tasks on cron expressions. Each firing is handed to a target
// scheduler with zero delay, so recurring chain runs can share a worker pool
// with resumed retries.
//
// Expressions take an optional leading seconds field and the usual
// descriptors:
//
//	"*/5 * * * * *"  every five seconds
//	"0 30 9 * * 1-5" 9:30 on weekdays
//	"@every 1m"      once a minute
type Cron struct {
	cron    *cron.Cron
	parser  cron.Parser
	target  types.Scheduler
	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewCron creates a cron trigger feeding target. A nil target runs tasks on
// the cron goroutine.
func NewCron(target types.Scheduler) *Cron {
	if target == nil {
		target = Immediate{}
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Cron{
		cron:    cron.New(cron.WithParser(parser)),
		parser:  parser,
		target:  target,
		entries: make(map[string]cron.EntryID),
	}
}

// Add registers task under id. Adding an id twice is an error.
func (c *Cron) Add(id, expr string, task func()) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if id == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	schedule, err := c.parser.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[id]; exists {
		return fmt.Errorf("task %q already scheduled", id)
	}
	c.entries[id] = c.cron.Schedule(schedule, cron.FuncJob(func() {
		c.target.Schedule(task, 0)
	}))
	return nil
}

// Remove unregisters id and reports whether it was present
func (c *Cron) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[id]
	if !ok {
		return false
	}
	c.cron.Remove(entry)
	delete(c.entries, id)
	return true
}

// Next returns the next firing time of id. It is zero until Start.
func (c *Cron) Next(id string) (time.Time, error) {
	c.mu.Lock()
	entry, ok := c.entries[id]
	c.mu.Unlock()
	if !ok {
		return time.Time{}, fmt.Errorf("task %q not found", id)
	}
	return c.cron.Entry(entry).Next, nil
}

// Len returns the number of registered tasks
func (c *Cron) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Start begins firing tasks in the background
func (c *Cron) Start() {
	c.cron.Start()
}

// Stop halts the trigger. The returned context is done once running
// firings have handed their tasks to the target.
func (c *Cron) Stop() context.Context {
	return c.cron.Stop()
}
