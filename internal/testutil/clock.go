package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start of a FixedTime: 2024-01-01T00:00:00Z.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// FixedTime is a deterministic wall clock for run timestamps.
//
// Each call to Now advances by a fixed step, so the same scenario run
// twice stamps identical created_at values.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedTime struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int64
}

// NewFixedTime creates a clock whose first Now returns start.
// A zero start uses Epoch.
func NewFixedTime(start time.Time, step time.Duration) *FixedTime {
	if start.IsZero() {
		start = Epoch
	}
	return &FixedTime{start: start, step: step}
}

// Now returns start + n*step for the n-th call, counting from zero.
func (c *FixedTime) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Reset rewinds the clock so the next Now returns start again.
func (c *FixedTime) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
