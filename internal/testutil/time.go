package testutil

import (
	"sync"
	"time"
)

// SteppingClock returns a fixed start time that advances by a constant
// step on every call, so created_at stamps in a scenario are distinct but
// reproducible.
//
// The Now method matches the store's WithNow option. Thread-safe.
type SteppingClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int
}

// NewSteppingClock creates a clock starting at start, advancing by step on
// each call to Now.
func NewSteppingClock(start time.Time, step time.Duration) *SteppingClock {
	return &SteppingClock{start: start, step: step}
}

// Now returns start + calls*step and advances the clock.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Reset rewinds the clock to its start time.
func (c *SteppingClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
