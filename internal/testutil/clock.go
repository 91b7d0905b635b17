// Package testutil provides deterministic doubles shared by engine
// tests: a settable wall clock, alongside the fixed id sequences in
// the ident package.
package testutil

import (
	"sync"
	"time"
)

// FixedClock is a thread-safe, manually advanced time source.
//
// Engines accept a now func; tests install clock.Now to pin cache TTL
// expiry and time-window evaluation.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock pinned to t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the current pinned time.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
