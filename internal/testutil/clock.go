// Package testutil provides deterministic helpers for statekit tests.
package testutil

import "sync"

// DeterministicClock is a thread-safe monotonic version counter for tests.
//
// Unlike hub.Clock it can be reset, so the same scenario can run multiple
// times with identical version numbers - a requirement for golden snapshot
// comparison.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock starting at 0.
// The first call to Next() returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next version number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current version without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Advance moves the clock forward to at least version. Used by scenarios
// that pin explicit versions so auto-assigned versions never collide.
func (c *DeterministicClock) Advance(version int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version > c.seq {
		c.seq = version
	}
}

// Reset resets the clock to 0. After Reset the next call to Next returns 1.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
