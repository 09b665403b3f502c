// Package testutil holds shared test helpers.
package testutil

import (
	"sync"
	"time"
)

// Clock is a thread-safe manual time source for store tests.
//
// Tests that assert on ingest timestamps or prune boundaries plug
// Clock.Now into the store and move time explicitly, so the same
// scenario produces identical timestamps on every run.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current clock time without advancing it.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t. Going backwards is allowed; the store
// never assumes strictly increasing timestamps.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
