package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant a DeterministicClock reports.
var Epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// DeterministicClock is a wall clock for tests that advances by a fixed
// step on every reading, so successive runs get distinct, reproducible
// timestamps.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	step time.Duration
	n    int64
}

// NewDeterministicClock creates a clock whose first reading is Epoch and
// which advances by one minute per reading.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{step: time.Minute}
}

// Now returns the next timestamp. Suitable as engine.Clock and as
// store.WithNow.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Readings returns how many times Now has been called.
func (c *DeterministicClock) Readings() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds the clock to Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
