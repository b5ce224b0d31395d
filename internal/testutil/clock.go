package testutil

import "sync"

// DeterministicClock provides a thread-safe monotonic logical clock for tests.
// It satisfies runner.Clock.
//
// Unlike runner.LogicalClock, DeterministicClock can be reset for test reuse.
// Running the same scenario twice from a reset clock yields identical timing.
type DeterministicClock struct {
	mu     sync.Mutex
	seq    int64
	stamps []int64
}

// NewDeterministicClock creates a new deterministic clock starting at 0.
// The first call to Next() returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next stamp.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.stamps = append(c.stamps, c.seq)
	return c.seq
}

// Current returns the last stamp handed out, or 0.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Calls reports how many stamps have been handed out since the last Reset.
func (c *DeterministicClock) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stamps)
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
	c.stamps = nil
}
