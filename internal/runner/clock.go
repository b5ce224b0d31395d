package runner

import "sync/atomic"

// Clock stamps actor calls and returns with logical time.
type Clock interface {
	Next() int64
}

// LogicalClock is a monotonic counter. The first call to Next returns 1.
//
// Stamps order events within one run only; no wall-clock time is recorded,
// so repeated runs of the same schedule produce identical timings.
type LogicalClock struct {
	seq atomic.Int64
}

// NewLogicalClock creates a clock starting at 0.
func NewLogicalClock() *LogicalClock {
	return &LogicalClock{}
}

// Next returns the next timestamp.
func (c *LogicalClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last timestamp handed out.
func (c *LogicalClock) Current() int64 {
	return c.seq.Load()
}
