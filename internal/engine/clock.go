package engine

import "sync/atomic"

// Clock is a monotonic capture sequence counter. Every captured edge
// is stamped with a strictly increasing seq so that drops between
// capture and consumption are visible in diagnostics.
//
// Thread-safety: safe for concurrent use; the edge callback is the
// only caller of Next in practice.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the latest issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
