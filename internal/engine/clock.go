package engine

// Clock hands out the seqs stamped on derivations and node outcomes.
//
// One clock serves one engine, and completion runs on a single goroutine,
// so Clock has no locking. Seqs are never reused, even for records a
// fallback discards.
type Clock struct {
	last int64
}

// NewClock returns a clock whose first seq is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first seq is last+1. Pass the highest
// seq already stored to keep a history database free of duplicates.
func NewClockAt(last int64) *Clock {
	return &Clock{last: last}
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	c.last++
	return c.last
}

// Current returns the last seq handed out, or the starting point.
func (c *Clock) Current() int64 {
	return c.last
}
