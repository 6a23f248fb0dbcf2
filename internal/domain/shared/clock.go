package shared

import "time"

// Clock abstracts wall-clock access so date-dependent resolution stays
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time
type SystemClock struct{}

// Now implements Clock
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always reports the same instant
type FixedClock struct {
	Instant time.Time
}

// Now implements Clock
func (c FixedClock) Now() time.Time {
	return c.Instant
}
