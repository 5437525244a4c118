package expiringcache

import (
	"time"
)

// Clock is an interface for getting the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc is a function type that implements the Clock interface.
type ClockFunc func() time.Time

// Now calls the function.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock is the default clock that uses time.Now.
var SystemClock Clock = ClockFunc(time.Now)

// OffsetClock is a clock that shifts the current time by a fixed offset.
// A positive offset makes validity probes and eviction sweeps act as if time
// had already advanced, which evicts entries slightly before their deadline.
type OffsetClock struct {
	// Clock is the clock that provides the current time.
	Clock Clock

	// Offset is added to every reading of Clock.
	Offset time.Duration
}

var _ Clock = (*OffsetClock)(nil)

// Now returns the current time shifted by the offset.
func (c *OffsetClock) Now() time.Time {
	return c.Clock.Now().Add(c.Offset)
}
