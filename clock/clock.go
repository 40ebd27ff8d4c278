// Package clock provides the single monotonic presentation-timestamp
// timebase shared by every capture producer in camcore.
package clock

import "time"

// PTS is a monotonic clock shared by cheap clone between capture producers.
// All PTS values derived from one PTS value (or its clones) are directly
// comparable, regardless of which producer sampled them.
type PTS struct {
	start time.Time
}

// New creates a PTS clock with the current instant as time zero.
func New() PTS {
	return PTS{start: time.Now()}
}

// FromStart builds a PTS clock sharing an existing start instant, letting an
// unrelated component (e.g. a session opened earlier) contribute timestamps
// on the same timebase.
func FromStart(start time.Time) PTS {
	return PTS{start: start}
}

// Now returns the elapsed time since the clock's start, in seconds.
// Successive calls are non-decreasing because time.Since uses the
// monotonic reading embedded in start.
func (c PTS) Now() float64 {
	return time.Since(c.start).Seconds()
}

// At returns the PTS value for an arbitrary instant on this clock's
// timebase. The instant should be at or after Start().
func (c PTS) At(t time.Time) float64 {
	return t.Sub(c.start).Seconds()
}

// Start returns the clock's zero instant, for sharing with another PTS value
// via FromStart.
func (c PTS) Start() time.Time {
	return c.start
}
