package audio

import "time"

// Clock abstracts wall-clock reads so transport timing can be tested
// without sleeping. The zero value is not usable; use SystemClock.
type Clock struct {
	now func() time.Time
}

// SystemClock reads the real time.
var SystemClock = Clock{now: time.Now}

// NewClock builds a clock over a custom time source.
func NewClock(now func() time.Time) Clock {
	return Clock{now: now}
}

// Now returns the current instant.
func (c Clock) Now() time.Time {
	return c.now()
}

// ElapsedSince returns seconds elapsed since the given instant.
func (c Clock) ElapsedSince(t time.Time) float64 {
	return c.now().Sub(t).Seconds()
}
