package clock

import "time"

// Clock supplies the current instant. The booking engine never reads the system clock directly.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f).UTC() }

// Func adapts a function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f().UTC() }

// Today returns midnight UTC of the clock's current date.
func Today(c Clock) time.Time {
	if c == nil {
		c = System{}
	}
	now := c.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
