package testfixtures

import (
	"sync"
	"time"

	"github.com/example/room-reservations/internal/booking"
)

// Clock is a controllable time source. It reads in UTC, the zone the
// fixtures and the test configurations use.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock set to start, or to ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for injection into services.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Today is the calendar day the clock is on.
func (c *Clock) Today() booking.Date {
	return booking.DateOf(c.Now().UTC())
}

// SetAt moves the clock to the given clock time of day, e.g. "08:50".
func (c *Clock) SetAt(day booking.Date, clock string) time.Time {
	at := day.At(booking.MustParseClock(clock), time.UTC)
	c.mu.Lock()
	c.current = at
	c.mu.Unlock()
	return at
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}
