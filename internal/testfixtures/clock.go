package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manually driven time source. Services receive NowFunc so that
// notice windows and booking horizons can be pinned in tests.
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

// NewClockAt returns a clock set to the given wall time in loc.
func NewClockAt(loc *time.Location, year int, month time.Month, day, hour, minute int) *Clock {
	return NewClock(time.Date(year, month, day, hour, minute, 0, 0, loc))
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc returns Now as an injectable function. A nil clock yields time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// In returns the current instant viewed in loc.
func (c *Clock) In(loc *time.Location) time.Time {
	return c.Now().In(loc)
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// AdvanceDays moves the clock by whole calendar days in loc, keeping the local
// wall time across DST transitions.
func (c *Clock) AdvanceDays(loc *time.Location, days int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	local := c.current.In(loc)
	c.current = local.AddDate(0, 0, days)
	return c.current
}
