package grove

import "time"

// Clock measures the time between frames. The first tick has a zero delta.
type Clock struct {
	now   func() time.Time
	step  time.Duration
	last  time.Time
	begun bool

	delta time.Duration
	total time.Duration
	frame uint64
}

// NewClock returns a wall clock.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewFixedClock returns a clock that advances by step on every tick after the
// first, independent of real time. Useful for tests and replays.
func NewFixedClock(step time.Duration) *Clock {
	return &Clock{step: step}
}

// newClockFunc returns a clock reading time from now.
func newClockFunc(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Tick advances the clock by one frame and returns the new delta.
func (c *Clock) Tick() time.Duration {
	c.frame++
	if !c.begun {
		c.begun = true
		if c.now != nil {
			c.last = c.now()
		}
		c.delta = 0
		return 0
	}
	if c.now == nil {
		c.delta = c.step
	} else {
		t := c.now()
		c.delta = t.Sub(c.last)
		c.last = t
		if c.delta < 0 {
			c.delta = 0
		}
	}
	c.total += c.delta
	return c.delta
}

// Delta returns the time between the last two ticks.
func (c *Clock) Delta() time.Duration { return c.delta }

// DeltaSeconds returns Delta in seconds, the unit tweens advance in.
func (c *Clock) DeltaSeconds() float32 { return float32(c.delta.Seconds()) }

// Total returns the accumulated time since the first tick.
func (c *Clock) Total() time.Duration { return c.total }

// Frame returns the number of ticks so far.
func (c *Clock) Frame() uint64 { return c.frame }
