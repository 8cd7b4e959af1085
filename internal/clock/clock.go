// Package clock provides the single game-time source shared by all engines.
package clock

import "math"

// SecondsPerDay is the length of one game-day in simulated seconds.
const SecondsPerDay = 600.0

// Clock accumulates scaled elapsed time. Time is monotonically increasing;
// day boundaries derive from it. Pure state, no goroutines.
type Clock struct {
	time  float64
	scale float64
}

// New creates a clock at time zero with the given scale (1.0 = real-time).
func New(scale float64) *Clock {
	if scale <= 0 {
		scale = 1.0
	}
	return &Clock{scale: scale}
}

// Advance adds delta*scale to the current time and returns the day numbers
// crossed by this advance, in order. A huge delta yields every skipped day so
// the daily cascade runs once per day rather than collapsing to the last one.
func (c *Clock) Advance(delta float64) []int {
	if delta <= 0 {
		return nil
	}
	before := c.Day()
	c.time += delta * c.scale
	after := c.Day()
	if after == before {
		return nil
	}
	crossed := make([]int, 0, after-before)
	for d := before + 1; d <= after; d++ {
		crossed = append(crossed, d)
	}
	return crossed
}

// Now returns the current simulated time in seconds.
func (c *Clock) Now() float64 { return c.time }

// Day returns the current day number.
func (c *Clock) Day() int { return int(math.Floor(c.time / SecondsPerDay)) }

// Scale returns the time scale multiplier.
func (c *Clock) Scale() float64 { return c.scale }

// SetScale changes the time scale. Non-positive values are ignored.
func (c *Clock) SetScale(scale float64) {
	if scale > 0 {
		c.scale = scale
	}
}

// Snapshot captures the clock state for persistence.
type Snapshot struct {
	Time  float64 `json:"time"`
	Scale float64 `json:"scale"`
}

// ToSnapshot returns the persistable clock state.
func (c *Clock) ToSnapshot() Snapshot {
	return Snapshot{Time: c.time, Scale: c.scale}
}

// FromSnapshot restores the clock from a snapshot.
func (c *Clock) FromSnapshot(s Snapshot) {
	c.time = s.Time
	c.scale = s.Scale
	if c.scale <= 0 {
		c.scale = 1.0
	}
}
