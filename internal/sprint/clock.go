package sprint

import "time"

// Clock derives elapsed sprint time from the stored sprint start and a wall
// clock. Elapsed time is recomputed on every tick, so reopening a session
// after a gap picks up exactly where the wall clock says the sprint is.
type Clock struct {
	start    time.Time
	now      func() time.Time
	schedule Schedule
	elapsed  time.Duration
}

// NewClock creates a clock for a sprint that started at start
func NewClock(start time.Time, now func() time.Time, schedule Schedule) *Clock {
	if now == nil {
		now = time.Now
	}
	if schedule == nil {
		schedule = DefaultSchedule()
	}
	c := &Clock{start: start, now: now, schedule: schedule}
	c.Tick()
	return c
}

// Tick advances elapsed time to the current wall clock, clamped to the sprint
// duration. Elapsed time never moves backwards.
func (c *Clock) Tick() time.Duration {
	e := c.now().Sub(c.start)
	if e < 0 {
		e = 0
	}
	if e > SprintDuration {
		e = SprintDuration
	}
	if e > c.elapsed {
		c.elapsed = e
	}
	return c.elapsed
}

// Now returns the wall clock reading
func (c *Clock) Now() time.Time { return c.now() }

// Start returns the sprint start instant
func (c *Clock) Start() time.Time { return c.start }

// Elapsed returns elapsed time as of the last tick
func (c *Clock) Elapsed() time.Duration { return c.elapsed }

// ElapsedMinutes returns whole elapsed minutes as of the last tick
func (c *Clock) ElapsedMinutes() int { return int(c.elapsed / time.Minute) }

// Remaining returns the time left in the sprint
func (c *Clock) Remaining() time.Duration { return SprintDuration - c.elapsed }

// Finished reports whether the sprint has run its full duration
func (c *Clock) Finished() bool { return c.elapsed >= SprintDuration }

// CurrentPhase returns the schedule entry in effect
func (c *Clock) CurrentPhase() PhaseEntry { return c.schedule.PhaseAt(c.elapsed) }

// NextPhase returns the next schedule entry, if any
func (c *Clock) NextPhase() (PhaseEntry, bool) { return c.schedule.NextAfter(c.elapsed) }

// At converts a sprint offset into a wall clock instant
func (c *Clock) At(offset time.Duration) time.Time { return c.start.Add(offset) }

// TimeRemaining returns how long until deadline, never negative
func TimeRemaining(deadline, now time.Time) time.Duration {
	if d := deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}
