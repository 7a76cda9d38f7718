// Package schedtest drives a schedule.Queue with a hand-advanced clock.
package schedtest

import (
	"time"

	"github.com/leandrodaf/continuator/internal/schedule"
)

// Epoch is the starting reading of every new Clock.
var Epoch = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

// Clock is a manual clock. It only moves when Advance or Set is called.
type Clock struct {
	t time.Time
}

// NewClock returns a clock reading Epoch.
func NewClock() *Clock {
	return &Clock{t: Epoch}
}

// Now returns the current reading.
func (c *Clock) Now() time.Time {
	return c.t
}

// Since returns the time elapsed since Epoch.
func (c *Clock) Since() time.Duration {
	return c.t.Sub(Epoch)
}

// Advance moves the clock forward by d, stopping at every pending deadline on
// the way so each task observes its own due time through Now.
func (c *Clock) Advance(q *schedule.Queue, d time.Duration) {
	c.Set(q, c.t.Add(d))
}

// Set moves the clock to target, running due tasks as Advance does.
func (c *Clock) Set(q *schedule.Queue, target time.Time) {
	for {
		next, ok := q.Next()
		if !ok || next.After(target) {
			break
		}
		if next.After(c.t) {
			c.t = next
		}
		q.RunDue(c.t)
	}
	c.t = target
}
