package idle

import (
	"math"
	"time"
)

// Deadline reports the time left in the current idle slice.
type Deadline interface {
	TimeRemaining() time.Duration
	DidTimeout() bool
}

// sliceDeadline ends at a fixed wall-clock instant.
type sliceDeadline struct {
	end      time.Time
	timedOut bool
	now      func() time.Time
}

func (d *sliceDeadline) TimeRemaining() time.Duration {
	remaining := d.end.Sub(d.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (d *sliceDeadline) DidTimeout() bool {
	return d.timedOut
}

// NewDeadline returns a deadline that expires budget from now.
func NewDeadline(budget time.Duration) Deadline {
	return &sliceDeadline{end: time.Now().Add(budget), now: time.Now}
}

type unbounded struct{}

func (unbounded) TimeRemaining() time.Duration { return time.Duration(math.MaxInt64) }
func (unbounded) DidTimeout() bool             { return false }

// Unbounded returns a deadline that never runs out.
func Unbounded() Deadline {
	return unbounded{}
}

// Countdown is a deterministic deadline for drivers that check the time
// after every unit of work: it runs out on the n-th call to TimeRemaining,
// so exactly n units fit in the slice.
type Countdown struct {
	n int
}

// NewCountdown returns a Countdown that allows n units of work.
func NewCountdown(n int) *Countdown {
	return &Countdown{n: n}
}

func (c *Countdown) TimeRemaining() time.Duration {
	c.n--
	if c.n <= 0 {
		return 0
	}
	return time.Hour
}

func (c *Countdown) DidTimeout() bool { return false }
