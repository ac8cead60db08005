package clock

import "time"

// Timer measures real elapsed time between frames.
type Timer struct {
	now  func() time.Time
	last time.Time
}

// StartTimer returns a Timer reading the wall clock.
func StartTimer() *Timer {
	return NewTimer(time.Now)
}

// NewTimer returns a Timer reading now, which must be monotonic.
func NewTimer(now func() time.Time) *Timer {
	return &Timer{now: now, last: now()}
}

// Delta returns the seconds elapsed since the previous call.
func (t *Timer) Delta() float64 {
	n := t.now()
	d := n.Sub(t.last).Seconds()
	t.last = n
	if d < 0 {
		return 0
	}
	return d
}
