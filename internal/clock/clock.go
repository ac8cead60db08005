package clock

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	"github.com/san-kum/orrery/internal/dynamo"
)

// Reader gives update strategies read access to simulated time.
type Reader interface {
	Now() time.Time
	Scale() float64
}

// Clock owns simulated time and the real-to-simulated scale factor. Scale
// changes are latched at the start of the next Advance, never mid-tick.
type Clock struct {
	mu        sync.RWMutex
	now       time.Time
	scale     float64
	nextScale float64
	paused    bool
	publish   bool
	listeners []func(time.Time)
}

// New returns a running clock at start with scale 1.
func New(start time.Time) *Clock {
	return &Clock{now: start, scale: 1, nextScale: 1}
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// JD returns the current simulated time as a Julian day.
func (c *Clock) JD() float64 {
	return julian.TimeToJD(c.Now())
}

// Scale returns the most recently requested scale factor.
func (c *Clock) Scale() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nextScale
}

// SetScale requests a new scale factor. Zero pauses simulated time and a
// negative factor runs it backwards.
func (c *Clock) SetScale(factor float64) error {
	if !dynamo.IsFinite(factor) {
		return fmt.Errorf("%w: time scale %v", dynamo.ErrInvalidInput, factor)
	}
	c.mu.Lock()
	c.nextScale = factor
	c.mu.Unlock()
	return nil
}

// Advance converts a real elapsed interval into simulated seconds, adds it to
// the current time and returns the simulated delta actually applied.
func (c *Clock) Advance(realDelta float64) (float64, error) {
	if !dynamo.IsFinite(realDelta) {
		return 0, fmt.Errorf("%w: real delta %v", dynamo.ErrInvalidInput, realDelta)
	}

	c.mu.Lock()
	c.scale = c.nextScale
	if c.paused {
		c.mu.Unlock()
		return 0, nil
	}
	simDelta := realDelta * c.scale
	ns := math.Round(simDelta * float64(time.Second))
	if !dynamo.IsFinite(simDelta) || math.Abs(ns) >= math.MaxInt64 {
		c.mu.Unlock()
		return 0, fmt.Errorf("%w: simulated delta %v s out of range", dynamo.ErrInvalidInput, simDelta)
	}
	c.now = c.now.Add(time.Duration(ns))
	now := c.now
	notify := c.publish && simDelta != 0
	c.mu.Unlock()

	if notify {
		c.emit(now)
	}
	return simDelta, nil
}

// SetTime jumps to t. Strategies that assumed continuous time must be replaced
// by the caller.
func (c *Clock) SetTime(t time.Time) {
	c.mu.Lock()
	c.now = t
	notify := c.publish
	c.mu.Unlock()

	if notify {
		c.emit(t)
	}
}

// SetTimeJD jumps to the given Julian day.
func (c *Clock) SetTimeJD(jd float64) error {
	if !dynamo.IsFinite(jd) {
		return fmt.Errorf("%w: julian day %v", dynamo.ErrInvalidInput, jd)
	}
	c.SetTime(julian.JDToTime(jd))
	return nil
}

func (c *Clock) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

func (c *Clock) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

func (c *Clock) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.paused
}

// EnablePublisher toggles time-changed notifications.
func (c *Clock) EnablePublisher(enabled bool) {
	c.mu.Lock()
	c.publish = enabled
	c.mu.Unlock()
}

// AddListener registers a callback invoked with the new time on every
// published change. Callbacks run on the caller's goroutine.
func (c *Clock) AddListener(fn func(time.Time)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Clock) emit(t time.Time) {
	c.mu.RLock()
	listeners := c.listeners
	c.mu.RUnlock()
	for _, fn := range listeners {
		fn(t)
	}
}
