package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soniakeys/unit"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/camera"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/logging"
	"github.com/san-kum/orrery/internal/metrics"
	"github.com/san-kum/orrery/internal/strategy"
)

// SetTarget starts a camera transition to the named body. An unknown name
// fails with dynamo.ErrNotFound and changes nothing; the current target is a
// no-op.
func (e *Engine) SetTarget(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, err := e.bodies.Get(name)
	if err != nil {
		return err
	}
	if !e.targeting.MoveTo(b) {
		return nil
	}
	e.metrics.TransitionStarted()
	if tr, ok := e.targeting.Transition(); ok {
		e.log.Debug(context.Background(), "transition started",
			logging.String("from", e.targeting.Target().Name),
			logging.String("to", b.Name),
			logging.Float("rotation_s", tr.RotationDuration),
			logging.Float("translation_s", tr.TranslationDuration),
		)
	}
	return nil
}

// CycleTarget moves to the body step places after the current or pending
// target in catalog order.
func (e *Engine) CycleTarget(step int) error {
	e.mu.Lock()
	cur := e.targeting.Target()
	if tr, ok := e.targeting.Transition(); ok {
		cur = tr.Target
	}
	next := e.bodies.Next(cur, step)
	e.mu.Unlock()
	if next == nil {
		return fmt.Errorf("%w: no bodies", dynamo.ErrNotFound)
	}
	return e.SetTarget(next.Name)
}

func (e *Engine) SetMode(m camera.Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.targeting.SetMode(m); err != nil {
		return err
	}
	if e.targeting.InputEnabled() {
		e.targeting.Follow()
	}
	e.log.Info(context.Background(), "camera mode", logging.String("mode", m.String()))
	return nil
}

// SetTimeScale takes effect on the next frame.
func (e *Engine) SetTimeScale(factor float64) error {
	if err := e.clock.SetScale(factor); err != nil {
		return err
	}
	e.log.Debug(context.Background(), "time scale", logging.Float("scale", factor))
	return nil
}

// Pause and Resume hold simulated time without touching the scale.
func (e *Engine) Pause()  { e.clock.Pause() }
func (e *Engine) Resume() { e.clock.Resume() }

// SetTime jumps the clock without fetching new data and re-runs the current
// strategies with a zero delta. On failure the previous time is restored.
func (e *Engine) SetTime(t time.Time) error {
	if t.IsZero() {
		return fmt.Errorf("%w: zero time", dynamo.ErrInvalidInput)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.clock.Now()
	e.clock.SetTime(t)
	if err := e.reapply(); err != nil {
		e.clock.SetTime(prev)
		_ = e.reapply()
		return err
	}
	e.log.Info(context.Background(), "time set", logging.String("time", t.Format(time.RFC3339)))
	return nil
}

// reapply runs the strategies at the current time with dt 0 and refreshes the
// camera. Callers hold mu.
func (e *Engine) reapply() error {
	if err := e.settle(); err != nil {
		return err
	}
	if e.targeting.InputEnabled() {
		e.targeting.Follow()
	}
	return nil
}

// settle re-runs the strategies with a zero delta.
func (e *Engine) settle() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = dynamo.PanicError{Value: r}
		}
	}()
	return e.composite.Apply(e.bodies, 0, e.clock)
}

// JumpTo fetches kinematics for t without blocking frames, then swaps in a
// replay strategy and moves the clock in one step. The channel receives the
// outcome and is closed. On failure the current strategies and time are left
// alone. A newer jump supersedes an older one still in flight.
func (e *Engine) JumpTo(ctx context.Context, t time.Time) <-chan error {
	done := make(chan error, 1)

	e.mu.Lock()
	e.jumpSeq++
	seq := e.jumpSeq
	names := e.bodies.Names()
	e.mu.Unlock()

	ctx, log := logging.WithJump(ctx, e.log)
	go func() {
		defer close(done)
		err := e.jump(ctx, log, seq, names, t)
		if err != nil {
			e.mu.Lock()
			e.jumpFailures++
			e.mu.Unlock()
			log.Warn(ctx, "time jump failed", logging.Err(err))
		}
		e.metrics.Jump(err)
		done <- err
	}()
	return done
}

func (e *Engine) jump(ctx context.Context, log logging.Logger, seq uint64, names []string, t time.Time) error {
	if t.IsZero() {
		return fmt.Errorf("%w: zero time", dynamo.ErrInvalidInput)
	}
	log.Info(ctx, "time jump requested", logging.String("time", t.Format(time.RFC3339)))

	k, err := e.source.LoadKinematicsAtTime(ctx, names, t)
	if err != nil {
		if !errors.Is(err, dynamo.ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", dynamo.ErrFetchFailed, err)
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.jumpSeq {
		return fmt.Errorf("%w: time jump to %s", dynamo.ErrSuperseded, t.Format(time.RFC3339))
	}

	prevItems := e.composite.Items()
	prevTime := e.clock.Now()

	next := []strategy.Strategy{strategy.NewReplay(k)}
	if e.spin != nil {
		next = append(next, e.spin)
	}
	e.composite.Replace(next...)
	e.clock.SetTime(t)
	if err := e.reapply(); err != nil {
		e.composite.Replace(prevItems...)
		e.clock.SetTime(prevTime)
		_ = e.reapply()
		return err
	}
	log.Info(ctx, "strategies swapped", logging.Any("strategies", e.composite.Names()))
	return nil
}

// SetLocation pins the surface view to lat/lon on the reference body.
func (e *Engine) SetLocation(lat, lon unit.Angle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setLocation(e.targeting.Reference().Name, Location{Lat: lat, Lon: lon})
}

// SetLocationOn pins the surface view to lat/lon on the named body.
func (e *Engine) SetLocationOn(name string, lat, lon unit.Angle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setLocation(name, Location{Lat: lat, Lon: lon})
}

func (e *Engine) setLocation(name string, loc Location) error {
	host, err := e.bodies.Get(name)
	if err != nil {
		return err
	}
	pin, err := camera.NewSurfacePin(host, loc.Lat, loc.Lon)
	if err != nil {
		return err
	}
	pin.Altitude = loc.Altitude
	if err := e.targeting.SetPin(pin); err != nil {
		return err
	}
	if e.targeting.Mode() == camera.ViewFromSurface && e.targeting.InputEnabled() {
		e.targeting.Follow()
	}
	return nil
}

// Location returns the current surface pin, if any.
func (e *Engine) Location() (Location, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.location()
}

func (e *Engine) location() (Location, bool) {
	pin := e.targeting.Pin()
	if pin == nil {
		return Location{}, false
	}
	return Location{Body: pin.Host().Name, Lat: pin.Lat, Lon: pin.Lon, Altitude: pin.Altitude}, true
}

// Snapshot is the externally persisted session state.
type Snapshot struct {
	Target       string
	Mode         camera.Mode
	Time         time.Time
	Scale        float64
	Paused       bool
	Location     *Location
	InTransition bool
	// Pending is the body being flown to, empty when idle.
	Pending      string
	Frame        uint64
	Strategies   []string
	JumpFailures int
}

func (e *Engine) State() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		Target:       e.targeting.Target().Name,
		Mode:         e.targeting.Mode(),
		Time:         e.clock.Now(),
		Scale:        e.clock.Scale(),
		Paused:       !e.clock.Running(),
		InTransition: e.targeting.InTransition(),
		Frame:        e.frame,
		Strategies:   e.composite.Names(),
		JumpFailures: e.jumpFailures,
	}
	if tr, ok := e.targeting.Transition(); ok {
		s.Pending = tr.Target.Name
	}
	if loc, ok := e.location(); ok {
		s.Location = &loc
	}
	return s
}

// Events delivers committed target changes.
func (e *Engine) Events() <-chan camera.TargetChanged { return e.targeting.Events() }

// Bodies returns copies of every body in catalog order.
func (e *Engine) Bodies() []*body.Body {
	e.mu.Lock()
	defer e.mu.Unlock()
	all := e.bodies.All()
	out := make([]*body.Body, len(all))
	for i, b := range all {
		out[i] = b.Clone()
	}
	return out
}

// Controls is the orbit input queue drained on every frame.
func (e *Engine) Controls() *camera.OrbitControls { return e.controls }

func (e *Engine) AddObserver(o Observer) {
	e.mu.Lock()
	e.observers = append(e.observers, o)
	e.mu.Unlock()
}

// GravityEnergy returns the energy function of the active gravity strategy,
// for use with metrics.NewEnergyDrift. ok is false under other physics.
func (e *Engine) GravityEnergy() (fn metrics.EnergyFunc, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.composite.Items() {
		if g, isGravity := s.(*strategy.Gravity); isGravity {
			return g.Energy, true
		}
	}
	return nil, false
}

// AddTimeListener registers fn for published time changes. It runs on the
// frame goroutine with the engine locked and must not call back into it.
func (e *Engine) AddTimeListener(fn func(time.Time)) {
	e.clock.AddListener(fn)
}

// View returns the camera as last computed.
func (e *Engine) View() camera.View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.targeting.View()
}

// Transition returns the in-flight camera transition, if any.
func (e *Engine) Transition() (camera.Transition, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.targeting.Transition()
}

// SurfaceDistance is the camera's distance from the target's surface in
// scene units.
func (e *Engine) SurfaceDistance() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.targeting.DistanceFromSurface(e.targeting.Target())
}
