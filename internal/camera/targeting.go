package camera

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/dynamo"
)

// Config holds camera clip distances and transition timing. Durations are in
// real seconds and TransitSpeed is in scene units per real second.
type Config struct {
	Near              float64
	SurfaceNear       float64
	Far               float64
	MinDistanceMargin float64

	RotationPerHalfTurn float64
	MinRotation         float64
	TransitSpeed        float64
	MinTranslation      float64

	EventBuffer int
}

func DefaultConfig() Config {
	return Config{
		Near:                DefaultNear,
		SurfaceNear:         DefaultSurfaceNear,
		Far:                 DefaultFar,
		MinDistanceMargin:   DefaultMinDistanceMargin,
		RotationPerHalfTurn: 2,
		MinRotation:         1,
		TransitSpeed:        3.3e9,
		MinTranslation:      3,
		EventBuffer:         16,
	}
}

// Validate rejects settings that would stall or invert transitions.
func (c Config) Validate() error {
	switch {
	case c.Near <= 0 || c.SurfaceNear <= 0 || c.Far <= c.Near:
		return fmt.Errorf("%w: clip planes near=%v surface_near=%v far=%v", dynamo.ErrInvalidInput, c.Near, c.SurfaceNear, c.Far)
	case c.MinDistanceMargin < 0:
		return fmt.Errorf("%w: min distance margin %v", dynamo.ErrInvalidInput, c.MinDistanceMargin)
	case c.RotationPerHalfTurn < 0 || c.MinRotation <= 0 || c.MinTranslation <= 0:
		return fmt.Errorf("%w: transition durations must be positive", dynamo.ErrInvalidInput)
	case c.TransitSpeed <= 0:
		return fmt.Errorf("%w: transit speed %v", dynamo.ErrInvalidInput, c.TransitSpeed)
	}
	return nil
}

// TargetChanged is emitted whenever the committed target changes.
type TargetChanged struct {
	Body     *body.Body
	Previous *body.Body
}

// Targeting is the camera targeting state machine. It holds the committed
// target, the mode, the optional surface pin and at most one transition. It is
// driven from the frame loop and is not safe for concurrent use, except for
// Events.
type Targeting struct {
	cfg       Config
	mode      Mode
	target    *body.Body
	reference *body.Body
	pin       *SurfacePin
	view      View
	tr        *Transition

	evMu   sync.Mutex
	events chan TargetChanged
}

// NewTargeting starts idle on target in LookAt mode. reference supplies the
// default up vector, usually the body the viewer lives on. The camera starts
// on the target's +Z side at four radii from its center.
func NewTargeting(target, reference *body.Body, cfg Config) (*Targeting, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: no initial target", dynamo.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	buf := cfg.EventBuffer
	if buf <= 0 {
		buf = 1
	}

	t := &Targeting{
		cfg:       cfg,
		mode:      LookAt,
		target:    target,
		reference: reference,
		events:    make(chan TargetChanged, buf),
	}
	center := ScenePosition(target)
	t.view = View{
		Position:     r3.Add(center, r3.Vec{Z: 4 * SceneRadius(target)}),
		LookAt:       center,
		Up:           body.NormalOrUp(reference),
		Near:         cfg.Near,
		Far:          cfg.Far,
		MinDistance:  t.minDistance(target),
		InputEnabled: true,
	}
	return t, nil
}

func (t *Targeting) minDistance(b *body.Body) float64 {
	return SceneRadius(b) + t.cfg.MinDistanceMargin
}

func (t *Targeting) Mode() Mode { return t.mode }

func (t *Targeting) Target() *body.Body { return t.target }

func (t *Targeting) Reference() *body.Body { return t.reference }

func (t *Targeting) Config() Config { return t.cfg }

// View returns a copy of the current camera state.
func (t *Targeting) View() View { return t.view }

// SetView places the camera and its look-at point directly.
func (t *Targeting) SetView(position, lookAt r3.Vec) error {
	if !finite(position) || !finite(lookAt) {
		return fmt.Errorf("%w: camera view %v -> %v", dynamo.ErrInvalidInput, position, lookAt)
	}
	t.view.Position = position
	t.view.LookAt = lookAt
	return nil
}

// InputEnabled reports whether user orbit input and per-frame following are
// active. Both are frozen during a transition.
func (t *Targeting) InputEnabled() bool { return t.view.InputEnabled }

func (t *Targeting) InTransition() bool { return t.tr != nil }

// Transition returns a copy of the active transition, if any.
func (t *Targeting) Transition() (Transition, bool) {
	if t.tr == nil {
		return Transition{}, false
	}
	return *t.tr, true
}

// Events delivers TargetChanged notifications. When the buffer is full the
// oldest notification is dropped.
func (t *Targeting) Events() <-chan TargetChanged { return t.events }

func (t *Targeting) emit(ev TargetChanged) {
	t.evMu.Lock()
	defer t.evMu.Unlock()
	for {
		select {
		case t.events <- ev:
			return
		default:
		}
		select {
		case <-t.events:
		default:
		}
	}
}

// Pin returns the surface pin, or nil.
func (t *Targeting) Pin() *SurfacePin { return t.pin }

// SetPin replaces the surface pin. Clearing it while viewing from the surface
// is refused.
func (t *Targeting) SetPin(p *SurfacePin) error {
	if p == nil && t.mode == ViewFromSurface {
		return fmt.Errorf("%w: cannot clear the pin while viewing from the surface", dynamo.ErrInvalidState)
	}
	t.pin = p
	if t.mode == ViewFromSurface {
		t.view.Up = p.Normal()
	}
	return nil
}

// DesiredUp is the pin normal when viewing from the surface, otherwise the
// reference body's orbital-plane normal.
func (t *Targeting) DesiredUp() r3.Vec {
	if t.mode == ViewFromSurface && t.pin != nil {
		return t.pin.Normal()
	}
	return body.NormalOrUp(t.reference)
}

// SetMode switches viewing mode. Entering ViewFromSurface requires a pin,
// points up along the pin normal and moves the near plane in; leaving
// restores the default up and near plane.
func (t *Targeting) SetMode(m Mode) error {
	if !m.valid() {
		return fmt.Errorf("%w: camera mode %d", dynamo.ErrInvalidInput, int(m))
	}
	if m == t.mode {
		return nil
	}
	if m == ViewFromSurface && t.pin == nil {
		return fmt.Errorf("%w: surface view needs a location pin", dynamo.ErrInvalidState)
	}

	if t.mode == ViewFromSurface {
		t.view.Up = body.NormalOrUp(t.reference)
		t.view.Near = t.cfg.Near
	}
	t.mode = m
	if m == ViewFromSurface {
		t.view.Up = t.pin.Normal()
		t.view.Near = t.cfg.SurfaceNear
	}
	return nil
}

// Commit makes b the current target and resets the zoom floor for its radius.
// A TargetChanged event fires only if the target actually changed.
func (t *Targeting) Commit(b *body.Body) {
	prev := t.target
	t.target = b
	t.view.MinDistance = t.minDistance(b)
	if prev != b {
		t.emit(TargetChanged{Body: b, Previous: prev})
	}
}

// DistanceTo is the camera's distance to b's center in scene units.
func (t *Targeting) DistanceTo(b *body.Body) float64 {
	return r3.Norm(r3.Sub(t.view.Position, ScenePosition(b)))
}

// DistanceFromSurface is the camera's distance to b's surface in scene units.
func (t *Targeting) DistanceFromSurface(b *body.Body) float64 {
	return t.DistanceTo(b) - SceneRadius(b)
}

// MoveTo starts a transition to b and reports whether one started. Asking for
// the committed target with nothing in flight, or for the target already being
// flown to, does nothing. Any other in-flight transition is discarded and the
// new one starts from the current camera state.
func (t *Targeting) MoveTo(b *body.Body) bool {
	if b == nil {
		return false
	}
	if t.tr == nil && b == t.target {
		return false
	}
	if t.tr != nil && b == t.tr.Target {
		return false
	}

	t.view.InputEnabled = false

	cam := t.view.Position
	newPos := ScenePosition(b)
	lookVec := r3.Sub(t.view.LookAt, cam)
	newVec := r3.Sub(newPos, cam)

	dir := newVec
	if r3.Norm2(dir) == 0 {
		dir = lookVec
	}
	if r3.Norm2(dir) == 0 {
		dir = r3.Vec{Z: -1}
	}
	dir = r3.Unit(dir)

	// the previous target's surface distance carries over, whatever the scale
	total := t.DistanceFromSurface(t.target) + SceneRadius(b)
	dest := r3.Sub(newPos, r3.Scale(total, dir))

	t.tr = &Transition{
		Target:              b,
		RotationDuration:    rotationDuration(angleBetween(lookVec, newVec), t.cfg),
		TranslationDuration: translationDuration(r3.Norm(r3.Sub(dest, cam)), t.cfg),
		phase:               Orienting,
		lookFrom:            t.view.LookAt,
		destOffset:          r3.Sub(dest, newPos),
		toPin:               t.mode == ViewFromSurface && t.pin != nil,
	}
	return true
}

// destination is where the transition ends given the target's live position.
func (t *Targeting) destination() r3.Vec {
	if t.tr.toPin && t.pin != nil {
		return t.pin.WorldPosition()
	}
	return r3.Add(ScenePosition(t.tr.Target), t.tr.destOffset)
}

// Tick advances any transition by realDelta seconds and reports whether it
// completed on this call. Leftover time from the orientation phase carries
// into translation.
func (t *Targeting) Tick(realDelta float64) bool {
	if t.tr == nil {
		return false
	}
	if realDelta > 0 && !math.IsInf(realDelta, 0) {
		t.tr.elapsed += realDelta
	}
	tr := t.tr
	live := ScenePosition(tr.Target)

	if tr.phase == Orienting {
		u := clamp01(tr.elapsed / tr.RotationDuration)
		t.view.LookAt = lerp(tr.lookFrom, live, QuinticIn(u))
		if u < 1 {
			return false
		}
		tr.phase = Translating
		tr.elapsed -= tr.RotationDuration
		tr.camFrom = t.view.Position
	}

	u := clamp01(tr.elapsed / tr.TranslationDuration)
	dest := t.destination()
	t.view.LookAt = live
	t.view.Position = lerp(tr.camFrom, dest, QuinticInOut(u))
	if u < 1 {
		return false
	}

	t.view.Position = dest
	t.tr = nil
	t.view.InputEnabled = true
	t.Commit(tr.Target)
	return true
}

// Follow applies the current mode to the committed target for one frame.
func (t *Targeting) Follow() {
	pos := ScenePosition(t.target)
	switch t.mode {
	case Follow:
		offset := t.view.Offset()
		t.view.LookAt = pos
		t.view.Position = r3.Add(pos, offset)
	case LookAt:
		t.view.LookAt = pos
	case ViewFromSurface:
		t.view.Up = t.DesiredUp()
		t.view.LookAt = pos
		t.view.Position = t.pin.WorldPosition()
	}
}

// ApplyControls drains queued orbit input and applies it around the look-at
// point. Input is discarded while frozen or viewing from the surface.
func (t *Targeting) ApplyControls(c *OrbitControls) {
	if c == nil || !c.Pending() {
		return
	}
	az, el, zoom := c.drain()
	if !t.view.InputEnabled || t.mode == ViewFromSurface {
		return
	}
	offset := orbitOffset(t.view.Offset(), t.view.Up, az, el, zoom, t.view.MinDistance, t.view.Far)
	t.view.Position = r3.Add(t.view.LookAt, offset)
}

func finite(v r3.Vec) bool {
	return dynamo.IsFinite(v.X) && dynamo.IsFinite(v.Y) && dynamo.IsFinite(v.Z)
}
