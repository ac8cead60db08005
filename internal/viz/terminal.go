package viz

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/camera"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/orbit"
)

// DefaultFOV is a 60 degree vertical field of view.
const DefaultFOV = math.Pi / 3

// Terminal renders the bound bodies onto a braille canvas. The engine pushes
// the camera and calls Render on its frame goroutine; the UI reads the last
// finished frame through Frame from any goroutine.
type Terminal struct {
	mu     sync.Mutex
	canvas *Canvas
	proj   Projector
	bodies *body.Map
	target string
	labels bool
	orbits bool
	t      float64

	frame  string
	frames uint64
}

// NewTerminal returns a renderer drawing cols x rows character cells.
func NewTerminal(cols, rows int, fov unit.Angle) *Terminal {
	f := fov.Rad()
	if f <= 0 {
		f = DefaultFOV
	}
	return &Terminal{
		canvas: NewCanvas(cols, rows),
		proj: Projector{
			Up:   r3.Vec{Y: 1},
			FOV:  f,
			Near: camera.DefaultNear,
			Far:  camera.DefaultFar,
		},
		labels: true,
	}
}

func (r *Terminal) SetCameraPosition(p r3.Vec) {
	r.mu.Lock()
	r.proj.Position = p
	r.mu.Unlock()
}

func (r *Terminal) SetCameraUp(up r3.Vec) {
	r.mu.Lock()
	r.proj.Up = up
	r.mu.Unlock()
}

func (r *Terminal) SetLookAt(p r3.Vec) {
	r.mu.Lock()
	r.proj.LookAt = p
	r.mu.Unlock()
}

func (r *Terminal) SetNear(near float64) {
	r.mu.Lock()
	r.proj.Near = near
	r.mu.Unlock()
}

func (r *Terminal) Bind(bodies *body.Map) {
	r.mu.Lock()
	r.bodies = bodies
	r.mu.Unlock()
}

// OnFrame records simulated time for orbit drawing.
func (r *Terminal) OnFrame(_ *body.Map, t time.Time) {
	r.mu.Lock()
	r.t = orbit.Centuries(t)
	r.mu.Unlock()
}

// SetTarget highlights the named body.
func (r *Terminal) SetTarget(name string) {
	r.mu.Lock()
	r.target = name
	r.mu.Unlock()
}

func (r *Terminal) ToggleLabels() {
	r.mu.Lock()
	r.labels = !r.labels
	r.mu.Unlock()
}

func (r *Terminal) ToggleOrbits() {
	r.mu.Lock()
	r.orbits = !r.orbits
	r.mu.Unlock()
}

// Resize replaces the canvas; the next Render fills it.
func (r *Terminal) Resize(cols, rows int) {
	r.mu.Lock()
	r.canvas = NewCanvas(cols, rows)
	r.mu.Unlock()
}

func (r *Terminal) Render() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bodies == nil {
		return fmt.Errorf("%w: terminal renderer has no bodies bound", dynamo.ErrInvalidState)
	}
	r.canvas.Clear()
	Draw(r.canvas, r.proj, Scene{
		Bodies: r.bodies.All(),
		Target: r.target,
		Labels: r.labels,
		Orbits: r.orbits,
		T:      r.t,
	})
	r.frame = r.canvas.String()
	r.frames++
	return nil
}

// Frame returns the most recently rendered frame.
func (r *Terminal) Frame() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

// Frames counts completed renders.
func (r *Terminal) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}
