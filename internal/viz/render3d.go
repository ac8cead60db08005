package viz

import (
	"math"
	"sort"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/camera"
	"github.com/san-kum/orrery/internal/orbit"
)

// Projector is a pinhole camera in scene units looking from Position at
// LookAt. FOV is the vertical field of view in radians.
type Projector struct {
	Position, LookAt, Up r3.Vec
	FOV, Near, Far       float64
}

// basis returns the camera's right, up and forward axes. ok is false when
// the camera sits on its look-at point.
func (p Projector) basis() (right, up, fwd r3.Vec, ok bool) {
	d := r3.Sub(p.LookAt, p.Position)
	n := r3.Norm(d)
	if n == 0 || math.IsNaN(n) {
		return r3.Vec{}, r3.Vec{}, r3.Vec{}, false
	}
	fwd = r3.Scale(1/n, d)
	hint := p.Up
	if r3.Norm(r3.Cross(fwd, hint)) < 1e-9 {
		// up along the line of sight; any perpendicular will do
		hint = r3.Vec{Z: 1}
		if math.Abs(fwd.Z) > 0.9 {
			hint = r3.Vec{X: 1}
		}
	}
	right = r3.Unit(r3.Cross(fwd, hint))
	up = r3.Cross(right, fwd)
	return right, up, fwd, true
}

// focal is the distance in dots from the eye to a screen h dots tall.
func (p Projector) focal(h int) float64 {
	fov := p.FOV
	if fov <= 0 || fov >= math.Pi {
		fov = DefaultFOV
	}
	return float64(h) / 2 / math.Tan(fov/2)
}

// Project maps a scene point onto a w x h dot screen. It returns the dot
// position, the depth along the line of sight and whether the point lies
// between the clip planes. Off-screen points inside the frustum depth are
// still reported so lines can be clipped by the canvas.
func (p Projector) Project(pt r3.Vec, w, h int) (x, y int, depth float64, ok bool) {
	right, up, fwd, ok := p.basis()
	if !ok {
		return 0, 0, 0, false
	}
	d := r3.Sub(pt, p.Position)
	depth = r3.Dot(d, fwd)
	if depth < p.Near || (p.Far > 0 && depth > p.Far) {
		return 0, 0, depth, false
	}
	f := p.focal(h)
	sx := r3.Dot(d, right) / depth * f
	sy := r3.Dot(d, up) / depth * f
	if math.Abs(sx) > 1e6 || math.Abs(sy) > 1e6 {
		return 0, 0, depth, false
	}
	return w/2 + int(math.Round(sx)), h/2 - int(math.Round(sy)), depth, true
}

// Scale is the size in dots of a length seen at depth on an h dot screen.
func (p Projector) Scale(length, depth float64, h int) float64 {
	if depth <= 0 {
		return 0
	}
	return length / depth * p.focal(h)
}

type projected struct {
	b      *body.Body
	x, y   int
	r      int
	depth  float64
	target bool
}

// Scene describes one frame to draw.
type Scene struct {
	Bodies []*body.Body
	Target string
	Labels bool
	// Orbits draws each body's osculating orbit around its parent at
	// centuries T past J2000.
	Orbits bool
	T      float64
}

const orbitSamples = 96

// Draw renders the scene with a painter's algorithm: farthest first, so the
// labels of near bodies win.
func Draw(c *Canvas, p Projector, s Scene) {
	if c == nil {
		return
	}
	w, h := c.Dots()
	if s.Orbits {
		drawOrbits(c, p, s, w, h)
	}

	proj := make([]projected, 0, len(s.Bodies))
	for _, b := range s.Bodies {
		pos := camera.ScenePosition(b)
		x, y, depth, ok := p.Project(pos, w, h)
		if !ok || x < 0 || y < 0 || x >= w || y >= h {
			continue
		}
		r := int(p.Scale(camera.SceneRadius(b), depth, h))
		proj = append(proj, projected{
			b:      b,
			x:      x,
			y:      y,
			r:      min(r, max(w, h)),
			depth:  depth,
			target: body.Key(b.Name) == body.Key(s.Target),
		})
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth > proj[j].depth })
	for _, pr := range proj {
		c.Disc(pr.x, pr.y, pr.r)
	}
	if !s.Labels {
		return
	}
	for _, pr := range proj {
		name := pr.b.Name
		if pr.target {
			name = "[" + name + "]"
		}
		c.Label(pr.x+2*(pr.r+1), pr.y, name)
	}
}

func drawOrbits(c *Canvas, p Projector, s Scene, w, h int) {
	index := make(map[string]*body.Body, len(s.Bodies))
	for _, b := range s.Bodies {
		index[body.Key(b.Name)] = b
	}
	for _, b := range s.Bodies {
		if b.Elements == nil {
			continue
		}
		var center r3.Vec
		if parent, ok := index[body.Key(b.Parent)]; ok {
			center = parent.Position
		}
		el := *b.Elements
		base := el.MeanLongitude
		px, py, havePrev := 0, 0, false
		for i := 0; i <= orbitSamples; i++ {
			el.MeanLongitude = base + unit.Angle(2*math.Pi*float64(i)/orbitSamples)
			pos := r3.Add(center, orbit.Position(&el, s.T))
			x, y, _, ok := p.Project(camera.ToScene(pos), w, h)
			if !ok || x < -w || x > 2*w || y < -h || y > 2*h {
				havePrev = false
				continue
			}
			if havePrev {
				c.DrawLine(px, py, x, y)
			}
			px, py, havePrev = x, y, true
		}
	}
}
