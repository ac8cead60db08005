package camera

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/dynamo"
)

// OrbitControls queues user orbit input between frames. Input arrives from
// the UI goroutine and is drained once per frame by the targeting component.
type OrbitControls struct {
	// OrbitStep is the angle in radians of one orbit key press.
	OrbitStep float64
	// ZoomStep is the distance factor of one zoom key press.
	ZoomStep float64

	mu        sync.Mutex
	azimuth   float64
	elevation float64
	zoom      float64
}

func NewOrbitControls() *OrbitControls {
	return &OrbitControls{OrbitStep: math.Pi / 36, ZoomStep: 1.25, zoom: 1}
}

func (c *OrbitControls) OrbitLeft()  { c.Rotate(-c.OrbitStep, 0) }
func (c *OrbitControls) OrbitRight() { c.Rotate(c.OrbitStep, 0) }
func (c *OrbitControls) OrbitUp()    { c.Rotate(0, c.OrbitStep) }
func (c *OrbitControls) OrbitDown()  { c.Rotate(0, -c.OrbitStep) }
func (c *OrbitControls) ZoomIn()     { c.Zoom(1 / c.ZoomStep) }
func (c *OrbitControls) ZoomOut()    { c.Zoom(c.ZoomStep) }

// Rotate queues an azimuth change about the up axis and an elevation change
// toward it.
func (c *OrbitControls) Rotate(azimuth, elevation float64) {
	if !dynamo.IsFinite(azimuth) || !dynamo.IsFinite(elevation) {
		return
	}
	c.mu.Lock()
	c.azimuth += azimuth
	c.elevation += elevation
	c.mu.Unlock()
}

// Zoom queues a multiplicative distance change.
func (c *OrbitControls) Zoom(factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	c.mu.Lock()
	c.zoom *= factor
	c.mu.Unlock()
}

// Pending reports whether any input is queued.
func (c *OrbitControls) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.azimuth != 0 || c.elevation != 0 || c.zoom != 1
}

func (c *OrbitControls) drain() (azimuth, elevation, zoom float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	azimuth, elevation, zoom = c.azimuth, c.elevation, c.zoom
	c.azimuth, c.elevation, c.zoom = 0, 0, 1
	return
}

const poleMargin = 1e-3

// orbitOffset applies queued input to offset around up, keeping the length within
// [minDist, maxDist] and away from the poles.
func orbitOffset(offset, up r3.Vec, azimuth, elevation, zoom, minDist, maxDist float64) r3.Vec {
	r := r3.Norm(offset)
	if r == 0 {
		return offset
	}
	up = r3.Unit(up)

	o := offset
	if azimuth != 0 {
		o = r3.NewRotation(azimuth, up).Rotate(o)
	}
	if elevation != 0 {
		axis := r3.Cross(up, o)
		if r3.Norm2(axis) > 0 {
			polar := angleBetween(o, up)
			next := math.Max(poleMargin, math.Min(math.Pi-poleMargin, polar-elevation))
			o = r3.NewRotation(next-polar, axis).Rotate(o)
		}
	}

	target := r * zoom
	if target < minDist {
		target = minDist
	}
	if maxDist > 0 && target > maxDist {
		target = maxDist
	}
	return r3.Scale(target/r3.Norm(o), o)
}
