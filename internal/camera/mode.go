// Package camera implements camera targeting: the per-frame follow rules for
// each viewing mode and the animated transition between target bodies.
//
// The camera works in scene units of MetersPerUnit meters, while bodies keep
// their positions in meters.
package camera

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/dynamo"
)

// Mode selects how the camera tracks its target each frame.
type Mode int

const (
	// LookAt keeps the camera in place and turns it toward the target.
	LookAt Mode = iota
	// Follow moves the camera with the target, keeping the same offset.
	Follow
	// ViewFromSurface places the camera on the surface pin.
	ViewFromSurface
)

func (m Mode) String() string {
	switch m {
	case LookAt:
		return "look_at"
	case Follow:
		return "follow"
	case ViewFromSurface:
		return "surface"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) valid() bool {
	return m >= LookAt && m <= ViewFromSurface
}

// ParseMode accepts the names produced by String plus a few aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "look_at", "lookat", "look-at":
		return LookAt, nil
	case "follow":
		return Follow, nil
	case "surface", "view_from_surface":
		return ViewFromSurface, nil
	default:
		return 0, fmt.Errorf("%w: camera mode %q", dynamo.ErrInvalidInput, s)
	}
}

const (
	MetersPerUnit = 1000.0

	DefaultNear        = 1000.0
	DefaultSurfaceNear = 1.0
	DefaultFar         = 1.3e10
	// DefaultMinDistanceMargin is kept between the target's surface and the
	// closest orbit-control zoom.
	DefaultMinDistanceMargin = 5000.0
)

// ToScene converts meters to scene units.
func ToScene(v r3.Vec) r3.Vec {
	return r3.Scale(1/MetersPerUnit, v)
}

// ScenePosition is the body's position in scene units.
func ScenePosition(b *body.Body) r3.Vec {
	return ToScene(b.Position)
}

// SceneRadius is the body's radius in scene units.
func SceneRadius(b *body.Body) float64 {
	return b.Radius / MetersPerUnit
}

// View is everything the renderer needs to place the camera.
type View struct {
	Position     r3.Vec
	LookAt       r3.Vec
	Up           r3.Vec
	Near         float64
	Far          float64
	MinDistance  float64
	InputEnabled bool
}

// Offset is the camera position relative to the look-at point.
func (v View) Offset() r3.Vec {
	return r3.Sub(v.Position, v.LookAt)
}
