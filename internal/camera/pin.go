package camera

import (
	"fmt"
	"math"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/dynamo"
)

// SurfacePin is a fixed geographic point on a host body. It rides the host's
// tilt and spin.
type SurfacePin struct {
	Lat, Lon unit.Angle
	// Altitude above the surface in meters.
	Altitude float64
	host     *body.Body
}

func NewSurfacePin(host *body.Body, lat, lon unit.Angle) (*SurfacePin, error) {
	if host == nil {
		return nil, fmt.Errorf("%w: surface pin without a host body", dynamo.ErrInvalidInput)
	}
	if !dynamo.IsFinite(lat.Rad()) || !dynamo.IsFinite(lon.Rad()) {
		return nil, fmt.Errorf("%w: pin coordinates %v, %v", dynamo.ErrInvalidInput, lat.Deg(), lon.Deg())
	}
	if math.Abs(lat.Deg()) > 90 {
		return nil, fmt.Errorf("%w: latitude %v out of range", dynamo.ErrInvalidInput, lat.Deg())
	}
	return &SurfacePin{Lat: lat, Lon: lon, host: host}, nil
}

func (p *SurfacePin) Host() *body.Body { return p.host }

// LocalNormal is the pin's outward normal in the host's body-fixed frame,
// where +Y is the rotational axis and longitude 0 lies on +X.
func (p *SurfacePin) LocalNormal() r3.Vec {
	sl, cl := math.Sincos(p.Lat.Rad())
	so, co := math.Sincos(p.Lon.Rad())
	return r3.Vec{X: cl * co, Y: sl, Z: -cl * so}
}

// Normal is the pin's outward normal in the scene frame.
func (p *SurfacePin) Normal() r3.Vec {
	return body.Attitude(p.host).Rotate(p.LocalNormal())
}

// WorldPosition is the pin's current position in scene units.
func (p *SurfacePin) WorldPosition() r3.Vec {
	r := SceneRadius(p.host) + p.Altitude/MetersPerUnit
	return r3.Add(ScenePosition(p.host), r3.Scale(r, p.Normal()))
}

func (p *SurfacePin) String() string {
	return fmt.Sprintf("%.4f, %.4f on %s", p.Lat.Deg(), p.Lon.Deg(), p.host.Name)
}
