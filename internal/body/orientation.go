package body

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// Up is the scene's canonical up axis.
	Up = r3.Vec{X: 0, Y: 1, Z: 0}
	// TiltAxis is the axis obliquity rotates about.
	TiltAxis = r3.Vec{X: 0, Y: 0, Z: 1}

	identity = r3.Rotation{Real: 1}
)

// Identity returns the identity rotation.
func Identity() r3.Rotation { return identity }

// Compose returns the rotation that applies first, then second.
func Compose(first, second r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Mul(quat.Number(second), quat.Number(first)))
}

// FromUnitVectors returns the shortest rotation taking unit vector from onto
// unit vector to.
func FromUnitVectors(from, to r3.Vec) r3.Rotation {
	d := r3.Dot(from, to)
	switch {
	case d >= 1-1e-12:
		return identity
	case d <= -1+1e-12:
		axis := r3.Cross(r3.Vec{X: 1}, from)
		if r3.Norm2(axis) < 1e-12 {
			axis = r3.Cross(r3.Vec{Z: 1}, from)
		}
		return r3.NewRotation(math.Pi, axis)
	}
	return r3.NewRotation(math.Acos(d), r3.Cross(from, to))
}

// ObliquityOrientation tilts the rotational axis by the body's obliquity.
func ObliquityOrientation(b *Body) r3.Rotation {
	o := b.Obliquity.Rad()
	if o == 0 {
		return identity
	}
	return r3.NewRotation(o, TiltAxis)
}

// OrbitalPlaneNormal derives the unit normal of the body's orbital plane from
// inclination and longitude of the ascending node. ok is false for bodies with
// no meaningful orbit, such as a central star.
func OrbitalPlaneNormal(b *Body) (n r3.Vec, ok bool) {
	if b.Elements == nil || b.Kind == Star {
		return r3.Vec{}, false
	}
	si, ci := math.Sincos(b.Elements.Inclination.Rad())
	sn, cn := math.Sincos(b.Elements.AscendingNode.Rad())
	// ecliptic (sin i sin Ω, -sin i cos Ω, cos i) with +Z mapped to scene +Y
	return r3.Vec{X: si * sn, Y: ci, Z: si * cn}, true
}

// NormalOrUp returns the orbital-plane normal, or the canonical up axis when the
// body has none.
func NormalOrUp(b *Body) r3.Vec {
	if b == nil {
		return Up
	}
	if n, ok := OrbitalPlaneNormal(b); ok {
		return n
	}
	return Up
}

// Orientation is the body's tilt: rotate by obliquity, then align the default
// up axis to the orbital-plane normal. An explicit axis direction replaces both
// steps. The order matters; swapping the steps yields a different tilt.
func Orientation(b *Body) r3.Rotation {
	if b.AxisDirection != nil {
		return FromUnitVectors(Up, r3.Unit(*b.AxisDirection))
	}
	return Compose(ObliquityOrientation(b), FromUnitVectors(Up, NormalOrUp(b)))
}

// Attitude is Orientation preceded by the body's spin about its own axis.
func Attitude(b *Body) r3.Rotation {
	if b.Spin == 0 {
		return Orientation(b)
	}
	return Compose(r3.NewRotation(b.Spin, Up), Orientation(b))
}

// Axis returns the body's rotational axis in the scene frame.
func Axis(b *Body) r3.Vec {
	return Orientation(b).Rotate(Up)
}
