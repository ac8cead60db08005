// Package orbit propagates Keplerian elements and converts between the
// ecliptic frame used by ephemerides and the Y-up scene frame.
package orbit

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
)

const (
	// J2000 is the Julian day of the J2000.0 epoch.
	J2000 = 2451545.0
	// DaysPerCentury is the length of a Julian century.
	DaysPerCentury = 36525.0
	// SecondsPerDay is the length of a day in seconds.
	SecondsPerDay = 86400.0
	// AU is the astronomical unit in meters.
	AU = 149597870700.0
)

// EclipticToScene maps ecliptic (+Z north) coordinates to the scene frame (+Y north).
func EclipticToScene(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Z, Z: -v.Y}
}

// SceneToEcliptic is the inverse of EclipticToScene.
func SceneToEcliptic(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Y: -v.Z, Z: v.Y}
}

// Centuries returns Julian centuries elapsed since J2000 at t.
func Centuries(t time.Time) float64 {
	return (julian.TimeToJD(t) - J2000) / DaysPerCentury
}

// Position returns the position relative to the parent body, in meters and in
// the scene frame, for elements evaluated T centuries after J2000.
func Position(el *body.Elements, T float64) r3.Vec {
	a := el.SemiMajorAxis + T*el.SemiMajorAxisRate
	e := el.Eccentricity + T*el.EccentricityRate
	i := el.Inclination.Rad() + T*el.InclinationRate.Rad()
	L := normalize(el.MeanLongitude.Rad() + T*el.MeanLongitudeRate.Rad())
	wbar := normalize(el.LongitudeOfPerihelion.Rad() + T*el.LongitudeOfPerihelionRate.Rad())
	node := normalize(el.AscendingNode.Rad() + T*el.AscendingNodeRate.Rad())

	M := normalize(L - wbar)
	w := normalize(wbar - node)
	E := SolveKepler(M, e)

	v := 2 * math.Atan2(math.Sqrt(1+e)*math.Sin(E/2), math.Sqrt(1-e)*math.Cos(E/2))
	r := a * (1 - e*math.Cos(E))

	xo, yo := r*math.Cos(v), r*math.Sin(v)

	sw, cw := math.Sincos(w)
	si, ci := math.Sincos(i)
	sn, cn := math.Sincos(node)

	xw := xo*cw - yo*sw
	yw := xo*sw + yo*cw

	xi := xw
	yi := yw * ci
	zi := yw * si

	return EclipticToScene(r3.Vec{
		X: xi*cn - yi*sn,
		Y: xi*sn + yi*cn,
		Z: zi,
	})
}

// State returns position and velocity relative to the parent at time t. The
// velocity is a central difference over one minute.
func State(el *body.Elements, t time.Time) (pos, vel r3.Vec) {
	const h = 60.0
	T := Centuries(t)
	dT := h / SecondsPerDay / DaysPerCentury
	pos = Position(el, T)
	ahead := Position(el, T+dT)
	behind := Position(el, T-dT)
	vel = r3.Scale(1/(2*h), r3.Sub(ahead, behind))
	return pos, vel
}

// SolveKepler solves M = E - e sin E for the eccentric anomaly E.
func SolveKepler(M, e float64) float64 {
	E := M + e*math.Sin(M)*(1+e*math.Cos(M))
	for iter := 0; iter < 30; iter++ {
		f := E - e*math.Sin(E) - M
		if math.Abs(f) < 1e-14 {
			break
		}
		E -= f / (1 - e*math.Cos(E))
	}
	return E
}

func normalize(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
