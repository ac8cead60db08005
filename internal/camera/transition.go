package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
)

// Phase is the state of a target-change transition.
type Phase int

const (
	Idle Phase = iota
	// Orienting turns the look-at point toward the new target.
	Orienting
	// Translating flies the camera to its destination near the new target.
	Translating
)

func (p Phase) String() string {
	switch p {
	case Orienting:
		return "orienting"
	case Translating:
		return "translating"
	default:
		return "idle"
	}
}

// Transition animates the camera toward a new target: orient first, then
// translate. It is advanced by real elapsed seconds.
type Transition struct {
	Target              *body.Body
	RotationDuration    float64
	TranslationDuration float64

	phase   Phase
	elapsed float64

	lookFrom r3.Vec
	camFrom  r3.Vec
	// destination relative to the target's live position
	destOffset r3.Vec
	// destination is the surface pin instead of destOffset
	toPin bool
}

func (tr *Transition) Phase() Phase { return tr.phase }

// Progress returns completion of the current phase in [0, 1].
func (tr *Transition) Progress() float64 {
	switch tr.phase {
	case Orienting:
		return clamp01(tr.elapsed / tr.RotationDuration)
	case Translating:
		return clamp01(tr.elapsed / tr.TranslationDuration)
	}
	return 1
}

// Remaining is the real time left in seconds.
func (tr *Transition) Remaining() float64 {
	switch tr.phase {
	case Orienting:
		return tr.RotationDuration - tr.elapsed + tr.TranslationDuration
	case Translating:
		return math.Max(tr.TranslationDuration-tr.elapsed, 0)
	}
	return 0
}

// rotationDuration is the seconds spent turning through angle radians.
func rotationDuration(angle float64, cfg Config) float64 {
	return math.Max(math.Abs(angle/math.Pi)*cfg.RotationPerHalfTurn, cfg.MinRotation)
}

// translationDuration is the seconds spent covering dist scene units.
func translationDuration(dist float64, cfg Config) float64 {
	return math.Max(dist/cfg.TransitSpeed, cfg.MinTranslation)
}

// angleBetween returns the angle between a and b, zero if either is degenerate.
func angleBetween(a, b r3.Vec) float64 {
	if r3.Norm2(a) == 0 || r3.Norm2(b) == 0 {
		return 0
	}
	c := r3.Cos(a, b)
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

func lerp(a, b r3.Vec, u float64) r3.Vec {
	return r3.Add(a, r3.Scale(u, r3.Sub(b, a)))
}
