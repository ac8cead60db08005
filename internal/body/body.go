package body

import (
	"fmt"
	"strings"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/dynamo"
)

// Kind selects which orientation and physics defaults apply to a body.
type Kind int

const (
	Star Kind = iota
	Planet
	Moon
)

func (k Kind) String() string {
	switch k {
	case Star:
		return "star"
	case Planet:
		return "planet"
	case Moon:
		return "moon"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses "star", "planet" or "moon".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "star":
		return Star, nil
	case "planet":
		return Planet, nil
	case "moon":
		return Moon, nil
	default:
		return 0, fmt.Errorf("%w: body kind %q", dynamo.ErrInvalidInput, s)
	}
}

// Elements are J2000 Keplerian elements with linear rates per Julian century.
// Semi-major axis is in meters, relative to the parent body.
type Elements struct {
	SemiMajorAxis         float64
	Eccentricity          float64
	Inclination           unit.Angle
	AscendingNode         unit.Angle
	LongitudeOfPerihelion unit.Angle
	MeanLongitude         unit.Angle

	SemiMajorAxisRate         float64
	EccentricityRate          float64
	InclinationRate           unit.Angle
	AscendingNodeRate         unit.Angle
	LongitudeOfPerihelionRate unit.Angle
	MeanLongitudeRate         unit.Angle
}

// Body is a simulated celestial object. Position and velocity are in meters and
// meters per second in the scene frame (+Y is ecliptic north). Bodies are owned
// by the simulation and mutated in place by update strategies.
type Body struct {
	Name   string
	Kind   Kind
	Parent string
	Radius float64
	Mass   float64

	Position r3.Vec
	Velocity r3.Vec

	// Elements is nil for bodies without a meaningful orbit.
	Elements *Elements
	// Obliquity tilts the rotational axis relative to the orbital plane.
	Obliquity unit.Angle
	// AxisDirection, when set, fixes the rotational axis in the scene frame
	// and takes precedence over Obliquity.
	AxisDirection *r3.Vec
	// RotationPeriod is the sidereal rotation period in seconds; zero means no spin.
	RotationPeriod float64
	// Spin is the accumulated rotation about the body's own axis, in radians.
	Spin float64
}

// Key returns the case-insensitive lookup key for name.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (b *Body) String() string {
	return fmt.Sprintf("%s (%s)", b.Name, b.Kind)
}

// Clone returns a deep copy of b.
func (b *Body) Clone() *Body {
	c := *b
	if b.Elements != nil {
		el := *b.Elements
		c.Elements = &el
	}
	if b.AxisDirection != nil {
		ax := *b.AxisDirection
		c.AxisDirection = &ax
	}
	return &c
}

// Map indexes bodies by case-insensitive name while keeping insertion order.
// Its structure is fixed after construction; only body fields change.
type Map struct {
	byKey map[string]*Body
	order []*Body
}

func NewMap(bodies []*Body) (*Map, error) {
	m := &Map{
		byKey: make(map[string]*Body, len(bodies)),
		order: make([]*Body, 0, len(bodies)),
	}
	for _, b := range bodies {
		if b == nil {
			continue
		}
		k := Key(b.Name)
		if k == "" {
			return nil, fmt.Errorf("%w: empty body name", dynamo.ErrInvalidInput)
		}
		if _, ok := m.byKey[k]; ok {
			return nil, fmt.Errorf("%w: %s", dynamo.ErrDuplicateBody, b.Name)
		}
		m.byKey[k] = b
		m.order = append(m.order, b)
	}
	return m, nil
}

// Get looks a body up by name, ignoring case.
func (m *Map) Get(name string) (*Body, error) {
	b, ok := m.byKey[Key(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrNotFound, name)
	}
	return b, nil
}

// Lookup is Get without the error.
func (m *Map) Lookup(name string) (*Body, bool) {
	b, ok := m.byKey[Key(name)]
	return b, ok
}

// All returns the bodies in insertion order. The slice must not be modified.
func (m *Map) All() []*Body { return m.order }

func (m *Map) Len() int { return len(m.order) }

func (m *Map) Names() []string {
	names := make([]string, len(m.order))
	for i, b := range m.order {
		names[i] = b.Name
	}
	return names
}

// Next returns the body after b in insertion order, wrapping around. A step of
// -1 walks backwards.
func (m *Map) Next(b *Body, step int) *Body {
	n := len(m.order)
	if n == 0 {
		return nil
	}
	for i, o := range m.order {
		if o == b {
			return m.order[((i+step)%n+n)%n]
		}
	}
	return m.order[0]
}
