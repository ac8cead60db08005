package strategy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/clock"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/physics"
)

// Gravity integrates Newtonian n-body dynamics for the bodies it owns. Large
// deltas are split into substeps of at most MaxStep seconds, capped at
// MaxSubsteps per frame; past the cap each substep grows instead.
type Gravity struct {
	owned       []string
	sys         *physics.NBody
	integ       dynamo.Integrator
	MaxStep     float64
	MaxSubsteps int
}

// NewGravity owns the given bodies and reads their masses once.
func NewGravity(bodies []*body.Body, integ dynamo.Integrator) *Gravity {
	names := make([]string, len(bodies))
	masses := make([]float64, len(bodies))
	for i, b := range bodies {
		names[i] = b.Name
		masses[i] = b.Mass
	}
	return &Gravity{
		owned:       names,
		sys:         physics.NewNBody(masses),
		integ:       integ,
		MaxStep:     3600,
		MaxSubsteps: 512,
	}
}

func (g *Gravity) Name() string { return "gravity" }

// System exposes the underlying n-body model.
func (g *Gravity) System() *physics.NBody { return g.sys }

func (g *Gravity) resolve(bodies *body.Map) ([]*body.Body, error) {
	out := make([]*body.Body, len(g.owned))
	for i, name := range g.owned {
		b, err := bodies.Get(name)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func (g *Gravity) pack(owned []*body.Body) dynamo.State {
	pos := make([]r3.Vec, len(owned))
	vel := make([]r3.Vec, len(owned))
	for i, b := range owned {
		pos[i], vel[i] = b.Position, b.Velocity
	}
	return g.sys.Pack(pos, vel)
}

// Substeps returns how many steps dt is split into.
func (g *Gravity) Substeps(dt float64) int {
	if dt == 0 {
		return 0
	}
	n := 1
	if g.MaxStep > 0 {
		n = int(math.Ceil(math.Abs(dt) / g.MaxStep))
	}
	if g.MaxSubsteps > 0 && n > g.MaxSubsteps {
		n = g.MaxSubsteps
	}
	return n
}

func (g *Gravity) Apply(bodies *body.Map, dt float64, clk clock.Reader) error {
	n := g.Substeps(dt)
	if n == 0 {
		return nil
	}
	owned, err := g.resolve(bodies)
	if err != nil {
		return err
	}

	x := g.pack(owned)
	h := dt / float64(n)
	for i := 0; i < n; i++ {
		x = g.integ.Step(g.sys, x, float64(i)*h, h)
	}
	if !x.IsValid() {
		return fmt.Errorf("%w: after %d substeps of %gs", dynamo.ErrUnstable, n, h)
	}

	for i, b := range owned {
		b.Position = g.sys.Position(x, i)
		b.Velocity = g.sys.Velocity(x, i)
	}
	return nil
}

// Energy returns the total energy of the owned bodies.
func (g *Gravity) Energy(bodies *body.Map) (float64, error) {
	owned, err := g.resolve(bodies)
	if err != nil {
		return 0, err
	}
	return g.sys.Energy(g.pack(owned)), nil
}
