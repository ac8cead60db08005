package strategy

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/clock"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/orbit"
)

// Kepler positions bodies from their orbital elements at the clock's current
// time, relative to their parent's position in the same frame. It ignores dt,
// so re-running it is always safe.
type Kepler struct {
	owned []string
}

// NewKepler owns the named bodies, or every body with elements when none are
// given. Parents must precede their satellites in the body map.
func NewKepler(names ...string) *Kepler {
	return &Kepler{owned: names}
}

func (k *Kepler) Name() string { return "kepler" }

func (k *Kepler) Apply(bodies *body.Map, dt float64, clk clock.Reader) error {
	now := clk.Now()
	update := func(b *body.Body) error {
		if b.Elements == nil {
			return nil
		}
		var base, baseVel r3.Vec
		if b.Parent != "" {
			p, err := bodies.Get(b.Parent)
			if err != nil {
				return fmt.Errorf("parent of %s: %w", b.Name, err)
			}
			base, baseVel = p.Position, p.Velocity
		}
		pos, vel := orbit.State(b.Elements, now)
		pos, vel = r3.Add(base, pos), r3.Add(baseVel, vel)
		if !finite(pos) || !finite(vel) {
			return fmt.Errorf("%w: %s", dynamo.ErrUnstable, b.Name)
		}
		b.Position, b.Velocity = pos, vel
		return nil
	}

	if len(k.owned) == 0 {
		for _, b := range bodies.All() {
			if err := update(b); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range k.owned {
		b, err := bodies.Get(name)
		if err != nil {
			return err
		}
		if err := update(b); err != nil {
			return err
		}
	}
	return nil
}

func finite(v r3.Vec) bool {
	return dynamo.IsFinite(v.X) && dynamo.IsFinite(v.Y) && dynamo.IsFinite(v.Z)
}
