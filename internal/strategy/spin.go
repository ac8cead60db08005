package strategy

import (
	"math"

	"github.com/soniakeys/meeus/v3/julian"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/clock"
	"github.com/san-kum/orrery/internal/orbit"
)

// Spin sets each body's rotation about its own axis from the clock's time,
// taking the angle as zero at J2000. It writes only Body.Spin, so it can run
// alongside any position strategy.
type Spin struct{}

func NewSpin() *Spin { return &Spin{} }

func (s *Spin) Name() string { return "spin" }

func (s *Spin) Apply(bodies *body.Map, dt float64, clk clock.Reader) error {
	elapsed := (julian.TimeToJD(clk.Now()) - orbit.J2000) * orbit.SecondsPerDay
	for _, b := range bodies.All() {
		if b.RotationPeriod == 0 {
			continue
		}
		turns := elapsed / b.RotationPeriod
		b.Spin = 2 * math.Pi * (turns - math.Floor(turns))
	}
	return nil
}
