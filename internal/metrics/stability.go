package metrics

import (
	"math"
	"time"

	"github.com/san-kum/orrery/internal/body"
)

// Stability is the fraction of frames in which every body stayed finite and
// within threshold meters of the origin.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) OnFrame(bodies *body.Map, _ time.Time) {
	s.samples++
	for _, b := range bodies.All() {
		p := b.Position
		r := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
		if math.IsNaN(r) || math.IsInf(r, 0) || r > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
