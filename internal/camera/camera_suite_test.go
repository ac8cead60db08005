package camera

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
)

func TestCamera(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Camera Suite")
}

const au = 1.495978707e11

func newEarth() *body.Body {
	return &body.Body{
		Name:      "Earth",
		Kind:      body.Planet,
		Parent:    "Sun",
		Radius:    6371e3,
		Position:  r3.Vec{X: au},
		Elements:  &body.Elements{SemiMajorAxis: au, Inclination: unit.AngleFromDeg(1.5), AscendingNode: unit.AngleFromDeg(40)},
		Obliquity: unit.AngleFromDeg(23.44),
	}
}

func newMars() *body.Body {
	return &body.Body{
		Name:     "Mars",
		Kind:     body.Planet,
		Parent:   "Sun",
		Radius:   3389.5e3,
		Position: r3.Vec{X: 1.5 * au, Z: -0.3 * au},
	}
}

func newSun() *body.Body {
	return &body.Body{Name: "Sun", Kind: body.Star, Radius: 695700e3}
}

func expectNear(actual, want r3.Vec, tol float64) {
	GinkgoHelper()
	Expect(r3.Norm(r3.Sub(actual, want))).To(BeNumerically("<=", tol), "got %v, want %v", actual, want)
}

// settle ticks until the transition finishes.
func settle(t *Targeting) {
	GinkgoHelper()
	for i := 0; i < 10000 && t.InTransition(); i++ {
		t.Tick(1.0 / 60)
	}
	Expect(t.InTransition()).To(BeFalse())
}
