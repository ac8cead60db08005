package orbit

import (
	"math"
	"testing"
	"time"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
)

func TestSolveKepler(t *testing.T) {
	tests := []struct {
		M, e float64
	}{
		{0.5, 0.0},
		{1.0, 0.1},
		{3.0, 0.5},
		{0.2, 0.9},
	}
	for _, tt := range tests {
		E := SolveKepler(tt.M, tt.e)
		if got := E - tt.e*math.Sin(E); math.Abs(got-tt.M) > 1e-10 {
			t.Errorf("SolveKepler(%f, %f): residual %e", tt.M, tt.e, got-tt.M)
		}
	}
}

func TestCircularOrbitRadius(t *testing.T) {
	el := &body.Elements{SemiMajorAxis: AU, MeanLongitude: unit.AngleFromDeg(90)}
	p := Position(el, 0)
	if math.Abs(r3.Norm(p)-AU) > 1 {
		t.Errorf("expected radius %f, got %f", AU, r3.Norm(p))
	}
	if math.Abs(p.Y) > 1e-3 {
		t.Errorf("uninclined orbit should stay in the scene XZ plane, y=%f", p.Y)
	}
}

func TestInclinedOrbitLeavesPlane(t *testing.T) {
	el := &body.Elements{
		SemiMajorAxis: AU,
		Inclination:   unit.AngleFromDeg(30),
		MeanLongitude: unit.AngleFromDeg(90),
	}
	p := Position(el, 0)
	n, _ := body.OrbitalPlaneNormal(&body.Body{Kind: body.Planet, Elements: el})
	if d := r3.Dot(p, n); math.Abs(d) > 1e-3*AU {
		t.Errorf("position should lie in the orbital plane, dot=%f", d)
	}
	if math.Abs(p.Y) < 0.1*AU {
		t.Errorf("inclined orbit should leave the ecliptic, y=%f", p.Y)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	v := r3.Vec{X: 1, Y: 2, Z: 3}
	if got := SceneToEcliptic(EclipticToScene(v)); got != v {
		t.Errorf("expected %v, got %v", v, got)
	}
	if got := EclipticToScene(r3.Vec{Z: 1}); got != (r3.Vec{Y: 1}) {
		t.Errorf("ecliptic north should map to scene up, got %v", got)
	}
}

func TestStateVelocityMatchesCircularSpeed(t *testing.T) {
	// one revolution per Julian year
	el := &body.Elements{
		SemiMajorAxis:     AU,
		MeanLongitudeRate: unit.AngleFromDeg(36000),
	}
	epoch := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	_, v := State(el, epoch)
	want := 2 * math.Pi * AU / (DaysPerCentury / 100 * SecondsPerDay)
	if math.Abs(r3.Norm(v)-want)/want > 1e-4 {
		t.Errorf("expected speed %f, got %f", want, r3.Norm(v))
	}
}
