package integrators

import (
	"math"

	"github.com/san-kum/orrery/internal/dynamo"
)

// Dormand-Prince tableau
var (
	c2, c3, c4, c5 = 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9

	a21                     = 1.0 / 5
	a31, a32                = 3.0 / 40, 9.0 / 40
	a41, a42, a43           = 44.0 / 45, -56.0 / 15, 32.0 / 9
	a51, a52, a53, a54      = 19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729
	a61, a62, a63, a64, a65 = 9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656

	b1, b3, b4, b5, b6 = 35.0 / 384, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84

	e1 = b1 - 5179.0/57600
	e3 = b3 - 7571.0/16695
	e4 = b4 - 393.0/640
	e5 = b5 + 92097.0/339200
	e6 = b6 - 187.0/2100
	e7 = -1.0 / 40
)

// RK45 is the embedded Dormand-Prince 5(4) pair. Step takes a fixed step;
// StepAdaptive also proposes the next step size.
type RK45 struct {
	Tolerance float64
	safety    float64
	minScale  float64
	maxScale  float64
}

func NewRK45() *RK45 {
	return &RK45{Tolerance: 1e-9, safety: 0.9, minScale: 0.2, maxScale: 10}
}

func (r *RK45) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	out, _ := r.StepAdaptive(dyn, x, t, dt, r.Tolerance)
	return out
}

func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, t, dt, tol float64) (dynamo.State, float64) {
	n := len(x)
	combine := func(ws []float64, ks ...dynamo.State) dynamo.State {
		s := make(dynamo.State, n)
		for i := range s {
			acc := 0.0
			for j, k := range ks {
				acc += ws[j] * k[i]
			}
			s[i] = x[i] + dt*acc
		}
		return s
	}

	k1 := dyn.Derive(x, t)
	k2 := dyn.Derive(combine([]float64{a21}, k1), t+c2*dt)
	k3 := dyn.Derive(combine([]float64{a31, a32}, k1, k2), t+c3*dt)
	k4 := dyn.Derive(combine([]float64{a41, a42, a43}, k1, k2, k3), t+c4*dt)
	k5 := dyn.Derive(combine([]float64{a51, a52, a53, a54}, k1, k2, k3, k4), t+c5*dt)
	k6 := dyn.Derive(combine([]float64{a61, a62, a63, a64, a65}, k1, k2, k3, k4, k5), t+dt)
	out := combine([]float64{b1, 0, b3, b4, b5, b6}, k1, k2, k3, k4, k5, k6)
	k7 := dyn.Derive(out, t+dt)

	worst := 0.0
	for i := 0; i < n; i++ {
		est := dt * (e1*k1[i] + e3*k3[i] + e4*k4[i] + e5*k5[i] + e6*k6[i] + e7*k7[i])
		sc := math.Abs(x[i]) + math.Abs(dt*k1[i]) + 1e-10
		worst = math.Max(worst, math.Abs(est)/sc)
	}

	ratio := worst / tol
	switch {
	case ratio > 1:
		return out, dt * math.Max(r.minScale, r.safety*math.Pow(ratio, -0.25))
	case ratio > 0:
		return out, dt * math.Min(r.maxScale, r.safety*math.Pow(ratio, -0.2))
	default:
		return out, dt * r.maxScale
	}
}
