package integrators

import "github.com/san-kum/orrery/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta method. Stage buffers are reused
// between steps of equal dimension.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	stage          dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.k1) == n {
		return
	}
	r.k1 = make(dynamo.State, n)
	r.k2 = make(dynamo.State, n)
	r.k3 = make(dynamo.State, n)
	r.k4 = make(dynamo.State, n)
	r.stage = make(dynamo.State, n)
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	r.resize(n)

	copy(r.k1, dyn.Derive(x, t))
	r.advance(x, r.k1, 0.5*dt)
	copy(r.k2, dyn.Derive(r.stage, t+0.5*dt))
	r.advance(x, r.k2, 0.5*dt)
	copy(r.k3, dyn.Derive(r.stage, t+0.5*dt))
	r.advance(x, r.k3, dt)
	copy(r.k4, dyn.Derive(r.stage, t+dt))

	out := make(dynamo.State, n)
	h := dt / 6
	for i := range out {
		out[i] = x[i] + h*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return out
}

func (r *RK4) advance(x, k dynamo.State, h float64) {
	for i := range x {
		r.stage[i] = x[i] + h*k[i]
	}
}
