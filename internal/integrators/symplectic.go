package integrators

import "github.com/san-kum/orrery/internal/dynamo"

// The symplectic methods below assume the state is laid out as all positions
// followed by all velocities, so the derivative of the upper half is the
// acceleration.

// Verlet is velocity Verlet.
type Verlet struct {
	stage dynamo.State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(v.stage) != n {
		v.stage = make(dynamo.State, n)
	}

	out := make(dynamo.State, n)
	a0 := dyn.Derive(x, t)
	for i := 0; i < half; i++ {
		out[i] = x[i] + x[half+i]*dt + 0.5*a0[half+i]*dt*dt
		v.stage[i] = out[i]
		v.stage[half+i] = x[half+i]
	}

	a1 := dyn.Derive(v.stage, t+dt)
	for i := 0; i < half; i++ {
		out[half+i] = x[half+i] + 0.5*(a0[half+i]+a1[half+i])*dt
	}
	return out
}

// Leapfrog is the kick-drift-kick form.
type Leapfrog struct {
	stage dynamo.State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(l.stage) != n {
		l.stage = make(dynamo.State, n)
	}

	out := make(dynamo.State, n)
	a0 := dyn.Derive(x, t)
	for i := 0; i < half; i++ {
		l.stage[half+i] = x[half+i] + 0.5*dt*a0[half+i]
		out[i] = x[i] + dt*l.stage[half+i]
		l.stage[i] = out[i]
	}

	a1 := dyn.Derive(l.stage, t+dt)
	for i := 0; i < half; i++ {
		out[half+i] = l.stage[half+i] + 0.5*dt*a1[half+i]
	}
	return out
}
