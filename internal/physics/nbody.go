package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/dynamo"
)

// G is the Newtonian constant of gravitation in m^3 kg^-1 s^-2.
const G = 6.674e-11

// NBody is point-mass Newtonian gravity in three dimensions. The state holds
// all positions first and then all velocities, each as x, y, z triples.
type NBody struct {
	Masses    []float64
	G         float64
	Softening float64
}

var (
	_ dynamo.System      = (*NBody)(nil)
	_ dynamo.Hamiltonian = (*NBody)(nil)
)

func NewNBody(masses []float64) *NBody {
	return &NBody{Masses: masses, G: G, Softening: 1e3}
}

func (nb *NBody) N() int { return len(nb.Masses) }

func (nb *NBody) StateDim() int { return 6 * nb.N() }

// Pack builds a state vector from positions and velocities.
func (nb *NBody) Pack(pos, vel []r3.Vec) dynamo.State {
	n := nb.N()
	x := make(dynamo.State, 6*n)
	for i := 0; i < n; i++ {
		x[3*i], x[3*i+1], x[3*i+2] = pos[i].X, pos[i].Y, pos[i].Z
		o := 3*n + 3*i
		x[o], x[o+1], x[o+2] = vel[i].X, vel[i].Y, vel[i].Z
	}
	return x
}

// Position returns body i's position in x.
func (nb *NBody) Position(x dynamo.State, i int) r3.Vec {
	return r3.Vec{X: x[3*i], Y: x[3*i+1], Z: x[3*i+2]}
}

// Velocity returns body i's velocity in x.
func (nb *NBody) Velocity(x dynamo.State, i int) r3.Vec {
	o := 3*nb.N() + 3*i
	return r3.Vec{X: x[o], Y: x[o+1], Z: x[o+2]}
}

func (nb *NBody) Derive(x dynamo.State, t float64) dynamo.State {
	n := nb.N()
	dx := make(dynamo.State, len(x))
	copy(dx[:3*n], x[3*n:])

	acc := nb.accelerations(x)
	for i, a := range acc {
		o := 3*n + 3*i
		dx[o], dx[o+1], dx[o+2] = a.X, a.Y, a.Z
	}
	return dx
}

func (nb *NBody) accelerations(x dynamo.State) []r3.Vec {
	n := nb.N()
	acc := make([]r3.Vec, n)
	eps2 := nb.Softening * nb.Softening

	for i := 0; i < n; i++ {
		pi := nb.Position(x, i)
		for j := i + 1; j < n; j++ {
			d := r3.Sub(nb.Position(x, j), pi)
			r2 := r3.Norm2(d) + eps2
			inv3 := 1 / (r2 * math.Sqrt(r2))

			acc[i] = r3.Add(acc[i], r3.Scale(nb.G*nb.Masses[j]*inv3, d))
			acc[j] = r3.Sub(acc[j], r3.Scale(nb.G*nb.Masses[i]*inv3, d))
		}
	}
	return acc
}

// Energy is the total kinetic plus softened potential energy.
func (nb *NBody) Energy(x dynamo.State) float64 {
	n := nb.N()
	eps2 := nb.Softening * nb.Softening
	ke, pe := 0.0, 0.0
	for i := 0; i < n; i++ {
		ke += 0.5 * nb.Masses[i] * r3.Norm2(nb.Velocity(x, i))
		pi := nb.Position(x, i)
		for j := i + 1; j < n; j++ {
			r := math.Sqrt(r3.Norm2(r3.Sub(nb.Position(x, j), pi)) + eps2)
			pe -= nb.G * nb.Masses[i] * nb.Masses[j] / r
		}
	}
	return ke + pe
}

// Momentum is the total linear momentum.
func (nb *NBody) Momentum(x dynamo.State) r3.Vec {
	var p r3.Vec
	for i := 0; i < nb.N(); i++ {
		p = r3.Add(p, r3.Scale(nb.Masses[i], nb.Velocity(x, i)))
	}
	return p
}

// AngularMomentum is the total angular momentum about the origin.
func (nb *NBody) AngularMomentum(x dynamo.State) r3.Vec {
	var l r3.Vec
	for i := 0; i < nb.N(); i++ {
		l = r3.Add(l, r3.Scale(nb.Masses[i], r3.Cross(nb.Position(x, i), nb.Velocity(x, i))))
	}
	return l
}
