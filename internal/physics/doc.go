// Package physics holds the dynamical systems integrated by the gravity
// strategy.
//
// [NBody] implements [dynamo.System] and [dynamo.Hamiltonian], so energy drift
// can be monitored while it runs:
//
//	nb := physics.NewNBody(masses)
//	x := nb.Pack(positions, velocities)
//	x = integ.Step(nb, x, t, dt)
//	e := nb.Energy(x)
package physics
