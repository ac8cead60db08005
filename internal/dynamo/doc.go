// Package dynamo provides the numeric primitives and domain errors shared by
// the simulation packages.
//
//   - [State]: flat vector of body positions followed by velocities
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: numerical stepper over a [System]
//   - [FrameError]: an aborted frame update phase
//
// Errors are sentinels compared with errors.Is:
//
//	if errors.Is(err, dynamo.ErrNotFound) {
//	    // unknown body name
//	}
package dynamo
