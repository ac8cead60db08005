package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid values, or an operation
	// requested in a state that cannot honor it.
	ErrInvalidState = errors.New("dynamo: invalid state")

	// ErrInvalidInput indicates a non-finite time, delta or scale reached a boundary.
	ErrInvalidInput = errors.New("dynamo: invalid input (NaN or Inf)")

	// ErrNotFound indicates a body lookup by name failed.
	ErrNotFound = errors.New("dynamo: body not found")

	// ErrDuplicateBody indicates two bodies share the same case-insensitive name.
	ErrDuplicateBody = errors.New("dynamo: duplicate body name")

	// ErrFetchFailed indicates the data collaborator could not supply kinematics.
	ErrFetchFailed = errors.New("dynamo: kinematics fetch failed")

	// ErrSuperseded indicates a newer request replaced this one before it applied.
	ErrSuperseded = errors.New("dynamo: request superseded")

	// ErrUnstable indicates the simulation became numerically unstable.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")
)

// Phase names the part of a frame that failed.
type Phase string

const (
	PhaseClock    Phase = "clock"
	PhaseStrategy Phase = "strategy"
	PhaseControls Phase = "controls"
	PhaseCamera   Phase = "camera"
	PhaseObserve  Phase = "observe"
	PhaseRender   Phase = "render"
)

// FrameError wraps an error with frame context. The frame loop keeps running
// after returning one.
type FrameError struct {
	Frame   uint64
	Phase   Phase
	Wrapped error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d (%s): %v", e.Frame, e.Phase, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}

// PanicError carries a value recovered from a panicking update.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
