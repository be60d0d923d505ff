package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration runs.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the iteration produced a non-finite value.
	ErrUnstable = errors.New("dynamo: integration unstable (state diverged)")

	// ErrDimensionMismatch indicates an initial state that does not fit the declared order.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and order")

	// ErrEmptyMesh indicates a mesh without any points.
	ErrEmptyMesh = errors.New("dynamo: mesh needs at least one point")

	// ErrInvalidMesh indicates a mesh with NaN or Inf points.
	ErrInvalidMesh = errors.New("dynamo: mesh contains NaN or Inf")

	// ErrParamIndex indicates a step index outside a varying parameter series.
	ErrParamIndex = errors.New("dynamo: step index out of parameter range")

	// ErrParamLength indicates a parameter series that is neither constant nor mesh sized.
	ErrParamLength = errors.New("dynamo: parameter length does not match mesh")

	// ErrNoConvergence indicates the fixed-point iteration hit its limit.
	ErrNoConvergence = errors.New("dynamo: exceeded iteration limit, does not converge or converges too slowly")

	// ErrInvalidTolerance indicates a negative tolerance or iteration limit.
	ErrInvalidTolerance = errors.New("dynamo: tolerance and limit must not be negative")

	// ErrContextCanceled indicates the run was interrupted.
	ErrContextCanceled = errors.New("dynamo: integration canceled by context")
)

// SimulationError wraps a step failure with its position in the run.
type SimulationError struct {
	Step    int
	Point   float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (x=%.6g): %v", e.Step, e.Point, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
