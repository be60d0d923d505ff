// Package solver holds the scalar fixed-point iteration used by the
// implicit integrator.
package solver

import (
	"fmt"
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
)

const (
	DefaultTolerance = 1e-5
	DefaultLimit     = 100
)

// Outcome describes a finished iteration.
type Outcome struct {
	Value      float64
	Iterations int
	Residual   float64
}

// ConvergenceError is returned when the limit is hit before the residual
// drops to the tolerance. Value is the last iterate and must not be used
// as a solution.
type ConvergenceError struct {
	Iterations int
	Residual   float64
	Value      float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%v (iterations=%d, residual=%.3e)", dynamo.ErrNoConvergence, e.Iterations, e.Residual)
}

func (e *ConvergenceError) Unwrap() error {
	return dynamo.ErrNoConvergence
}

// FixedPoint solves y = x[last] + h*f(guess) for the highest-order
// component of x by successive substitution.
func FixedPoint(f dynamo.Derivative, x dynamo.State, h float64, p dynamo.Values, tol float64, limit int) (float64, error) {
	out, err := Solve(f, x, h, p, tol, limit)
	if err != nil {
		return 0, err
	}
	return out.Value, nil
}

// Solve is FixedPoint with iteration statistics. The residual is the
// change between iterates relative to the new iterate, or the absolute
// change when the new iterate is exactly zero.
func Solve(f dynamo.Derivative, x dynamo.State, h float64, p dynamo.Values, tol float64, limit int) (Outcome, error) {
	if tol < 0 || limit < 0 || math.IsNaN(tol) {
		return Outcome{}, fmt.Errorf("%w: tolerance=%g limit=%d", dynamo.ErrInvalidTolerance, tol, limit)
	}
	if len(x) == 0 {
		return Outcome{}, dynamo.ErrInvalidState
	}

	last := len(x) - 1
	guess := x.Clone()
	residual := math.Inf(1)
	iterations := 0

	for residual > tol && iterations < limit {
		next := x[last] + h*f.Evaluate(guess, p)
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return Outcome{}, fmt.Errorf("%w: %w: iterate %d is %v", dynamo.ErrNoConvergence, dynamo.ErrUnstable, iterations+1, next)
		}

		delta := math.Abs(next - guess[last])
		if next != 0 {
			residual = delta / math.Abs(next)
		} else {
			residual = delta
		}

		guess[last] = next
		iterations++
	}

	out := Outcome{Value: guess[last], Iterations: iterations, Residual: residual}
	if residual > tol {
		return out, &ConvergenceError{Iterations: iterations, Residual: residual, Value: guess[last]}
	}
	return out, nil
}
