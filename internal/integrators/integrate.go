// Package integrators implements the single-step Euler schemes and the
// whole-mesh operations built on them.
package integrators

import (
	"context"

	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/sim"
	"github.com/san-kum/odestep/internal/solver"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultTolerance = solver.DefaultTolerance
	DefaultLimit     = solver.DefaultLimit
)

// Explicit approximates f over mesh with forward Euler. The returned
// matrix has len(x0) rows and one column per mesh point.
func Explicit(f dynamo.Derivative, mesh []float64, x0 dynamo.State, p dynamo.Params) (*mat.Dense, error) {
	return integrate(NewExplicitEuler(), f, mesh, x0, p)
}

// Implicit approximates f over mesh, solving the highest derivative of
// every step by fixed-point iteration. Pass DefaultTolerance and
// DefaultLimit for the usual settings.
func Implicit(f dynamo.Derivative, mesh []float64, x0 dynamo.State, p dynamo.Params, tol float64, limit int) (*mat.Dense, error) {
	return integrate(NewImplicitEuler(tol, limit), f, mesh, x0, p)
}

func integrate(stepper dynamo.Stepper, f dynamo.Derivative, mesh []float64, x0 dynamo.State, p dynamo.Params) (*mat.Dense, error) {
	result, err := sim.New(stepper).Run(context.Background(), f, mesh, x0, p)
	if err != nil {
		return nil, err
	}
	return result.Solution, nil
}
