package integrators

import (
	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/solver"
)

// ImplicitEuler solves only the highest derivative implicitly, by
// fixed-point iteration on y_next = y + h*f(state with y_next). Lower
// components follow the explicit update from pre-step values.
type ImplicitEuler struct {
	Tolerance float64
	Limit     int

	iterations int
}

func NewImplicitEuler(tol float64, limit int) *ImplicitEuler {
	return &ImplicitEuler{Tolerance: tol, Limit: limit}
}

func (e *ImplicitEuler) Name() string { return "implicit" }

func (e *ImplicitEuler) Step(f dynamo.Derivative, x dynamo.State, h float64, p dynamo.Values) (dynamo.State, error) {
	result := advanceLower(x, h)
	m := x.Order()
	if m < 1 {
		return result, nil
	}

	out, err := solver.Solve(f, x, h, p, e.Tolerance, e.Limit)
	e.iterations += out.Iterations
	if err != nil {
		return nil, err
	}
	result[m] = out.Value
	return result, nil
}

// Iterations is the number of fixed-point iterations since the last reset.
func (e *ImplicitEuler) Iterations() int { return e.iterations }

func (e *ImplicitEuler) ResetIterations() { e.iterations = 0 }
