package integrators

import "github.com/san-kum/odestep/internal/dynamo"

// ExplicitEuler is the forward Euler scheme applied to an ODE solved for
// its highest derivative.
type ExplicitEuler struct{}

func NewExplicitEuler() *ExplicitEuler {
	return &ExplicitEuler{}
}

func (e *ExplicitEuler) Name() string { return "explicit" }

func (e *ExplicitEuler) Step(f dynamo.Derivative, x dynamo.State, h float64, p dynamo.Values) (dynamo.State, error) {
	result := advanceLower(x, h)
	if m := x.Order(); m > 0 {
		result[m] = x[m] + h*f.Evaluate(x, p)
	}
	return result, nil
}

// advanceLower moves the independent variable by h and every derivative
// below the highest by h times the next one up, all from pre-step values.
// The highest component is copied through unchanged.
func advanceLower(x dynamo.State, h float64) dynamo.State {
	result := make(dynamo.State, len(x))
	if len(x) == 0 {
		return result
	}
	m := x.Order()
	result[0] = x[0] + h
	for k := 1; k < m; k++ {
		result[k] = x[k] + h*x[k+1]
	}
	if m > 0 {
		result[m] = x[m]
	}
	return result
}
