package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// State is laid out as [x, y(x), y'(x), ..., y^(n)(x)]. Index 0 holds the
// independent variable and the last index the highest-order derivative.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Order is the highest derivative held by the state.
func (s State) Order() int {
	return len(s) - 1
}

// CheckOrder validates a state against an explicitly declared order.
func CheckOrder(x State, order int) error {
	if order < 0 || len(x) != order+1 {
		return fmt.Errorf("%w: order %d needs %d initial values, got %d",
			ErrDimensionMismatch, order, order+1, len(x))
	}
	return nil
}

// Series is a single parameter. A length-1 series is constant over the
// mesh; any other length must match the mesh and is indexed per step.
type Series []float64

func (s Series) Constant() bool {
	return len(s) == 1
}

// Params maps parameter names to their series.
type Params map[string]Series

// Values is the per-step view of Params handed to a Derivative.
type Values map[string]float64

// Derivative is an ODE solved for its highest-order derivative.
// Implementations must be free of side effects.
type Derivative interface {
	Evaluate(x State, p Values) float64
}

// DerivativeFunc adapts a plain function to Derivative.
type DerivativeFunc func(x State, p Values) float64

func (f DerivativeFunc) Evaluate(x State, p Values) float64 {
	return f(x, p)
}

// Stepper advances a state by a single step of size h.
type Stepper interface {
	Name() string
	Step(f Derivative, x State, h float64, p Values) (State, error)
}

// IterationCounter is implemented by steppers that iterate internally.
type IterationCounter interface {
	Iterations() int
	ResetIterations()
}

type Observer interface {
	OnStep(step int, point float64, x State)
}

// Result owns the solution of one run. Column i of Solution is the state
// at Mesh[i].
type Result struct {
	Method     string
	Mesh       []float64
	Solution   *mat.Dense
	StepsTaken int
	Iterations int
}

// Column returns a copy of the state recorded at mesh index i.
func (r *Result) Column(i int) State {
	return State(mat.Col(nil, i, r.Solution))
}

// Row returns a copy of state component k over the whole mesh.
func (r *Result) Row(k int) []float64 {
	return mat.Row(nil, k, r.Solution)
}

// Final returns the last recorded state.
func (r *Result) Final() State {
	_, c := r.Solution.Dims()
	return r.Column(c - 1)
}
