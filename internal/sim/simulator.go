package sim

import (
	"context"
	"fmt"

	"github.com/go-kit/kit/log"
	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/mesh"
	"github.com/san-kum/odestep/internal/params"
	"gonum.org/v1/gonum/mat"
)

type Simulator struct {
	stepper       dynamo.Stepper
	observers     []dynamo.Observer
	logger        log.Logger
	validateState bool
}

type Option func(*Simulator)

func WithLogger(l log.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func WithObserver(o dynamo.Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, o) }
}

// WithStateValidation aborts a run as soon as a step produces NaN or Inf.
func WithStateValidation() Option {
	return func(s *Simulator) { s.validateState = true }
}

func New(stepper dynamo.Stepper, opts ...Option) *Simulator {
	s := &Simulator{
		stepper:   stepper,
		observers: make([]dynamo.Observer, 0),
		logger:    log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run integrates f across points starting from x0. The order of the ODE
// is len(x0)-1. x0 and p are never modified. A failing step aborts the
// run and no partial solution is returned.
func (s *Simulator) Run(ctx context.Context, f dynamo.Derivative, points []float64, x0 dynamo.State, p dynamo.Params) (*dynamo.Result, error) {
	if err := s.validate(points, x0, p); err != nil {
		return nil, err
	}

	n := len(points)
	order := x0.Order()
	logger := log.With(s.logger, "subsys", "sim", "method", s.stepper.Name())
	logger.Log("level", "debug", "status", "start", "order", order, "points", n)

	counter, counting := s.stepper.(dynamo.IterationCounter)
	if counting {
		counter.ResetIterations()
	}

	result := &dynamo.Result{
		Method:   s.stepper.Name(),
		Mesh:     append([]float64(nil), points...),
		Solution: mat.NewDense(order+1, n, nil),
	}

	x := x0.Clone()
	for i, point := range points {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		result.Solution.SetCol(i, x)
		for _, obs := range s.observers {
			obs.OnStep(i, point, x)
		}

		// the trailing step has size zero and would only copy x
		if i == n-1 {
			break
		}

		next, err := s.step(f, points, i, x, p)
		if err != nil {
			simErr := &dynamo.SimulationError{Step: i, Point: point, State: x.Clone(), Wrapped: err}
			logger.Log("level", "error", "step", i, "x", point, "err", err)
			return nil, simErr
		}

		x = next
		result.StepsTaken++
	}

	if counting {
		result.Iterations = counter.Iterations()
	}
	logger.Log("level", "debug", "status", "finished", "steps", result.StepsTaken, "iterations", result.Iterations)

	return result, nil
}

func (s *Simulator) step(f dynamo.Derivative, points []float64, i int, x dynamo.State, p dynamo.Params) (dynamo.State, error) {
	values, err := params.Broadcast(i, p)
	if err != nil {
		return nil, err
	}

	next, err := s.stepper.Step(f, x, mesh.StepSize(points, i), values)
	if err != nil {
		return nil, err
	}

	if s.validateState && !next.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	return next, nil
}

func (s *Simulator) validate(points []float64, x0 dynamo.State, p dynamo.Params) error {
	if err := mesh.Validate(points); err != nil {
		return err
	}
	if len(x0) == 0 {
		return fmt.Errorf("%w: empty initial state", dynamo.ErrDimensionMismatch)
	}
	if !x0.IsValid() {
		return fmt.Errorf("initial state: %w", dynamo.ErrInvalidState)
	}
	return params.Validate(p, len(points))
}
