// Package dynamo provides the core primitives for single-step ODE
// integration.
//
// An ODE of order n is solved for its highest derivative and integrated
// over a mesh of independent-variable points:
//
//   - [State]: [x, y, y', ..., y^(n)] at one mesh point
//   - [Derivative]: y^(n) = f(state, parameters)
//   - [Params] / [Values]: parameter series and their per-step view
//   - [Stepper]: advances a state by one step
//   - [Result]: the (n+1) x len(mesh) solution matrix
//
// # Example
//
//	f := dynamo.DerivativeFunc(func(x dynamo.State, p dynamo.Values) float64 {
//		return -p["k"] * x[1]
//	})
//	s := sim.New(integrators.NewExplicitEuler())
//	result, _ := s.Run(ctx, f, mesh, dynamo.State{0, 1}, dynamo.Params{"k": {0.5}})
//
// # Thread Safety
//
// Steppers that count iterations are NOT thread-safe. Use [sim.Batch]
// for parallel runs; it builds a fresh stepper per run.
package dynamo
