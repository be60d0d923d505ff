// Package mesh builds and inspects the independent-variable grids that
// integrators step across.
package mesh

import (
	"fmt"
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Linspace returns n evenly spaced points from start to stop inclusive.
func Linspace(start, stop float64, n int) ([]float64, error) {
	switch {
	case n < 1:
		return nil, fmt.Errorf("%w: %d points", dynamo.ErrEmptyMesh, n)
	case n == 1:
		return []float64{start}, nil
	}
	return floats.Span(make([]float64, n), start, stop), nil
}

// Arange returns start, start+step, ... up to stop, including stop when it
// lands on the grid within rounding.
func Arange(start, stop, step float64) ([]float64, error) {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w: step must be positive and finite, got %g", dynamo.ErrInvalidMesh, step)
	}
	if stop < start {
		return nil, fmt.Errorf("%w: stop %g before start %g", dynamo.ErrInvalidMesh, stop, start)
	}
	n := int(math.Floor((stop-start)/step+1e-9)) + 1
	points := make([]float64, n)
	for i := range points {
		points[i] = start + float64(i)*step
	}
	return points, nil
}

// Validate rejects empty meshes and non-finite points.
func Validate(points []float64) error {
	if len(points) == 0 {
		return dynamo.ErrEmptyMesh
	}
	if floats.HasNaN(points) {
		return dynamo.ErrInvalidMesh
	}
	for i, v := range points {
		if math.IsInf(v, 0) {
			return fmt.Errorf("%w: point %d is %v", dynamo.ErrInvalidMesh, i, v)
		}
	}
	return nil
}

// StepSize is the distance from point i to the next one. The last point
// has no successor and gets a step size of zero.
func StepSize(points []float64, i int) float64 {
	if i+1 >= len(points) {
		return 0
	}
	return points[i+1] - points[i]
}

// Steps returns every step size, including the trailing zero.
func Steps(points []float64) []float64 {
	h := make([]float64, len(points))
	for i := range points {
		h[i] = StepSize(points, i)
	}
	return h
}
