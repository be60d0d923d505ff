package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/mesh"
	"github.com/san-kum/odestep/internal/params"
)

// LyapunovExponent estimates the largest Lyapunov exponent by stepping a
// reference state and a copy whose first dependent component is offset by
// perturbation. After every step the separation is measured and the copy
// is pulled back to distance perturbation along the same direction.
//
//	λ ≈ Σ ln(|δ_i| / δ_0) / (x_n - x_0)
//
// A positive value indicates nearby solutions diverge.
func LyapunovExponent(
	stepper dynamo.Stepper,
	f dynamo.Derivative,
	points []float64,
	x0 dynamo.State,
	p dynamo.Params,
	perturbation float64,
) (float64, error) {
	if err := mesh.Validate(points); err != nil {
		return 0, err
	}
	if x0.Order() < 1 {
		return 0, fmt.Errorf("%w: need at least one dependent component", dynamo.ErrDimensionMismatch)
	}
	if perturbation <= 0 {
		return 0, fmt.Errorf("perturbation must be positive, got %g", perturbation)
	}
	if err := params.Validate(p, len(points)); err != nil {
		return 0, err
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[1] += perturbation

	sumLog := 0.0
	elapsed := 0.0
	for i := 0; i < len(points)-1; i++ {
		values, err := params.Broadcast(i, p)
		if err != nil {
			return 0, err
		}
		h := mesh.StepSize(points, i)

		if x, err = stepper.Step(f, x, h, values); err != nil {
			return 0, &dynamo.SimulationError{Step: i, Point: points[i], State: x0, Wrapped: err}
		}
		if xp, err = stepper.Step(f, xp, h, values); err != nil {
			return 0, &dynamo.SimulationError{Step: i, Point: points[i], State: x0, Wrapped: err}
		}
		elapsed += h

		sep := separation(x, xp)
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			continue
		}
		sumLog += math.Log(sep / perturbation)

		scale := perturbation / sep
		for k := 1; k < len(xp); k++ {
			xp[k] = x[k] + (xp[k]-x[k])*scale
		}
	}

	if elapsed == 0 {
		return 0, nil
	}
	return sumLog / elapsed, nil
}

// separation ignores component 0, which both states share.
func separation(a, b dynamo.State) float64 {
	sep := 0.0
	for k := 1; k < len(a); k++ {
		d := b[k] - a[k]
		sep += d * d
	}
	return math.Sqrt(sep)
}
