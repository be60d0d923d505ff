// Package params turns parameter series into the per-step values seen by
// a derivative function.
package params

import (
	"fmt"
	"sort"

	"github.com/san-kum/odestep/internal/dynamo"
)

// Broadcast returns the parameter values for mesh index step. A constant
// series yields its only element at every step; a varying series yields
// the element at step. Constants come back as that single float64, not as
// a one-element series.
func Broadcast(step int, p dynamo.Params) (dynamo.Values, error) {
	out := make(dynamo.Values, len(p))
	for name, s := range p {
		switch {
		case len(s) == 0:
			return nil, fmt.Errorf("%w: %q is empty", dynamo.ErrParamLength, name)
		case s.Constant():
			out[name] = s[0]
		case step < 0 || step >= len(s):
			return nil, fmt.Errorf("%w: %q has %d values, step %d", dynamo.ErrParamIndex, name, len(s), step)
		default:
			out[name] = s[step]
		}
	}
	return out, nil
}

// Validate checks that every series is constant or one value per mesh point.
func Validate(p dynamo.Params, meshLen int) error {
	for _, name := range Names(p) {
		n := len(p[name])
		if n != 1 && n != meshLen {
			return fmt.Errorf("%w: %q has %d values, mesh has %d points", dynamo.ErrParamLength, name, n, meshLen)
		}
	}
	return nil
}

// Names returns the parameter names in sorted order.
func Names(p dynamo.Params) []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
