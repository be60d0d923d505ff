package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Comparison holds per-component distances between two solutions.
type Comparison struct {
	MaxAbs []float64 // infinity norm of the difference, per component
	RMS    []float64
}

// Max is the largest absolute difference over every component.
func (c Comparison) Max() float64 {
	if len(c.MaxAbs) == 0 {
		return 0
	}
	return floats.Max(c.MaxAbs)
}

// Compare measures how far b departs from a. Both must share the same
// mesh and order.
func Compare(a, b *dynamo.Result) (Comparison, error) {
	ar, ac := a.Solution.Dims()
	br, bc := b.Solution.Dims()
	if ar != br || ac != bc {
		return Comparison{}, fmt.Errorf("%w: %dx%d vs %dx%d", dynamo.ErrDimensionMismatch, ar, ac, br, bc)
	}
	if !floats.Equal(a.Mesh, b.Mesh) {
		return Comparison{}, fmt.Errorf("%w: solutions use different meshes", dynamo.ErrInvalidMesh)
	}

	cmp := Comparison{
		MaxAbs: make([]float64, ar),
		RMS:    make([]float64, ar),
	}
	for k := 0; k < ar; k++ {
		ra := mat.Row(nil, k, a.Solution)
		rb := mat.Row(nil, k, b.Solution)
		cmp.MaxAbs[k] = floats.Distance(ra, rb, math.Inf(1))
		cmp.RMS[k] = floats.Distance(ra, rb, 2) / math.Sqrt(float64(ac))
	}
	return cmp, nil
}
