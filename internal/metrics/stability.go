package metrics

import (
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
)

// Stability is the fraction of mesh points at which every dependent
// component stays within bound in absolute value. NaN counts as out of
// bound.
type Stability struct {
	bound      float64
	samples    int
	violations int
	first      float64
}

func NewStability(bound float64) *Stability {
	return &Stability{bound: bound, first: math.NaN()}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) OnStep(step int, point float64, x dynamo.State) {
	s.samples++
	if s.within(x) {
		return
	}
	if s.violations == 0 {
		s.first = point
	}
	s.violations++
}

func (s *Stability) within(x dynamo.State) bool {
	for _, v := range x[1:] {
		if !(math.Abs(v) <= s.bound) {
			return false
		}
	}
	return true
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1
	}
	return 1 - float64(s.violations)/float64(s.samples)
}

// FirstViolation is the mesh point where the bound was first exceeded,
// or NaN while the run has stayed within it.
func (s *Stability) FirstViolation() float64 { return s.first }

func (s *Stability) Reset() {
	s.samples, s.violations = 0, 0
	s.first = math.NaN()
}
