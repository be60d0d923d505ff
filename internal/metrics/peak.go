package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
)

// Peak is the largest absolute value one state component reaches.
type Peak struct {
	name      string
	component int
	peak      float64
}

func NewPeak(component int) *Peak {
	name := "peak_y"
	if component > 1 {
		name = fmt.Sprintf("peak_d%dy", component-1)
	}
	return &Peak{name: name, component: component}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) OnStep(step int, point float64, x dynamo.State) {
	if p.component >= len(x) {
		return
	}
	p.peak = math.Max(p.peak, math.Abs(x[p.component]))
}

func (p *Peak) Value() float64 { return p.peak }

func (p *Peak) Reset() { p.peak = 0 }
