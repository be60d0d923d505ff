package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/sim"
)

// SweepPoint holds the distinct long-run values of one component for a
// single parameter value.
type SweepPoint struct {
	Param  float64
	Values []float64
}

// Sweep reruns the simulation once per entry of values, with parameter
// name held constant at that entry, and records the distinct values the
// chosen component takes from mesh index transient onward. Values are
// deduplicated to three decimal places.
func Sweep(
	ctx context.Context,
	s *sim.Simulator,
	f dynamo.Derivative,
	points []float64,
	x0 dynamo.State,
	p dynamo.Params,
	name string,
	values []float64,
	component, transient int,
) ([]SweepPoint, error) {
	if component < 0 || component > x0.Order() {
		return nil, fmt.Errorf("%w: component %d outside order %d", dynamo.ErrDimensionMismatch, component, x0.Order())
	}
	if transient < 0 || transient >= len(points) {
		return nil, fmt.Errorf("%w: transient %d outside mesh of %d points", dynamo.ErrInvalidMesh, transient, len(points))
	}

	swept := make(dynamo.Params, len(p)+1)
	for k, v := range p {
		swept[k] = v
	}

	results := make([]SweepPoint, 0, len(values))
	for _, value := range values {
		swept[name] = dynamo.Series{value}

		res, err := s.Run(ctx, f, points, x0, swept)
		if err != nil {
			return nil, fmt.Errorf("sweep %s=%g: %w", name, value, err)
		}

		results = append(results, SweepPoint{Param: value, Values: distinctValues(res.Row(component)[transient:])})
	}
	return results, nil
}

// distinctValues keeps the first of each group of values that agree after
// rounding to three decimal places. Non-finite values are dropped.
func distinctValues(row []float64) []float64 {
	seen := make(map[float64]bool)
	distinct := make([]float64, 0, 16)
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		key := math.Round(v * 1000)
		if !seen[key] {
			seen[key] = true
			distinct = append(distinct, v)
		}
	}
	return distinct
}

// SweepToASCII draws one column per swept value.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	var minVal, maxVal float64
	found := false
	for _, p := range data {
		for _, v := range p.Values {
			if !found {
				minVal, maxVal = v, v
				found = true
				continue
			}
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	if !found {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for i, p := range data {
		col := i * width / len(data)
		if col >= width {
			col = width - 1
		}
		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
