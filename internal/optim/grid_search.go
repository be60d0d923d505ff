// Package optim searches constant parameter values for the run that
// minimizes a scalar objective.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/experiment"
	"github.com/san-kum/odestep/internal/metrics"
)

var ErrNoCandidate = errors.New("no candidate could be evaluated")

// Objective scores one candidate. Lower is better.
type Objective func(ctx context.Context, candidate dynamo.Params) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("parameter %s has no values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of candidates Search evaluates.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every combination of values, each held constant over the
// mesh. Candidates whose objective fails or is NaN are skipped.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), objective, &best, &bestParams); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoCandidate
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
	}

	if depth == len(g.paramNames) {
		candidate := make(dynamo.Params, len(current))
		for k, v := range current {
			candidate[k] = dynamo.Series{v}
		}

		val, err := objective(ctx, candidate)
		if err != nil {
			if errors.Is(err, dynamo.ErrContextCanceled) {
				return err
			}
			return nil
		}

		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, objective, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

// MetricObjective runs an experiment per candidate, with the candidate
// overlaid on cfg.Params, and scores it by the named default metric.
// newExperiment must return an experiment that has been set up.
func MetricObjective(
	registry *experiment.Registry,
	newExperiment func(params dynamo.Params) (*experiment.Experiment, error),
	base dynamo.Params,
	metricName string,
) Objective {
	return func(ctx context.Context, candidate dynamo.Params) (float64, error) {
		p := make(dynamo.Params, len(base)+len(candidate))
		for k, v := range base {
			p[k] = v
		}
		for k, v := range candidate {
			p[k] = v
		}

		exp, err := newExperiment(p)
		if err != nil {
			return 0, err
		}

		var target metrics.Metric
		for _, m := range registry.DefaultMetrics(exp.ModelName(), exp.Params()) {
			if m.Name() == metricName {
				target = m
			}
		}
		if target == nil {
			return 0, fmt.Errorf("model %s has no metric %q", exp.ModelName(), metricName)
		}
		exp.GetSimulator().AddObserver(target)

		if _, err := exp.Run(ctx); err != nil {
			return 0, err
		}
		v := target.Value()
		if math.IsNaN(v) {
			return 0, fmt.Errorf("metric %s is NaN", metricName)
		}
		return v, nil
	}
}
