// Package automation runs scripted sequences of integrations and
// randomized trials around an initial state.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/san-kum/odestep/internal/config"
	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/experiment"
	"github.com/san-kum/odestep/internal/sim"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. Fields left out of the file keep the values of
// config.DefaultConfig.
type ScenarioStep struct {
	config.Config `yaml:",inline"`
	SaveAs        string `yaml:"save_as,omitempty"`
}

func (s *ScenarioStep) UnmarshalYAML(node *yaml.Node) error {
	type plain ScenarioStep
	p := plain{Config: *config.DefaultConfig()}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = ScenarioStep(p)
	return nil
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Step    ScenarioStep
	Result  *dynamo.Result
	Metrics map[string]float64
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Build resolves a config against the registry into an experiment that is
// ready to run. An empty initial state takes the model default, moved to
// the first mesh point.
func Build(registry *experiment.Registry, cfg *config.Config, opts ...sim.Option) (*experiment.Experiment, error) {
	model, err := registry.GetModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	stepper, err := registry.GetMethod(cfg.Method, cfg.Tolerance, cfg.Limit)
	if err != nil {
		return nil, err
	}
	points, err := cfg.Mesh.Build()
	if err != nil {
		return nil, err
	}

	x0 := append([]float64(nil), cfg.InitState...)
	if len(x0) == 0 {
		x0 = model.DefaultState()
		x0[0] = points[0]
	}

	exp := experiment.New(experiment.Config{
		Model:     cfg.Model,
		Method:    cfg.Method,
		Mesh:      points,
		InitState: x0,
		Order:     cfg.Order,
		Params:    cfg.GetParams(),
		Tolerance: cfg.Tolerance,
		Limit:     cfg.Limit,
	})
	if err := exp.Setup(model, stepper, opts...); err != nil {
		return nil, err
	}
	return exp, nil
}

// RunScenario executes all steps in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, logger log.Logger, opts ...sim.Option) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		logger.Log("level", "info", "msg", "scenario step", "step", i+1, "of", len(scenario.Steps), "model", step.Model, "method", step.Method)

		cfg := step.Config
		exp, err := Build(registry, &cfg, opts...)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		mets := registry.DefaultMetrics(step.Model, exp.Params())
		for _, m := range mets {
			exp.GetSimulator().AddObserver(m)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		values := make(map[string]float64, len(mets))
		for _, m := range mets {
			values[m.Name()] = m.Value()
		}
		results = append(results, StepResult{Step: step, Result: result, Metrics: values})
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	// Perturbation is the half width of the uniform offset added to every
	// component but x.
	Perturbation float64
	NumTrials    int
	Seed         int64
	Workers      int
	// Bound is the magnitude past which a final state counts as unstable.
	Bound float64
}

// MonteCarloResult holds one trial
type MonteCarloResult struct {
	TrialID    int
	InitState  dynamo.State
	FinalState dynamo.State
	Stable     bool
	Err        error
}

// RunMonteCarlo integrates NumTrials randomly perturbed copies of base.
// A trial whose integration fails is recorded as unstable; only
// cancellation aborts the whole run.
func RunMonteCarlo(
	ctx context.Context,
	cfg MonteCarloConfig,
	newStepper func() dynamo.Stepper,
	f dynamo.Derivative,
	points []float64,
	base dynamo.State,
	p dynamo.Params,
) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("trials must be positive, got %d", cfg.NumTrials)
	}
	bound := cfg.Bound
	if bound <= 0 {
		bound = 1e6
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	results := make([]MonteCarloResult, cfg.NumTrials)
	for trial := range results {
		initState := base.Clone()
		for k := 1; k < len(initState); k++ {
			initState[k] += (rng.Float64() - 0.5) * 2 * cfg.Perturbation
		}
		results[trial] = MonteCarloResult{TrialID: trial, InitState: initState}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range results {
		i := i
		g.Go(func() error {
			r := &results[i]
			res, err := sim.New(newStepper()).Run(gctx, f, points, r.InitState.Clone(), p)
			if err != nil {
				if errors.Is(err, dynamo.ErrContextCanceled) {
					return err
				}
				r.Err = err
				return nil
			}
			r.FinalState = res.Final()
			r.Stable = bounded(r.FinalState, bound)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func bounded(x dynamo.State, bound float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.Abs(v) > bound {
			return false
		}
	}
	return true
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
