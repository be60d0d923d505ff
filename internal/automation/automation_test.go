package automation

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/experiment"
	"github.com/san-kum/odestep/internal/integrators"
	"github.com/san-kum/odestep/internal/solver"
)

const scenarioYAML = `name: warmup
description: decay then oscillator
steps:
  - model: decay
    mesh:
      start: 0
      stop: 1
      points: 3
    params:
      k: [1]
    save_as: decay-run
  - model: oscillator
    method: implicit
    mesh:
      start: 0
      stop: 0.1
      points: 2
`

func writeScenario(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenarioDefaults(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sc.Name != "warmup" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}

	first := sc.Steps[0]
	if first.Method != "explicit" {
		t.Errorf("method should default to explicit, got %q", first.Method)
	}
	if first.Tolerance != solver.DefaultTolerance || first.Limit != solver.DefaultLimit {
		t.Errorf("solver settings should default, got %v/%d", first.Tolerance, first.Limit)
	}
	if first.SaveAs != "decay-run" {
		t.Errorf("expected save_as decay-run, got %q", first.SaveAs)
	}
	if sc.Steps[1].Method != "implicit" {
		t.Errorf("expected implicit, got %q", sc.Steps[1].Method)
	}
}

func TestLoadScenarioEmpty(t *testing.T) {
	if _, err := LoadScenario(writeScenario(t, "name: nothing\n")); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), log.NewNopLogger())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	final := results[0].Result.Final()
	if math.Abs(final[1]-0.25) > 1e-12 {
		t.Errorf("expected y=0.25 after two explicit steps, got %v", final[1])
	}
	if _, ok := results[1].Metrics["energy_drift"]; !ok {
		t.Errorf("oscillator step should report energy drift, got %v", results[1].Metrics)
	}
	for i, r := range results {
		if r.Metrics["stability"] != 1 {
			t.Errorf("step %d: expected stability 1, got %v", i, r.Metrics["stability"])
		}
	}
}

func TestRunScenarioStopsAtFailure(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML+"  - model: nonexistent\n"))
	if err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), log.NewNopLogger())
	if err == nil {
		t.Fatal("expected error for unknown model")
	}
	if len(results) != 2 {
		t.Errorf("expected the 2 completed steps, got %d", len(results))
	}
}

func TestRunMonteCarlo(t *testing.T) {
	decay := dynamo.DerivativeFunc(func(x dynamo.State, p dynamo.Values) float64 { return -x[1] })
	newStepper := func() dynamo.Stepper { return integrators.NewExplicitEuler() }

	cfg := MonteCarloConfig{Perturbation: 0.1, NumTrials: 20, Seed: 7, Workers: 4}
	results, err := RunMonteCarlo(context.Background(), cfg, newStepper, decay, []float64{0, 0.5, 1}, dynamo.State{0, 1}, nil)
	if err != nil {
		t.Fatalf("monte carlo failed: %v", err)
	}
	if len(results) != 20 {
		t.Fatalf("expected 20 trials, got %d", len(results))
	}

	for i, r := range results {
		if r.TrialID != i {
			t.Errorf("trial %d has id %d", i, r.TrialID)
		}
		if r.InitState[0] != 0 {
			t.Errorf("trial %d: x should not be perturbed, got %v", i, r.InitState[0])
		}
		if math.Abs(r.InitState[1]-1) > 0.1 {
			t.Errorf("trial %d: perturbation out of range, got %v", i, r.InitState[1])
		}
		if math.Abs(r.FinalState[1]-0.25*r.InitState[1]) > 1e-12 {
			t.Errorf("trial %d: expected y=%v, got %v", i, 0.25*r.InitState[1], r.FinalState[1])
		}
	}

	stable, unstable := MonteCarloStats(results)
	if stable != 20 || unstable != 0 {
		t.Errorf("expected all stable, got %d/%d", stable, unstable)
	}

	again, _ := RunMonteCarlo(context.Background(), cfg, newStepper, decay, []float64{0, 0.5, 1}, dynamo.State{0, 1}, nil)
	if again[3].InitState[1] != results[3].InitState[1] {
		t.Error("same seed should give the same perturbations")
	}
}

func TestRunMonteCarloUnstable(t *testing.T) {
	growth := dynamo.DerivativeFunc(func(x dynamo.State, p dynamo.Values) float64 { return 100 * x[1] })
	newStepper := func() dynamo.Stepper { return integrators.NewExplicitEuler() }

	cfg := MonteCarloConfig{NumTrials: 3, Seed: 1, Bound: 10}
	results, err := RunMonteCarlo(context.Background(), cfg, newStepper, growth, []float64{0, 1}, dynamo.State{0, 1}, nil)
	if err != nil {
		t.Fatalf("monte carlo failed: %v", err)
	}
	if stable, unstable := MonteCarloStats(results); stable != 0 || unstable != 3 {
		t.Errorf("expected all unstable, got %d/%d", stable, unstable)
	}

	diverge := dynamo.DerivativeFunc(func(x dynamo.State, p dynamo.Values) float64 { return 100 * x[1] * x[1] })
	implicit := func() dynamo.Stepper { return integrators.NewImplicitEuler(1e-10, 5) }
	results, err = RunMonteCarlo(context.Background(), cfg, implicit, diverge, []float64{0, 1}, dynamo.State{0, 1}, nil)
	if err != nil {
		t.Fatalf("failed trials should not abort the run: %v", err)
	}
	for _, r := range results {
		if r.Err == nil || r.Stable {
			t.Errorf("trial %d: expected a recorded failure, got %+v", r.TrialID, r)
		}
	}
}

func TestRunMonteCarloCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	decay := dynamo.DerivativeFunc(func(x dynamo.State, p dynamo.Values) float64 { return -x[1] })
	newStepper := func() dynamo.Stepper { return integrators.NewExplicitEuler() }
	_, err := RunMonteCarlo(ctx, MonteCarloConfig{NumTrials: 2, Seed: 1}, newStepper, decay, []float64{0, 1}, dynamo.State{0, 1}, nil)
	if !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", err)
	}
	if _, err := RunMonteCarlo(context.Background(), MonteCarloConfig{}, newStepper, decay, []float64{0, 1}, dynamo.State{0, 1}, nil); err == nil {
		t.Error("expected error for zero trials")
	}
}
