package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/odestep/internal/automation"
	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/experiment"
	"github.com/san-kum/odestep/internal/sim"
	"github.com/san-kum/odestep/internal/storage"
	"github.com/spf13/cobra"
)

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	var opts []sim.Option
	if validate {
		opts = append(opts, sim.WithStateValidation())
	}
	logger := newLogger()
	opts = append(opts, sim.WithLogger(logger))

	fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))
	results, runErr := automation.RunScenario(cmd.Context(), scenario, experiment.NewRegistry(), logger, opts...)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMODEL\tMETHOD\tRUN\tSTEPS\tMETRICS")
	for i, r := range results {
		meta := storage.RunMetadata{
			ID:      r.Step.SaveAs,
			Model:   r.Step.Model,
			Params:  r.Step.Params,
			Metrics: r.Metrics,
		}
		if r.Step.Method == "implicit" {
			meta.Tolerance = r.Step.Tolerance
			meta.Limit = r.Step.Limit
		}
		runID, err := st.Save(meta, r.Result)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%v\n", i+1, r.Step.Model, r.Step.Method, runID, r.Result.StepsTaken, r.Metrics)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	s, err := prepare(cmd, args)
	if err != nil {
		return err
	}

	// validates order and params once for all trials
	exp, err := s.experiment(s.cfg.Method)
	if err != nil {
		return err
	}

	cfg := automation.MonteCarloConfig{
		Perturbation: spread,
		NumTrials:    trials,
		Seed:         seed,
		Workers:      workers,
	}
	newStepper := func() dynamo.Stepper {
		stepper, _ := s.registry.GetMethod(s.cfg.Method, s.cfg.Tolerance, s.cfg.Limit)
		return stepper
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), cfg, newStepper, s.model, s.points, s.x0, exp.Params())
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("%d trials, perturbation ±%g\n", len(results), spread)
	fmt.Printf("  stable:   %d\n", stable)
	fmt.Printf("  unstable: %d\n", unstable)
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("  trial %d failed: %v\n", r.TrialID, r.Err)
		}
	}
	return nil
}
