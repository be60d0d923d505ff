package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-kit/kit/log"
	"github.com/san-kum/odestep/internal/config"
	"github.com/san-kum/odestep/internal/experiment"
	"github.com/san-kum/odestep/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	verbose bool

	// simulation setup, shared by every command that integrates
	method     string
	tolerance  float64
	limit      int
	order      int
	initState  []float64
	paramFlags []string
	start      float64
	stop       float64
	points     int
	step       float64
	configFile string
	preset     string
	validate   bool

	// phase plot axes
	xAxis int
	yAxis int
	// Poincaré section
	crossIdx  int
	threshold float64

	stepsPerTick int
	svgOut       string

	// ensemble and monte carlo
	count   int
	spread  float64
	workers int
	seed    int64
	trials  int

	// sweep
	sweepParam string
	sweepFrom  float64
	sweepTo    float64
	sweepCount int
	component  int
	transient  int

	perturbation float64

	// tune
	tuneRanges []string
	tuneMetric string
)

// main registers the commands and launches the interactive picker when
// no subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:          "odestep",
		Short:        "explicit and implicit euler integration of y^(n) = f(x, y, ..., y^(n-1))",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(experiment.NewRegistry())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".odestep", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log integration progress to stderr")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "integrate a model and store the solution",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot each component of a stored solution against x",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 1, "solution row for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 2, "solution row for y-axis")
	phaseCmd.Flags().IntVar(&crossIdx, "cross", -1, "plot a Poincaré section where this row crosses --threshold")
	phaseCmd.Flags().Float64Var(&threshold, "threshold", 0, "crossing value for --cross")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored solution",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the phase portrait as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&xAxis, "x-axis", 1, "solution row for x-axis")
	exportSVGCmd.Flags().IntVar(&yAxis, "y-axis", 2, "solution row for y-axis")
	exportSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "step through the integration in a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerTick, "speed", 1, "mesh steps per frame")

	compareCmd := &cobra.Command{
		Use:   "compare [model] [method1] [method2] ...",
		Short: "compare methods on the same model and mesh",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareMethods,
	}
	addSimFlags(compareCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [model]",
		Short: "integrate from several perturbed initial states in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addSimFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&count, "count", 8, "number of runs")
	ensembleCmd.Flags().Float64Var(&spread, "spread", 0.1, "offset added to y per run")
	ensembleCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default NumCPU)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "sweep one parameter and plot the long-run values of a component",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "sweep", "", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepCount, "count", 40, "number of values")
	sweepCmd.Flags().IntVar(&component, "component", 1, "solution row to record")
	sweepCmd.Flags().IntVar(&transient, "transient", 0, "mesh index where recording starts (default: halfway)")
	_ = sweepCmd.MarkFlagRequired("sweep")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [model]",
		Short: "estimate the largest lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLyapunov,
	}
	addSimFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&perturbation, "perturb", 1e-8, "initial separation in y")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run and store every step of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&validate, "validate", false, "abort as soon as a step produces NaN or Inf")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "count stable runs from randomly perturbed initial states",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addSimFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().Float64Var(&spread, "spread", 0.1, "half width of the uniform offset added to each derivative")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default NumCPU)")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: time based)")

	tuneCmd := &cobra.Command{
		Use:   "tune [model]",
		Short: "grid search constant parameter values that minimize a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneRanges, "over", nil, "candidate values name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "energy_drift", "metric to minimize (stability, peak_y, energy, energy_drift)")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models and methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := experiment.NewRegistry()
			fmt.Println("models:")
			for _, name := range registry.ListModels() {
				m, _ := registry.GetModel(name)
				fmt.Printf("  %-12s order %d  params %v\n", name, m.Order(), paramNames(m.DefaultParams()))
			}
			fmt.Println("methods:")
			for _, name := range registry.ListMethods() {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, phaseCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		liveCmd, compareCmd, ensembleCmd, sweepCmd, lyapunovCmd, scenarioCmd, monteCarloCmd, tuneCmd, presetsCmd, modelsCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&method, "method", "explicit", "integration method (explicit, implicit)")
	f.Float64Var(&tolerance, "tol", 1e-5, "implicit solver relative tolerance")
	f.IntVar(&limit, "limit", 100, "implicit solver iteration limit")
	f.IntVar(&order, "order", -1, "expected ODE order, checked against the initial state")
	f.Float64SliceVar(&initState, "init", nil, "initial state x0,y0,y0',...")
	f.StringArrayVarP(&paramFlags, "param", "p", nil, "parameter name=value or name=v1,v2,... (one value per mesh point)")
	f.Float64Var(&start, "start", 0, "first mesh point")
	f.Float64Var(&stop, "stop", 10, "last mesh point")
	f.IntVar(&points, "points", 101, "number of evenly spaced mesh points")
	f.Float64Var(&step, "step", 0, "mesh spacing (overrides --points)")
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.BoolVar(&validate, "validate", false, "abort as soon as a step produces NaN or Inf")
}

// newLogger returns a logfmt logger on stderr when --verbose is set.
func newLogger() log.Logger {
	if !verbose {
		return log.NewNopLogger()
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	return log.With(logger, "ts", log.DefaultTimestampUTC)
}
