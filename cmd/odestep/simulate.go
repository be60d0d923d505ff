package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/odestep/internal/analysis"
	"github.com/san-kum/odestep/internal/config"
	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/experiment"
	"github.com/san-kum/odestep/internal/mesh"
	"github.com/san-kum/odestep/internal/metrics"
	"github.com/san-kum/odestep/internal/models"
	"github.com/san-kum/odestep/internal/optim"
	"github.com/san-kum/odestep/internal/params"
	"github.com/san-kum/odestep/internal/sim"
	"github.com/san-kum/odestep/internal/storage"
	"github.com/san-kum/odestep/internal/viz"
	"github.com/spf13/cobra"
)

// setup is everything needed to integrate one configured model.
type setup struct {
	cfg      *config.Config
	registry *experiment.Registry
	model    models.Model
	points   []float64
	x0       dynamo.State
}

// resolveConfig layers preset, config file and flags, in that order.
// A model named on the command line wins over the one in the file.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	name := cfg.Model
	if len(args) > 0 {
		name = args[0]
	}

	if preset != "" {
		p := config.GetPreset(name, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(name))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) == 0 {
			name = cfg.Model
		}
	}
	cfg.Model = name

	f := cmd.Flags()
	if f.Changed("method") {
		cfg.Method = method
	}
	if f.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if f.Changed("limit") {
		cfg.Limit = limit
	}
	if f.Changed("order") {
		o := order
		cfg.Order = &o
	}
	if f.Changed("init") {
		cfg.InitState = append([]float64(nil), initState...)
	}
	if f.Changed("start") || f.Changed("stop") || f.Changed("points") || f.Changed("step") {
		cfg.Mesh.Values = nil
	}
	if f.Changed("start") {
		cfg.Mesh.Start = start
	}
	if f.Changed("stop") {
		cfg.Mesh.Stop = stop
	}
	if f.Changed("points") {
		cfg.Mesh.Points = points
		cfg.Mesh.Step = 0
	}
	if f.Changed("step") {
		cfg.Mesh.Step = step
	}

	for _, raw := range paramFlags {
		name, values, err := parseParam(raw)
		if err != nil {
			return nil, err
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string][]float64)
		}
		cfg.Params[name] = values
	}
	return cfg, nil
}

// parseParam reads name=value or name=v1,v2,...
func parseParam(raw string) (string, []float64, error) {
	name, list, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("invalid param %q: want name=value", raw)
	}

	fields := strings.Split(list, ",")
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid param %q: %w", raw, err)
		}
		values[i] = v
	}
	return name, values, nil
}

func prepare(cmd *cobra.Command, args []string) (*setup, error) {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return nil, err
	}

	registry := experiment.NewRegistry()
	model, err := registry.GetModel(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, registry.ListModels())
	}

	pts, err := cfg.Mesh.Build()
	if err != nil {
		return nil, err
	}

	x0 := dynamo.State(cfg.InitState)
	if len(x0) == 0 {
		x0 = model.DefaultState()
		x0[0] = pts[0]
	}

	return &setup{cfg: cfg, registry: registry, model: model, points: pts, x0: x0}, nil
}

// experiment builds a ready-to-run experiment for the given method.
func (s *setup) experiment(methodName string, opts ...sim.Option) (*experiment.Experiment, error) {
	return s.experimentWith(methodName, s.cfg.GetParams(), opts...)
}

func (s *setup) experimentWith(methodName string, p dynamo.Params, opts ...sim.Option) (*experiment.Experiment, error) {
	stepper, err := s.registry.GetMethod(methodName, s.cfg.Tolerance, s.cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, s.registry.ListMethods())
	}

	exp := experiment.New(experiment.Config{
		Model:     s.cfg.Model,
		Method:    methodName,
		Mesh:      s.points,
		InitState: s.x0,
		Order:     s.cfg.Order,
		Params:    p,
		Tolerance: s.cfg.Tolerance,
		Limit:     s.cfg.Limit,
	})

	opts = append(opts, sim.WithLogger(newLogger()))
	if validate {
		opts = append(opts, sim.WithStateValidation())
	}
	if err := exp.Setup(s.model, stepper, opts...); err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *setup) metadata(exp *experiment.Experiment) storage.RunMetadata {
	meta := storage.RunMetadata{Model: s.cfg.Model}
	if s.cfg.Method == "implicit" {
		meta.Tolerance = s.cfg.Tolerance
		meta.Limit = s.cfg.Limit
	}
	p := exp.Params()
	meta.Params = make(map[string][]float64, len(p))
	for name, series := range p {
		meta.Params[name] = series
	}
	return meta
}

func runSimulation(cmd *cobra.Command, args []string) error {
	s, err := prepare(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := s.experiment(s.cfg.Method)
	if err != nil {
		return err
	}
	mets := s.registry.DefaultMetrics(s.cfg.Model, exp.Params())
	for _, m := range mets {
		exp.GetSimulator().AddObserver(m)
	}

	fmt.Printf("running %s with %s euler over %d points...\n", s.cfg.Model, s.cfg.Method, len(s.points))
	begin := time.Now()

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(begin)

	meta := s.metadata(exp)
	meta.Metrics = make(map[string]float64, len(mets))
	for _, m := range mets {
		meta.Metrics[m.Name()] = m.Value()
	}

	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if result.Iterations > 0 {
		fmt.Printf("solver iterations: %d\n", result.Iterations)
	}
	fmt.Println("\nfinal state:")
	final := result.Final()
	for k, name := range storage.ColumnNames(final.Order()) {
		fmt.Printf("  %-4s %.6g\n", name, final[k])
	}
	fmt.Println("\nmetrics:")
	for _, m := range mets {
		fmt.Printf("  %s: %.6f\n", m.Name(), m.Value())
		if stab, ok := m.(*metrics.Stability); ok && !math.IsNaN(stab.FirstViolation()) {
			fmt.Printf("  first left the bound at x = %g\n", stab.FirstViolation())
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	s, err := prepare(cmd, args)
	if err != nil {
		return err
	}

	// Setup checks the declared order and the model order
	exp, err := s.experiment(s.cfg.Method)
	if err != nil {
		return err
	}
	stepper, err := s.registry.GetMethod(s.cfg.Method, s.cfg.Tolerance, s.cfg.Limit)
	if err != nil {
		return err
	}

	m, err := viz.NewModel(stepper, s.model, s.points, s.x0, exp.Params(), s.cfg.Model)
	if err != nil {
		return err
	}
	m.SetStepsPerTick(stepsPerTick)
	return viz.Run(m)
}

func compareMethods(cmd *cobra.Command, args []string) error {
	s, err := prepare(cmd, args[:1])
	if err != nil {
		return err
	}
	methods := args[1:]

	fmt.Printf("comparing methods on %s over %d points\n\n", s.cfg.Model, len(s.points))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tTIME\tFINAL y\tITERATIONS\tMAX |Δ| vs "+methods[0])

	var reference *dynamo.Result
	series := make([][]float64, 0, len(methods))
	for _, name := range methods {
		exp, err := s.experiment(name)
		if err != nil {
			return err
		}

		begin := time.Now()
		result, err := exp.Run(cmd.Context())
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%v\n", name, err)
			continue
		}
		elapsed := time.Since(begin)

		row := min(1, s.x0.Order())
		series = append(series, result.Row(row))

		delta := "-"
		if reference == nil {
			reference = result
		} else if cmp, err := analysis.Compare(reference, result); err == nil {
			delta = fmt.Sprintf("%.3e", cmp.Max())
		}
		fmt.Fprintf(w, "%s\t%v\t%.6g\t%d\t%s\n", name, elapsed.Round(time.Microsecond), result.Final()[row], result.Iterations, delta)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(series) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.PlotMany(series,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red, asciigraph.Blue, asciigraph.Yellow),
			asciigraph.Caption("y vs x per method"),
		))
	}
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	s, err := prepare(cmd, args)
	if err != nil {
		return err
	}
	if s.x0.Order() < 1 {
		return fmt.Errorf("ensemble needs at least a first order model")
	}
	if count < 1 {
		return fmt.Errorf("count must be positive, got %d", count)
	}

	// validates order and params once for the whole batch
	exp, err := s.experiment(s.cfg.Method)
	if err != nil {
		return err
	}

	initial := make([]dynamo.State, count)
	for i := range initial {
		x0 := s.x0.Clone()
		x0[1] += float64(i) * spread
		initial[i] = x0
	}

	opts := []sim.Option{sim.WithLogger(newLogger())}
	if validate {
		opts = append(opts, sim.WithStateValidation())
	}
	batch := sim.NewBatch(func() dynamo.Stepper {
		stepper, _ := s.registry.GetMethod(s.cfg.Method, s.cfg.Tolerance, s.cfg.Limit)
		return stepper
	}, opts...)
	batch.SetWorkers(workers)

	begin := time.Now()
	results, err := batch.Run(cmd.Context(), s.model, s.points, initial, exp.Params())
	if err != nil {
		return err
	}
	fmt.Printf("%d runs in %v\n\n", len(results), time.Since(begin))

	names := storage.ColumnNames(s.x0.Order())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\t"+strings.ToUpper(names[1])+"0\t"+strings.ToUpper(strings.Join(names[1:], "\t")))
	for i, res := range results {
		final := res.Final()
		cells := make([]string, 0, len(final))
		for _, v := range final[1:] {
			cells = append(cells, fmt.Sprintf("%.6g", v))
		}
		fmt.Fprintf(w, "%d\t%.4g\t%s\n", i, initial[i][1], strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	s, err := prepare(cmd, args)
	if err != nil {
		return err
	}
	if sweepCount < 1 {
		return fmt.Errorf("count must be positive, got %d", sweepCount)
	}

	exp, err := s.experiment(s.cfg.Method)
	if err != nil {
		return err
	}

	values, err := mesh.Linspace(sweepFrom, sweepTo, sweepCount)
	if err != nil {
		return err
	}
	skip := transient
	if !cmd.Flags().Changed("transient") {
		skip = len(s.points) / 2
	}

	data, err := analysis.Sweep(cmd.Context(), exp.GetSimulator(), s.model, s.points, s.x0, exp.Params(),
		sweepParam, values, component, skip)
	if err != nil {
		return err
	}

	fmt.Printf("sweep of %s over [%g, %g], row %d from mesh index %d\n\n", sweepParam, sweepFrom, sweepTo, component, skip)
	fmt.Print(analysis.SweepToASCII(data, 70, 25))
	return nil
}

func runLyapunov(cmd *cobra.Command, args []string) error {
	s, err := prepare(cmd, args)
	if err != nil {
		return err
	}
	exp, err := s.experiment(s.cfg.Method)
	if err != nil {
		return err
	}
	stepper, err := s.registry.GetMethod(s.cfg.Method, s.cfg.Tolerance, s.cfg.Limit)
	if err != nil {
		return err
	}

	lambda, err := analysis.LyapunovExponent(stepper, s.model, s.points, s.x0, exp.Params(), perturbation)
	if err != nil {
		return err
	}

	fmt.Printf("largest lyapunov exponent: %.6g\n", lambda)
	switch {
	case math.Abs(lambda) < 1e-3:
		fmt.Println("nearby solutions stay at a constant distance")
	case lambda > 0:
		fmt.Println("nearby solutions diverge")
	default:
		fmt.Println("nearby solutions converge")
	}
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	s, err := prepare(cmd, args)
	if err != nil {
		return err
	}
	if len(tuneRanges) == 0 {
		return fmt.Errorf("at least one --over name=v1,v2,... is required")
	}

	names := make([]string, 0, len(tuneRanges))
	ranges := make([][]float64, 0, len(tuneRanges))
	for _, raw := range tuneRanges {
		name, values, err := parseParam(raw)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	newExperiment := func(p dynamo.Params) (*experiment.Experiment, error) {
		return s.experimentWith(s.cfg.Method, p)
	}

	fmt.Printf("searching %d candidates for the lowest %s...\n", search.Size(), tuneMetric)
	best, score, err := search.Search(cmd.Context(), optim.MetricObjective(s.registry, newExperiment, s.cfg.GetParams(), tuneMetric))
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s: %.6g\n", tuneMetric, score)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, best[name])
	}
	return nil
}

func paramNames(p dynamo.Params) []string { return params.Names(p) }
