package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/odestep/internal/analysis"
	"github.com/san-kum/odestep/internal/export"
	"github.com/san-kum/odestep/internal/storage"
	"github.com/spf13/cobra"
)

const maxPlots = 6

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tMETHOD\tTIME\tORDER\tMESH\tPOINTS\tITER")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t[%g, %g]\t%d\t%d\n",
			run.ID,
			run.Model,
			run.Method,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Order,
			run.Start, run.Stop,
			run.Points,
			run.Iterations,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	result, err := st.LoadSolution(runID)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s (%s)\n", meta.Model, meta.Method)
	fmt.Printf("points: %d over [%g, %g]\n\n", meta.Points, meta.Start, meta.Stop)

	rows, _ := result.Solution.Dims()
	names := storage.ColumnNames(rows - 1)
	if rows == 1 {
		fmt.Println("order 0 solution: only x advances")
		return nil
	}

	for k := 1; k < rows && k <= maxPlots; k++ {
		graph := asciigraph.Plot(result.Row(k),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(names[k]+" vs x"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	result, err := st.LoadSolution(args[0])
	if err != nil {
		return err
	}

	rows, _ := result.Solution.Dims()
	names := storage.ColumnNames(rows - 1)

	if crossIdx >= 0 {
		section := analysis.GeneratePoincareSection(result, crossIdx, threshold, xAxis, yAxis)
		if section == nil {
			return fmt.Errorf("rows must be below %d", rows)
		}
		fmt.Printf("poincaré section: %s = %g, %s vs %s (%d crossings)\n\n", names[crossIdx], threshold, names[yAxis], names[xAxis], len(section.Points))
		fmt.Println(analysis.PoincareSectionToASCII(section, 70, 25))
		return nil
	}

	portrait := analysis.GeneratePhasePortrait(result, xAxis, yAxis)
	if portrait == nil {
		return fmt.Errorf("solution has rows 0..%d, use --x-axis and --y-axis within that range", rows-1)
	}

	fmt.Printf("phase portrait: %s vs %s\n\n", names[yAxis], names[xAxis])
	fmt.Print(analysis.PhasePortraitToASCII(portrait, 70, 25))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	result, err := st.LoadSolution(args[0])
	if err != nil {
		return err
	}

	rows, cols := result.Solution.Dims()
	if rows < 2 || cols < 3 {
		return fmt.Errorf("need a first order or higher solution with at least 3 points")
	}
	names := storage.ColumnNames(rows - 1)

	fmt.Printf("frequency analysis (%d points, mesh treated as evenly spaced)\n\n", cols)
	for k := 1; k < rows; k++ {
		fmt.Printf("  %-4s dominant frequency %.6g\n", names[k], analysis.DominantFrequency(result, k))
	}

	ps := analysis.PowerSpectrum(result.Row(1))
	if len(ps) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(ps[1:],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("|Y(f)| of y, DC removed"),
		))
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	result, err := st.LoadSolution(args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, result)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	result, err := st.LoadSolution(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, result)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	result, err := st.LoadSolution(args[0])
	if err != nil {
		return err
	}

	portrait := analysis.GeneratePhasePortrait(result, xAxis, yAxis)
	if portrait == nil {
		rows, _ := result.Solution.Dims()
		return fmt.Errorf("solution has rows 0..%d, use --x-axis and --y-axis within that range", rows-1)
	}

	var out io.Writer = os.Stdout
	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if err := export.TrajectoryToSVG(out, portrait.Points, 800, 600, "#00ff88"); err != nil {
		return err
	}
	if svgOut != "" {
		fmt.Fprintf(os.Stderr, "wrote %s\n", svgOut)
	}
	return nil
}
