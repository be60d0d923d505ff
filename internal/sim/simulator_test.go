package sim

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/san-kum/odestep/internal/dynamo"
)

// testStepper advances the independent variable and adds h*f to the top
// component, which is enough to observe the driver loop.
type testStepper struct {
	calls []float64
}

func (t *testStepper) Name() string { return "test" }

func (t *testStepper) Step(f dynamo.Derivative, x dynamo.State, h float64, p dynamo.Values) (dynamo.State, error) {
	t.calls = append(t.calls, h)
	next := x.Clone()
	next[0] += h
	if m := len(x) - 1; m > 0 {
		next[m] += h * f.Evaluate(x, p)
	}
	return next, nil
}

type failingStepper struct {
	failAt int
	calls  int
}

var errBoom = errors.New("boom")

func (s *failingStepper) Name() string { return "failing" }

func (s *failingStepper) Step(f dynamo.Derivative, x dynamo.State, h float64, p dynamo.Values) (dynamo.State, error) {
	if s.calls == s.failAt {
		return nil, errBoom
	}
	s.calls++
	return x.Clone(), nil
}

var constant = dynamo.DerivativeFunc(func(x dynamo.State, p dynamo.Values) float64 {
	return p["c"]
})

type recordingObserver struct {
	steps  []int
	points []float64
}

func (r *recordingObserver) OnStep(step int, point float64, x dynamo.State) {
	r.steps = append(r.steps, step)
	r.points = append(r.points, point)
}

func TestSimulatorRun(t *testing.T) {
	stepper := &testStepper{}
	s := New(stepper)

	points := []float64{0, 0.5, 1.5, 3}
	x0 := dynamo.State{0, 1}
	result, err := s.Run(context.Background(), constant, points, x0, dynamo.Params{"c": {2}})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	r, c := result.Solution.Dims()
	if r != 2 || c != 4 {
		t.Fatalf("expected 2x4 solution, got %dx%d", r, c)
	}

	wantX := []float64{0, 0.5, 1.5, 3}
	wantY := []float64{1, 2, 4, 7}
	for i := range points {
		if got := result.Solution.At(0, i); math.Abs(got-wantX[i]) > 1e-12 {
			t.Errorf("column %d: x = %v, want %v", i, got, wantX[i])
		}
		if got := result.Solution.At(1, i); math.Abs(got-wantY[i]) > 1e-12 {
			t.Errorf("column %d: y = %v, want %v", i, got, wantY[i])
		}
	}

	if result.StepsTaken != 3 {
		t.Errorf("expected 3 steps, got %d", result.StepsTaken)
	}
	if len(stepper.calls) != 3 || stepper.calls[1] != 1.0 {
		t.Errorf("unexpected step sizes %v", stepper.calls)
	}
	if x0[1] != 1 {
		t.Errorf("initial state was modified: %v", x0)
	}
	if result.Method != "test" {
		t.Errorf("expected method test, got %s", result.Method)
	}
}

func TestSimulatorVaryingParams(t *testing.T) {
	s := New(&testStepper{})

	points := []float64{0, 1, 2, 3}
	result, err := s.Run(context.Background(), constant, points, dynamo.State{0, 0}, dynamo.Params{"c": {1, 10, 100, 1000}})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// the value at the last point is never used
	final := result.Final()
	if final[1] != 111 {
		t.Errorf("expected final y 111, got %v", final[1])
	}
}

func TestSimulatorSinglePoint(t *testing.T) {
	stepper := &testStepper{}
	s := New(stepper)

	result, err := s.Run(context.Background(), constant, []float64{2}, dynamo.State{2, 3, 4}, dynamo.Params{"c": {1}})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	r, c := result.Solution.Dims()
	if r != 3 || c != 1 {
		t.Fatalf("expected 3x1 solution, got %dx%d", r, c)
	}
	col := result.Column(0)
	if col[0] != 2 || col[1] != 3 || col[2] != 4 {
		t.Errorf("expected initial state, got %v", col)
	}
	if len(stepper.calls) != 0 {
		t.Errorf("expected no steps, got %d", len(stepper.calls))
	}
}

func TestSimulatorInvalidInput(t *testing.T) {
	s := New(&testStepper{})

	tests := []struct {
		name   string
		points []float64
		x0     dynamo.State
		p      dynamo.Params
		want   error
	}{
		{"empty mesh", nil, dynamo.State{0, 1}, nil, dynamo.ErrEmptyMesh},
		{"NaN mesh", []float64{0, math.NaN()}, dynamo.State{0, 1}, nil, dynamo.ErrInvalidMesh},
		{"empty state", []float64{0, 1}, dynamo.State{}, nil, dynamo.ErrDimensionMismatch},
		{"NaN state", []float64{0, 1}, dynamo.State{0, math.NaN()}, nil, dynamo.ErrInvalidState},
		{"bad param length", []float64{0, 1, 2}, dynamo.State{0, 1}, dynamo.Params{"c": {1, 2}}, dynamo.ErrParamLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), constant, tt.points, tt.x0, tt.p)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSimulatorStepFailure(t *testing.T) {
	var buf bytes.Buffer
	s := New(&failingStepper{failAt: 2}, WithLogger(log.NewLogfmtLogger(&buf)))

	result, err := s.Run(context.Background(), constant, []float64{0, 1, 2, 3, 4}, dynamo.State{0, 1}, nil)
	if result != nil {
		t.Error("expected no partial result")
	}
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped errBoom, got %v", err)
	}

	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected *SimulationError, got %T", err)
	}
	if simErr.Step != 2 || simErr.Point != 2 {
		t.Errorf("expected failure at step 2 (x=2), got step %d (x=%v)", simErr.Step, simErr.Point)
	}
	if !strings.Contains(buf.String(), "level=error") {
		t.Errorf("expected error log line, got %q", buf.String())
	}
}

func TestSimulatorStateValidation(t *testing.T) {
	blowUp := dynamo.DerivativeFunc(func(x dynamo.State, p dynamo.Values) float64 {
		return math.Inf(1)
	})

	_, err := New(&testStepper{}).Run(context.Background(), blowUp, []float64{0, 1, 2}, dynamo.State{0, 1}, nil)
	if err != nil {
		t.Fatalf("unvalidated run should not fail: %v", err)
	}

	_, err = New(&testStepper{}, WithStateValidation()).Run(context.Background(), blowUp, []float64{0, 1, 2}, dynamo.State{0, 1}, nil)
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&testStepper{}).Run(ctx, constant, []float64{0, 1}, dynamo.State{0, 1}, nil)
	if !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSimulatorObservers(t *testing.T) {
	obs := &recordingObserver{}
	s := New(&testStepper{}, WithObserver(obs))

	_, err := s.Run(context.Background(), constant, []float64{0, 1, 2}, dynamo.State{0, 1}, dynamo.Params{"c": {0}})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(obs.steps) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(obs.steps))
	}
	if obs.points[2] != 2 {
		t.Errorf("expected last point 2, got %v", obs.points[2])
	}
}

type countingObserver struct {
	n atomic.Int64
}

func (c *countingObserver) OnStep(step int, point float64, x dynamo.State) { c.n.Add(1) }

func TestBatchRun(t *testing.T) {
	obs := &countingObserver{}
	b := NewBatch(func() dynamo.Stepper { return &testStepper{} }, WithObserver(obs))
	b.SetWorkers(2)

	initial := []dynamo.State{{0, 1}, {0, 2}, {0, 3}}
	results, err := b.Run(context.Background(), constant, []float64{0, 1, 2}, initial, dynamo.Params{"c": {1}})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		want := initial[i][1] + 2
		if got := res.Final()[1]; got != want {
			t.Errorf("run %d: final y = %v, want %v", i, got, want)
		}
	}
	if obs.n.Load() != 9 {
		t.Errorf("expected 9 observations, got %d", obs.n.Load())
	}
}

func TestBatchFailure(t *testing.T) {
	b := NewBatch(func() dynamo.Stepper { return &failingStepper{failAt: 0} })

	_, err := b.Run(context.Background(), constant, []float64{0, 1}, []dynamo.State{{0, 1}, {0, 2}}, nil)
	if !errors.Is(err, errBoom) {
		t.Errorf("expected errBoom, got %v", err)
	}
}
