package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/metrics"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	for _, name := range r.ListModels() {
		if _, err := r.GetModel(name); err != nil {
			t.Errorf("listed model %s not found: %v", name, err)
		}
	}
	if _, err := r.GetModel("nonexistent"); err == nil {
		t.Error("expected error for unknown model")
	}

	methods := r.ListMethods()
	if len(methods) != 2 || methods[0] != "explicit" || methods[1] != "implicit" {
		t.Errorf("unexpected methods %v", methods)
	}
	stepper, err := r.GetMethod("implicit", 1e-6, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stepper.Name() != "implicit" {
		t.Errorf("expected implicit stepper, got %s", stepper.Name())
	}
	if _, err := r.GetMethod("rk4", 0, 0); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestExperimentRun(t *testing.T) {
	r := NewRegistry()
	model, _ := r.GetModel("decay")
	stepper, _ := r.GetMethod("explicit", 0, 0)

	cfg := Config{
		Model:     "decay",
		Method:    "explicit",
		Mesh:      []float64{0, 0.5, 1},
		InitState: []float64{0, 1},
		Params:    dynamo.Params{"k": {1}},
	}

	exp := New(cfg)
	if err := exp.Setup(model, stepper); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := result.Final()[1]; math.Abs(got-0.25) > 1e-12 {
		t.Errorf("expected final y 0.25, got %v", got)
	}
	if cfg.InitState[1] != 1 {
		t.Error("config initial state was modified")
	}
}

func TestExperimentParamsOverlay(t *testing.T) {
	r := NewRegistry()
	model, _ := r.GetModel("spring_mass")
	stepper, _ := r.GetMethod("explicit", 0, 0)

	exp := New(Config{
		Model:     "spring_mass",
		InitState: []float64{0, 1, 0},
		Params:    dynamo.Params{"force": {1, 2, 3}},
	})
	if err := exp.Setup(model, stepper); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	p := exp.Params()
	if len(p["force"]) != 3 {
		t.Errorf("expected configured force series, got %v", p["force"])
	}
	if p["mass"][0] != 1 {
		t.Errorf("expected default mass 1, got %v", p["mass"])
	}
}

func TestExperimentOrderChecks(t *testing.T) {
	r := NewRegistry()
	model, _ := r.GetModel("oscillator")
	stepper, _ := r.GetMethod("explicit", 0, 0)

	two, three := 2, 3
	tests := []struct {
		name  string
		state []float64
		order *int
		ok    bool
	}{
		{"derived", []float64{0, 1, 0}, nil, true},
		{"declared", []float64{0, 1, 0}, &two, true},
		{"declared mismatch", []float64{0, 1, 0}, &three, false},
		{"model mismatch", []float64{0, 1}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := New(Config{Model: "oscillator", InitState: tt.state, Order: tt.order})
			err := exp.Setup(model, stepper)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, dynamo.ErrDimensionMismatch) {
				t.Errorf("expected ErrDimensionMismatch, got %v", err)
			}
		})
	}
}

func TestExperimentNotSetup(t *testing.T) {
	if _, err := New(Config{}).Run(context.Background()); err == nil {
		t.Error("expected error for experiment without setup")
	}
}

func TestDefaultMetrics(t *testing.T) {
	r := NewRegistry()

	names := func(list []metrics.Metric) map[string]bool {
		out := make(map[string]bool)
		for _, m := range list {
			out[m.Name()] = true
		}
		return out
	}

	osc := names(r.DefaultMetrics("oscillator", dynamo.Params{"omega": {2}}))
	for _, want := range []string{"stability", "peak_y", "energy_drift"} {
		if !osc[want] {
			t.Errorf("oscillator metrics missing %s: %v", want, osc)
		}
	}

	if got := r.DefaultMetrics("unknown", nil); len(got) != 1 || got[0].Name() != "stability" {
		t.Errorf("unknown model should only get stability, got %d metrics", len(got))
	}
}

func TestExperimentWithMetrics(t *testing.T) {
	r := NewRegistry()
	model, _ := r.GetModel("oscillator")
	stepper, _ := r.GetMethod("explicit", 0, 0)

	exp := New(Config{
		Model:     "oscillator",
		Method:    "explicit",
		Mesh:      []float64{0, 0.1},
		InitState: []float64{0, 1, 0},
	})
	if err := exp.Setup(model, stepper); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	list := r.DefaultMetrics("oscillator", exp.Params())
	for _, m := range list {
		exp.GetSimulator().AddObserver(m)
	}
	if _, err := exp.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, m := range list {
		switch m.Name() {
		case "peak_y":
			if m.Value() != 1 {
				t.Errorf("expected peak 1, got %v", m.Value())
			}
		case "energy_drift":
			if math.Abs(m.Value()-0.01) > 1e-12 {
				t.Errorf("expected drift 0.01, got %v", m.Value())
			}
		}
	}
}
