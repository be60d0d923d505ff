package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/integrators"
	"github.com/san-kum/odestep/internal/mesh"
	"github.com/san-kum/odestep/internal/sim"
)

func TestEnergy(t *testing.T) {
	m := NewEnergy(PendulumEnergy(9.81, 1.0))

	theta := math.Pi / 4
	x := dynamo.State{0, theta, 0}

	m.OnStep(0, 0, x)
	expected := 9.81 * (1 - math.Cos(theta))
	if math.Abs(m.Value()-expected) > 1e-9 {
		t.Errorf("expected energy %f, got %f", expected, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestOscillatorEnergy(t *testing.T) {
	e := OscillatorEnergy(2)
	if got := e(dynamo.State{0, 1, 0}); got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
	if got := e(dynamo.State{0, 1}); got != 0 {
		t.Errorf("expected 0 for first order state, got %v", got)
	}
}

// One explicit step on y'' = -y from (1, 0) with step h gives energy
// (1+h^2)/2, a drift of h^2.
func TestEnergyDriftExplicitOscillator(t *testing.T) {
	drift := NewEnergyDrift(OscillatorEnergy(1))
	f := dynamo.DerivativeFunc(func(x dynamo.State, p dynamo.Values) float64 { return -x[1] })

	s := sim.New(integrators.NewExplicitEuler(), sim.WithObserver(drift))
	if _, err := s.Run(context.Background(), f, []float64{0, 0.1}, dynamo.State{0, 1, 0}, nil); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if math.Abs(drift.Value()-0.01) > 1e-12 {
		t.Errorf("expected drift 0.01, got %v", drift.Value())
	}
}

func TestEnergyDriftAccumulates(t *testing.T) {
	energy := OscillatorEnergy(1)
	drift := NewEnergyDrift(energy)
	f := dynamo.DerivativeFunc(func(x dynamo.State, p dynamo.Values) float64 { return -x[1] })

	points, _ := mesh.Linspace(0, 5, 51)
	s := sim.New(integrators.NewExplicitEuler(), sim.WithObserver(drift))
	res, err := s.Run(context.Background(), f, points, dynamo.State{0, 1, 0}, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := energy(res.Final())/0.5 - 1
	if math.Abs(drift.Value()-want) > 1e-9 {
		t.Errorf("expected drift %v, got %v", want, drift.Value())
	}

	drift.Reset()
	if drift.Value() != 0 {
		t.Errorf("expected 0 after reset, got %v", drift.Value())
	}
}

func TestStability(t *testing.T) {
	s := NewStability(1)
	s.OnStep(0, 0, dynamo.State{100, 0.5})
	if !math.IsNaN(s.FirstViolation()) {
		t.Errorf("expected no violation yet, got %v", s.FirstViolation())
	}
	s.OnStep(1, 1, dynamo.State{200, 2})
	s.OnStep(2, 2, dynamo.State{300, math.NaN()})
	s.OnStep(3, 3, dynamo.State{400, 1})

	if s.Value() != 0.5 {
		t.Errorf("expected 0.5, got %v", s.Value())
	}
	if s.FirstViolation() != 1 {
		t.Errorf("expected first violation at 1, got %v", s.FirstViolation())
	}

	s.Reset()
	if s.Value() != 1 || !math.IsNaN(s.FirstViolation()) {
		t.Errorf("expected a clean metric after reset, got %v at %v", s.Value(), s.FirstViolation())
	}
}

func TestPeak(t *testing.T) {
	p := NewPeak(2)
	if p.Name() != "peak_dy" {
		t.Errorf("unexpected name %s", p.Name())
	}
	p.OnStep(0, 0, dynamo.State{0, 5, -3})
	p.OnStep(1, 1, dynamo.State{1, 5, 2})
	if p.Value() != 3 {
		t.Errorf("expected 3, got %v", p.Value())
	}
}
