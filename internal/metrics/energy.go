package metrics

import (
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
)

// EnergyFunc computes a conserved quantity from a state.
type EnergyFunc func(x dynamo.State) float64

// OscillatorEnergy is (y'^2 + omega^2*y^2)/2, conserved by y'' = -omega^2*y.
func OscillatorEnergy(omega float64) EnergyFunc {
	return func(x dynamo.State) float64 {
		if len(x) < 3 {
			return 0
		}
		return 0.5 * (x[2]*x[2] + omega*omega*x[1]*x[1])
	}
}

// PendulumEnergy is the energy per unit mass of an undamped, unforced
// pendulum with state [x, theta, theta'].
func PendulumEnergy(gravity, length float64) EnergyFunc {
	return func(x dynamo.State) float64 {
		if len(x) < 3 {
			return 0
		}
		theta, omega := x[1], x[2]
		return 0.5*length*length*omega*omega + gravity*length*(1-math.Cos(theta))
	}
}

type Energy struct {
	name        string
	energy      EnergyFunc
	samples     int
	totalEnergy float64
}

// NewEnergy averages energy over all mesh points.
func NewEnergy(energy EnergyFunc) *Energy {
	return &Energy{name: "energy", energy: energy}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) OnStep(step int, point float64, x dynamo.State) {
	e.totalEnergy += e.energy(x)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative departure from the energy at the
// first mesh point.
type EnergyDrift struct {
	name          string
	energy        EnergyFunc
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(energy EnergyFunc) *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", energy: energy}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) OnStep(step int, point float64, x dynamo.State) {
	energy := e.energy(x)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
