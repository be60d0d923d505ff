package models

import (
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
)

// Pendulum is theta'' = -(gravity/length)*sin(theta) - damping*theta' + torque.
type Pendulum struct{}

func NewPendulum() *Pendulum { return &Pendulum{} }

func (p *Pendulum) Order() int                 { return 2 }
func (p *Pendulum) DefaultState() dynamo.State { return dynamo.State{0, 0.5, 0} }
func (p *Pendulum) DefaultParams() dynamo.Params {
	return dynamo.Params{
		"gravity": {9.81},
		"length":  {1.0},
		"damping": {0.1},
		"torque":  {0},
	}
}

func (p *Pendulum) Evaluate(x dynamo.State, v dynamo.Values) float64 {
	theta := x[1]
	omega := x[2]
	return -v["gravity"]/v["length"]*math.Sin(theta) - v["damping"]*omega + v["torque"]
}

// Oscillator is y'' = -omega^2*y.
type Oscillator struct{}

func NewOscillator() *Oscillator { return &Oscillator{} }

func (o *Oscillator) Order() int                   { return 2 }
func (o *Oscillator) DefaultState() dynamo.State   { return dynamo.State{0, 1, 0} }
func (o *Oscillator) DefaultParams() dynamo.Params { return dynamo.Params{"omega": {1.0}} }

func (o *Oscillator) Evaluate(x dynamo.State, p dynamo.Values) float64 {
	w := p["omega"]
	return -w * w * x[1]
}

// SpringMass is a damped spring driven by an external force:
// y'' = (force - damping*y' - stiffness*y) / mass.
type SpringMass struct{}

func NewSpringMass() *SpringMass { return &SpringMass{} }

func (s *SpringMass) Order() int                 { return 2 }
func (s *SpringMass) DefaultState() dynamo.State { return dynamo.State{0, 1, 0} }
func (s *SpringMass) DefaultParams() dynamo.Params {
	return dynamo.Params{
		"mass":      {1.0},
		"stiffness": {4.0},
		"damping":   {0.2},
		"force":     {0},
	}
}

func (s *SpringMass) Evaluate(x dynamo.State, p dynamo.Values) float64 {
	return (p["force"] - p["damping"]*x[2] - p["stiffness"]*x[1]) / p["mass"]
}

// Jerk is the chaotic third-order flow y''' = -a*y'' - y' + |y| - 1.
type Jerk struct{}

func NewJerk() *Jerk { return &Jerk{} }

func (j *Jerk) Order() int                   { return 3 }
func (j *Jerk) DefaultState() dynamo.State   { return dynamo.State{0, 0, 0, 0} }
func (j *Jerk) DefaultParams() dynamo.Params { return dynamo.Params{"a": {0.6}} }

func (j *Jerk) Evaluate(x dynamo.State, p dynamo.Values) float64 {
	return -p["a"]*x[3] - x[2] + math.Abs(x[1]) - 1
}
