package models

import "github.com/san-kum/odestep/internal/dynamo"

// Free is y' = 0.
type Free struct{}

func NewFree() *Free { return &Free{} }

func (f *Free) Order() int                   { return 1 }
func (f *Free) DefaultState() dynamo.State   { return dynamo.State{0, 1} }
func (f *Free) DefaultParams() dynamo.Params { return dynamo.Params{} }

func (f *Free) Evaluate(x dynamo.State, p dynamo.Values) float64 {
	return 0
}

// Decay is y' = -k*y.
type Decay struct{}

func NewDecay() *Decay { return &Decay{} }

func (d *Decay) Order() int                   { return 1 }
func (d *Decay) DefaultState() dynamo.State   { return dynamo.State{0, 1} }
func (d *Decay) DefaultParams() dynamo.Params { return dynamo.Params{"k": {0.5}} }

func (d *Decay) Evaluate(x dynamo.State, p dynamo.Values) float64 {
	return -p["k"] * x[1]
}

// Logistic is y' = r*y*(1 - y/capacity).
type Logistic struct{}

func NewLogistic() *Logistic { return &Logistic{} }

func (l *Logistic) Order() int                 { return 1 }
func (l *Logistic) DefaultState() dynamo.State { return dynamo.State{0, 0.1} }
func (l *Logistic) DefaultParams() dynamo.Params {
	return dynamo.Params{"r": {1.0}, "capacity": {1.0}}
}

func (l *Logistic) Evaluate(x dynamo.State, p dynamo.Values) float64 {
	y := x[1]
	return p["r"] * y * (1 - y/p["capacity"])
}
