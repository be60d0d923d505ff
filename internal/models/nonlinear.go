package models

import (
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
)

// VanDerPol is y'' = mu*(1 - y^2)*y' - y. Any mu > 0 settles on a limit
// cycle.
type VanDerPol struct{}

func NewVanDerPol() *VanDerPol { return &VanDerPol{} }

func (v *VanDerPol) Order() int                   { return 2 }
func (v *VanDerPol) DefaultState() dynamo.State   { return dynamo.State{0, 2, 0} }
func (v *VanDerPol) DefaultParams() dynamo.Params { return dynamo.Params{"mu": {1.0}} }

func (v *VanDerPol) Evaluate(x dynamo.State, p dynamo.Values) float64 {
	y, dy := x[1], x[2]
	return p["mu"]*(1-y*y)*dy - y
}

// Duffing is y'' = -delta*y' - alpha*y - beta*y^3 + gamma*cos(omega*x),
// a forced oscillator with a cubic restoring force.
type Duffing struct{}

func NewDuffing() *Duffing { return &Duffing{} }

func (d *Duffing) Order() int                 { return 2 }
func (d *Duffing) DefaultState() dynamo.State { return dynamo.State{0, 1, 0} }
func (d *Duffing) DefaultParams() dynamo.Params {
	return dynamo.Params{
		"alpha": {-1.0},
		"beta":  {1.0},
		"delta": {0.3},
		"gamma": {0.5},
		"omega": {1.2},
	}
}

func (d *Duffing) Evaluate(x dynamo.State, p dynamo.Values) float64 {
	y, dy := x[1], x[2]
	return -p["delta"]*dy - p["alpha"]*y - p["beta"]*y*y*y + p["gamma"]*math.Cos(p["omega"]*x[0])
}
