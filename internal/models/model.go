// Package models holds ready-made ODEs, each solved for its highest
// derivative and reading its coefficients from the per-step parameters.
package models

import "github.com/san-kum/odestep/internal/dynamo"

type Model interface {
	dynamo.Derivative
	Order() int
	// DefaultState returns a fresh [x, y, ..., y^(n)] the caller may modify.
	DefaultState() dynamo.State
	// DefaultParams returns a fresh set of parameters the caller may modify.
	DefaultParams() dynamo.Params
}
