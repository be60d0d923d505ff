// Package metrics summarizes a solution while it is being computed.
// Every metric is a [dynamo.Observer] and sees each recorded state once.
package metrics

import "github.com/san-kum/odestep/internal/dynamo"

type Metric interface {
	dynamo.Observer
	Name() string
	Value() float64
	Reset()
}
