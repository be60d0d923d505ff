package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/models"
	"github.com/san-kum/odestep/internal/sim"
)

type Config struct {
	Model     string
	Method    string
	Mesh      []float64
	InitState []float64
	// Order, when set, is checked against len(InitState)-1.
	Order     *int
	Params    dynamo.Params
	Tolerance float64
	Limit     int
}

type Experiment struct {
	cfg       Config
	model     models.Model
	simulator *sim.Simulator
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Setup(model models.Model, stepper dynamo.Stepper, opts ...sim.Option) error {
	x0 := dynamo.State(e.cfg.InitState)
	if e.cfg.Order != nil {
		if err := dynamo.CheckOrder(x0, *e.cfg.Order); err != nil {
			return err
		}
	}
	if err := dynamo.CheckOrder(x0, model.Order()); err != nil {
		return fmt.Errorf("model %s: %w", e.cfg.Model, err)
	}

	e.model = model
	e.simulator = sim.New(stepper, opts...)
	return nil
}

// Params returns the model defaults overlaid with the configured values.
func (e *Experiment) Params() dynamo.Params {
	p := make(dynamo.Params)
	if e.model != nil {
		for name, s := range e.model.DefaultParams() {
			p[name] = s
		}
	}
	for name, s := range e.cfg.Params {
		p[name] = s
	}
	return p
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	x0 := make(dynamo.State, len(e.cfg.InitState))
	copy(x0, e.cfg.InitState)

	return e.simulator.Run(ctx, e.model, e.cfg.Mesh, x0, e.Params())
}

func (e *Experiment) ModelName() string { return e.cfg.Model }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
