package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/integrators"
	"github.com/san-kum/odestep/internal/metrics"
	"github.com/san-kum/odestep/internal/models"
)

// divergence bound used by the default stability metric
const stabilityBound = 1e6

type Registry struct {
	models  map[string]func() models.Model
	methods map[string]func(tol float64, limit int) dynamo.Stepper
}

func NewRegistry() *Registry {
	r := &Registry{
		models:  make(map[string]func() models.Model),
		methods: make(map[string]func(float64, int) dynamo.Stepper),
	}

	r.models["free"] = func() models.Model { return models.NewFree() }
	r.models["decay"] = func() models.Model { return models.NewDecay() }
	r.models["logistic"] = func() models.Model { return models.NewLogistic() }
	r.models["pendulum"] = func() models.Model { return models.NewPendulum() }
	r.models["oscillator"] = func() models.Model { return models.NewOscillator() }
	r.models["spring_mass"] = func() models.Model { return models.NewSpringMass() }
	r.models["jerk"] = func() models.Model { return models.NewJerk() }
	r.models["vanderpol"] = func() models.Model { return models.NewVanDerPol() }
	r.models["duffing"] = func() models.Model { return models.NewDuffing() }

	r.methods["explicit"] = func(float64, int) dynamo.Stepper { return integrators.NewExplicitEuler() }
	r.methods["implicit"] = func(tol float64, limit int) dynamo.Stepper {
		return integrators.NewImplicitEuler(tol, limit)
	}

	return r
}

func (r *Registry) GetModel(name string) (models.Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetMethod(name string, tol float64, limit int) (dynamo.Stepper, error) {
	fn, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("unknown method: %s", name)
	}
	return fn(tol, limit), nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListMethods() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns fresh metrics suited to the named model. Energy
// metrics read the first value of each parameter series.
func (r *Registry) DefaultMetrics(name string, p dynamo.Params) []metrics.Metric {
	list := []metrics.Metric{metrics.NewStability(stabilityBound)}

	fn, ok := r.models[name]
	if !ok {
		return list
	}
	if fn().Order() >= 1 {
		list = append(list, metrics.NewPeak(1))
	}

	switch name {
	case "oscillator":
		list = append(list, metrics.NewEnergyDrift(metrics.OscillatorEnergy(first(p, "omega", 1))))
	case "pendulum":
		energy := metrics.PendulumEnergy(first(p, "gravity", 9.81), first(p, "length", 1))
		list = append(list, metrics.NewEnergy(energy), metrics.NewEnergyDrift(energy))
	}
	return list
}

func first(p dynamo.Params, key string, fallback float64) float64 {
	if s := p[key]; len(s) > 0 {
		return s[0]
	}
	return fallback
}
