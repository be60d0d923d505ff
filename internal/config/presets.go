package config

import (
	"sort"

	"github.com/san-kum/odestep/internal/solver"
)

var Presets = map[string]map[string]*Config{
	"decay": {
		"slow": {
			Model: "decay", Method: "explicit",
			Mesh:      MeshConfig{Start: 0, Stop: 10, Points: 101},
			InitState: []float64{0, 1},
			Params:    map[string][]float64{"k": {0.2}},
		},
		"stiff": {
			Model: "decay", Method: "implicit",
			Mesh:      MeshConfig{Start: 0, Stop: 1, Step: 0.01},
			InitState: []float64{0, 1},
			Params:    map[string][]float64{"k": {50}},
			Tolerance: solver.DefaultTolerance, Limit: solver.DefaultLimit,
		},
	},
	"logistic": {
		"growth": {
			Model: "logistic", Method: "explicit",
			Mesh:      MeshConfig{Start: 0, Stop: 12, Points: 241},
			InitState: []float64{0, 0.05},
			Params:    map[string][]float64{"r": {0.8}, "capacity": {10}},
		},
	},
	"pendulum": {
		"small": {
			Model: "pendulum", Method: "explicit",
			Mesh:      MeshConfig{Start: 0, Stop: 20, Step: 0.01},
			InitState: []float64{0, 0.2, 0},
		},
		"large": {
			Model: "pendulum", Method: "implicit",
			Mesh:      MeshConfig{Start: 0, Stop: 20, Step: 0.01},
			InitState: []float64{0, 2.5, 0},
			Tolerance: solver.DefaultTolerance, Limit: solver.DefaultLimit,
		},
	},
	"oscillator": {
		"unit": {
			Model: "oscillator", Method: "explicit",
			Mesh:      MeshConfig{Start: 0, Stop: 6.283185307179586, Points: 629},
			InitState: []float64{0, 1, 0},
			Params:    map[string][]float64{"omega": {1}},
		},
	},
	"spring_mass": {
		"bounce": {
			Model: "spring_mass", Method: "explicit",
			Mesh:      MeshConfig{Start: 0, Stop: 20, Step: 0.01},
			InitState: []float64{0, 2, 0},
		},
		"impulse": {
			Model: "spring_mass", Method: "implicit",
			Mesh:      MeshConfig{Values: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}},
			InitState: []float64{0, 0, 0},
			Params:    map[string][]float64{"force": {0, 10, 10, 0, 0, 0, 0, 0, 0, 0, 0}},
			Tolerance: solver.DefaultTolerance, Limit: solver.DefaultLimit,
		},
	},
	"jerk": {
		"chaos": {
			Model: "jerk", Method: "explicit",
			Mesh:      MeshConfig{Start: 0, Stop: 100, Step: 0.005},
			InitState: []float64{0, 0.02, 0, 0},
			Params:    map[string][]float64{"a": {0.6}},
		},
	},
	"vanderpol": {
		"relaxation": {
			Model: "vanderpol", Method: "implicit",
			Mesh:      MeshConfig{Start: 0, Stop: 40, Step: 0.005},
			InitState: []float64{0, 2, 0},
			Params:    map[string][]float64{"mu": {5}},
			Tolerance: solver.DefaultTolerance, Limit: solver.DefaultLimit,
		},
	},
	"duffing": {
		"chaotic": {
			Model: "duffing", Method: "explicit",
			Mesh:      MeshConfig{Start: 0, Stop: 200, Step: 0.01},
			InitState: []float64{0, 1, 0},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, name string) *Config {
	presets, ok := Presets[model]
	if !ok {
		return nil
	}
	p, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.InitState = append([]float64(nil), p.InitState...)
	cfg.Mesh.Values = append([]float64(nil), p.Mesh.Values...)
	cfg.Params = make(map[string][]float64, len(p.Params))
	for k, v := range p.Params {
		cfg.Params[k] = append([]float64(nil), v...)
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = solver.DefaultTolerance
	}
	if cfg.Limit == 0 {
		cfg.Limit = solver.DefaultLimit
	}
	return &cfg
}

func ListPresets(model string) []string {
	presets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
