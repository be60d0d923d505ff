package config

import (
	"fmt"
	"os"

	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/mesh"
	"github.com/san-kum/odestep/internal/solver"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStart  = 0.0
	DefaultStop   = 10.0
	DefaultPoints = 101
)

type Config struct {
	Model     string               `yaml:"model"`
	Method    string               `yaml:"method"`
	Mesh      MeshConfig           `yaml:"mesh"`
	InitState []float64            `yaml:"init_state,omitempty"`
	Order     *int                 `yaml:"order,omitempty"`
	Params    map[string][]float64 `yaml:"params,omitempty"`
	Tolerance float64              `yaml:"tolerance"`
	Limit     int                  `yaml:"limit"`
}

// MeshConfig describes the grid. Values wins over Step, and Step wins
// over Points.
type MeshConfig struct {
	Start  float64   `yaml:"start"`
	Stop   float64   `yaml:"stop"`
	Points int       `yaml:"points,omitempty"`
	Step   float64   `yaml:"step,omitempty"`
	Values []float64 `yaml:"values,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:  "decay",
		Method: "explicit",
		Mesh: MeshConfig{
			Start:  DefaultStart,
			Stop:   DefaultStop,
			Points: DefaultPoints,
		},
		Tolerance: solver.DefaultTolerance,
		Limit:     solver.DefaultLimit,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (m MeshConfig) Build() ([]float64, error) {
	switch {
	case len(m.Values) > 0:
		points := append([]float64(nil), m.Values...)
		return points, mesh.Validate(points)
	case m.Step > 0:
		return mesh.Arange(m.Start, m.Stop, m.Step)
	case m.Points > 0:
		return mesh.Linspace(m.Start, m.Stop, m.Points)
	default:
		return nil, fmt.Errorf("mesh: need values, step or points: %w", dynamo.ErrEmptyMesh)
	}
}

func (c *Config) GetParams() dynamo.Params {
	p := make(dynamo.Params, len(c.Params))
	for name, s := range c.Params {
		p[name] = append(dynamo.Series(nil), s...)
	}
	return p
}

// SetParam replaces a parameter with a constant series.
func (c *Config) SetParam(name string, value float64) {
	if c.Params == nil {
		c.Params = make(map[string][]float64)
	}
	c.Params[name] = []float64{value}
}
