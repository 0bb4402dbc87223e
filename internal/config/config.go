// Package config declares the yaml model description and turns it
// into a validated arena ready for assembly.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 1.0
	DefaultDuration = 1000.0
	DefaultVolume   = 1.0e18
)

type Config struct {
	Name        string  `yaml:"name"`
	Integrator  string  `yaml:"integrator"`
	Dt          float64 `yaml:"dt"`
	Duration    float64 `yaml:"duration"`
	RecordEvery int     `yaml:"record_every"`

	Stoichiometry *StoichiometryConfig `yaml:"stoichiometry,omitempty"`
	Groups        []GroupConfig        `yaml:"groups,omitempty"`
	Reservoirs    []ReservoirConfig    `yaml:"reservoirs"`
	Signals       []SignalConfig       `yaml:"signals,omitempty"`
	Connections   []ConnectionConfig   `yaml:"connections,omitempty"`
	Kernels       []KernelConfig       `yaml:"kernels,omitempty"`
}

type StoichiometryConfig struct {
	PCRatio         float64 `yaml:"pc_ratio"`
	NCRatio         float64 `yaml:"nc_ratio"`
	O2CRatio        float64 `yaml:"o2c_ratio"`
	PUE             float64 `yaml:"pue"`
	RainRate        float64 `yaml:"rain_rate"`
	OMFractionation float64 `yaml:"om_fractionation"`
}

type SeawaterConfig struct {
	Temperature float64 `yaml:"temperature"`
	Salinity    float64 `yaml:"salinity"`
	Pressure    float64 `yaml:"pressure"`
	PH          float64 `yaml:"ph"`
}

type GroupConfig struct {
	Name     string          `yaml:"name"`
	Volume   float64         `yaml:"volume"`
	Seawater *SeawaterConfig `yaml:"seawater,omitempty"`
}

type ReservoirConfig struct {
	Name          string  `yaml:"name"`
	Species       string  `yaml:"species"`
	Group         string  `yaml:"group,omitempty"`
	Volume        float64 `yaml:"volume,omitempty"` // defaults to the group volume
	Concentration float64 `yaml:"concentration"`
	Delta         float64 `yaml:"delta,omitempty"`
	Isotopes      bool    `yaml:"isotopes,omitempty"`
	Gas           bool    `yaml:"gas,omitempty"`
	Static        bool    `yaml:"static,omitempty"`
}

type SignalConfig struct {
	Name   string    `yaml:"name"`
	Times  []float64 `yaml:"times"`
	Masses []float64 `yaml:"masses"`
	Lights []float64 `yaml:"lights,omitempty"`
}

type ConnectionConfig struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Source string `yaml:"source"` // reservoir name or "boundary"
	Sink   string `yaml:"sink"`

	Rate  float64 `yaml:"rate,omitempty"`
	Delta float64 `yaml:"delta,omitempty"`
	Scale float64 `yaml:"scale,omitempty"`

	RefConnection string  `yaml:"ref_connection,omitempty"` // scale_with_flux
	RefReservoir  string  `yaml:"ref_reservoir,omitempty"`  // weathering
	F0            float64 `yaml:"f0,omitempty"`
	PCO20         float64 `yaml:"pco2_0,omitempty"`
	Ex            float64 `yaml:"ex,omitempty"`

	Gas          string `yaml:"gas,omitempty"` // gas_exchange endpoints
	Liquid       string `yaml:"liquid,omitempty"`
	CarbonateRef string `yaml:"carbonate_ref,omitempty"`
	Isotopes     bool   `yaml:"isotopes,omitempty"`
	Signal       string `yaml:"signal,omitempty"`
}

type SourceConfig struct {
	Kernel   string  `yaml:"kernel"`
	Part     string  `yaml:"part,omitempty"` // "om" (default) or "caco3"
	Fraction float64 `yaml:"fraction"`
}

type KernelConfig struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Group string `yaml:"group"`

	Productivity           float64 `yaml:"productivity,omitempty"`
	ProductivityConnection string  `yaml:"productivity_connection,omitempty"`

	OMSources      []SourceConfig `yaml:"om_sources,omitempty"`
	CaCO3Sources   []SourceConfig `yaml:"caco3_sources,omitempty"`
	CaCO3Reactions bool           `yaml:"caco3_reactions,omitempty"`
}

// DefaultConfig returns the run settings of an empty model.
func DefaultConfig() *Config {
	return &Config{
		Name:       "model",
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
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
