package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Integrator != "rk4" {
		t.Errorf("expected integrator rk4, got %s", cfg.Integrator)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	cfg := GetPreset("po4", "steady")

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.Name != cfg.Name {
		t.Errorf("name = %s, want %s", got.Name, cfg.Name)
	}
	if len(got.Reservoirs) != len(cfg.Reservoirs) {
		t.Fatalf("reservoirs = %d, want %d", len(got.Reservoirs), len(cfg.Reservoirs))
	}
	if got.Connections[1].Scale != Sv20 {
		t.Errorf("downwelling scale = %g, want %g", got.Connections[1].Scale, Sv20)
	}
	if got.Dt != cfg.Dt || got.Duration != cfg.Duration {
		t.Errorf("run settings changed in round trip")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBuildPO4(t *testing.T) {
	m, err := GetPreset("po4", "steady").Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(m.Reservoirs) != 2 {
		t.Fatalf("reservoirs = %d, want 2", len(m.Reservoirs))
	}
	if len(m.Connections) != 5 {
		t.Fatalf("connections = %d, want 5", len(m.Connections))
	}

	// scale_with_flux must point at the export connection's flux
	burial := m.Connections[4]
	if burial.RefFlux != m.Connections[3].Flux {
		t.Errorf("burial ref flux = %d, want %d", burial.RefFlux, m.Connections[3].Flux)
	}
	if burial.Sink != boxmodel.Boundary {
		t.Errorf("burial sink = %d, want boundary", burial.Sink)
	}
}

func TestBuildPO4Pulse(t *testing.T) {
	m, err := GetPreset("po4", "pulse").Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	river := m.Connections[0]
	if river.Signal == nil {
		t.Fatal("river connection lost its signal")
	}
	if mass, _ := river.Signal.At(1000); mass != 3e10 {
		t.Errorf("signal peak = %g, want 3e10", mass)
	}
}

func TestBuildCarbon(t *testing.T) {
	m, err := GetPreset("carbon", "preindustrial").Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(m.Groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(m.Groups))
	}
	if len(m.Bindings) != 4 {
		t.Fatalf("bindings = %d, want 4", len(m.Bindings))
	}

	// the gas exchange connection must resolve its carbonate binding
	var gasex *boxmodel.Connection
	for i := range m.Connections {
		if m.Connections[i].Type == boxmodel.GasExchange {
			gasex = &m.Connections[i]
		}
	}
	if gasex == nil {
		t.Fatal("no gas exchange connection in arena")
	}
	if gasex.CSRef < 0 || m.Bindings[gasex.CSRef].Kernel != boxmodel.CarbonateSystem {
		t.Errorf("gas exchange carbonate ref not resolved")
	}
	if !m.Reservoirs[gasex.Gas].Gas {
		t.Error("gas endpoint is not a gas reservoir")
	}

	// remineralization sources must reference the photosynthesis
	// export carriers
	var ps, rm *boxmodel.ExternalCode
	for i := range m.Bindings {
		switch m.Bindings[i].Kernel {
		case boxmodel.Photosynthesis:
			ps = &m.Bindings[i]
		case boxmodel.Remineralization:
			rm = &m.Bindings[i]
		}
	}
	if ps == nil || rm == nil {
		t.Fatal("biogeochemical kernels missing from arena")
	}
	if rm.OMSources[0].Flux != ps.OMExport {
		t.Errorf("OM source flux = %d, want %d", rm.OMSources[0].Flux, ps.OMExport)
	}
	if rm.CaCO3Sources[0].Flux != ps.CaCO3Export {
		t.Errorf("CaCO3 source flux = %d, want %d", rm.CaCO3Sources[0].Flux, ps.CaCO3Export)
	}
}

func TestBuildGroupVolumeDefault(t *testing.T) {
	m, err := GetPreset("carbon", "preindustrial").Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ri, err := m.ReservoirByName("deep_DIC")
	if err != nil {
		t.Fatalf("deep_DIC: %v", err)
	}
	if m.Reservoirs[ri].Volume != 1e21 {
		t.Errorf("volume = %g, want group volume 1e21", m.Reservoirs[ri].Volume)
	}
}

func TestBuildUnknownReferences(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"species", func(c *Config) { c.Reservoirs[0].Species = "XYZ" }},
		{"group", func(c *Config) { c.Reservoirs[0].Group = "abyss" }},
		{"reservoir", func(c *Config) { c.Connections[0].Sink = "nowhere" }},
		{"signal", func(c *Config) { c.Connections[0].Signal = "ghost" }},
		{"ref connection", func(c *Config) { c.Connections[4].RefConnection = "ghost" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "m.yaml")
			if err := Save(path, GetPreset("po4", "steady")); err != nil {
				t.Fatal(err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)

			_, err = cfg.Build()
			var ce *boxmodel.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if !errors.Is(err, boxmodel.ErrMissingReference) {
				t.Errorf("expected missing reference, got %v", err)
			}
		})
	}
}

func TestBuildBadKernelType(t *testing.T) {
	cfg := &Config{
		Name: "m",
		Reservoirs: []ReservoirConfig{
			{Name: "A", Species: "PO4", Volume: 1, Concentration: 1},
		},
		Connections: []ConnectionConfig{
			{Name: "in", Type: "regular", Source: "boundary", Sink: "A", Rate: 1},
		},
		Kernels: []KernelConfig{{Name: "k", Type: "alchemy", Group: "g"}},
	}
	if _, err := cfg.Build(); !errors.Is(err, boxmodel.ErrUnknownKernel) {
		t.Fatalf("expected unknown kernel error, got %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	if GetPreset("po4", "steady") == nil {
		t.Fatal("expected preset, got nil")
	}
	if GetPreset("po4", "nonexistent") != nil {
		t.Error("expected nil for nonexistent scenario")
	}
	if GetPreset("nonexistent", "steady") != nil {
		t.Error("expected nil for nonexistent family")
	}
}

func TestListPresets(t *testing.T) {
	if len(ListPresets("carbon")) == 0 {
		t.Error("expected scenarios for carbon")
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent family")
	}
}
