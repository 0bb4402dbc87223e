package config

// Sv20 is a 20 Sverdrup overturning volume flux in l/yr.
const Sv20 = 6.3e17

// Presets holds ready-to-run model descriptions keyed by model family
// and scenario. Volumes are liters, concentrations mol/l, fluxes
// mol/yr; atmosphere reservoirs carry total moles in Volume and mole
// fraction in Concentration.
var Presets = map[string]map[string]*Config{
	"po4": {
		"steady": po4Model(nil),
		"pulse": po4Model([]SignalConfig{{
			Name:   "river_pulse",
			Times:  []float64{0, 500, 1000, 1500},
			Masses: []float64{0, 0, 3e10, 0},
		}}),
	},
	"carbon": {
		"preindustrial": carbonModel(280e-6, 8.05),
		"high_co2":      carbonModel(560e-6, 7.85),
	},
}

// po4Model is a two box phosphorus cycle: riverine input, biological
// export from the surface box, remineralization treated as a direct
// transfer, and a burial leak proportional to export.
func po4Model(signals []SignalConfig) *Config {
	cfg := &Config{
		Name:       "po4",
		Integrator: "rk4",
		Dt:         10.0,
		Duration:   200e3,
		Reservoirs: []ReservoirConfig{
			{Name: "S_PO4", Species: "PO4", Volume: 3e19, Concentration: 0.3e-6},
			{Name: "D_PO4", Species: "PO4", Volume: 1e21, Concentration: 2.4e-6},
		},
		Signals: signals,
		Connections: []ConnectionConfig{
			{Name: "river", Type: "regular", Source: "boundary", Sink: "S_PO4", Rate: 4.5e10},
			{Name: "downwelling", Type: "scale_with_concentration",
				Source: "S_PO4", Sink: "D_PO4", Scale: Sv20},
			{Name: "upwelling", Type: "scale_with_concentration",
				Source: "D_PO4", Sink: "S_PO4", Scale: Sv20},
			{Name: "export", Type: "scale_with_concentration",
				Source: "S_PO4", Sink: "D_PO4", Scale: 3e19 / 2.0}, // tau = 2 yr
			{Name: "burial", Type: "scale_with_flux",
				Source: "D_PO4", Sink: "boundary", RefConnection: "export", Scale: 0.01},
		},
	}
	if signals != nil {
		cfg.Connections[0].Signal = signals[0].Name
	}
	return cfg
}

// carbonModel is a surface/deep carbon pump with air-sea gas
// exchange, carbonate chemistry in both boxes, photosynthetic export
// and deep remineralization including CaCO3 dissolution.
func carbonModel(pco2 float64, deepPH float64) *Config {
	members := func(box string, dicDelta float64, o2 float64) []ReservoirConfig {
		return []ReservoirConfig{
			{Name: box + "_DIC", Species: "DIC", Group: box,
				Concentration: 2.1e-3, Delta: dicDelta, Isotopes: true},
			{Name: box + "_TA", Species: "TA", Group: box, Concentration: 2.3e-3},
			{Name: box + "_PO4", Species: "PO4", Group: box, Concentration: 1.0e-6},
			{Name: box + "_O2", Species: "O2", Group: box, Concentration: o2},
			{Name: box + "_SO4", Species: "SO4", Group: box, Concentration: 0.028},
			{Name: box + "_H2S", Species: "H2S", Group: box, Concentration: 0},
		}
	}

	exchange := func(species string) []ConnectionConfig {
		return []ConnectionConfig{
			{Name: "down_" + species, Type: "scale_with_concentration",
				Source: "surface_" + species, Sink: "deep_" + species, Scale: Sv20},
			{Name: "up_" + species, Type: "scale_with_concentration",
				Source: "deep_" + species, Sink: "surface_" + species, Scale: Sv20},
		}
	}

	conns := []ConnectionConfig{
		{Name: "co2_airsea", Type: "gas_exchange",
			Source: "CO2_at", Sink: "surface_DIC",
			Gas: "CO2_at", Liquid: "surface_DIC", CarbonateRef: "cs_surface",
			Scale: 1.6e18, Isotopes: true},
		{Name: "silicate_weathering", Type: "weathering",
			Source: "boundary", Sink: "surface_DIC",
			RefReservoir: "CO2_at", F0: 12e12, PCO20: 280e-6, Ex: 0.4},
		{Name: "caco3_burial", Type: "regular",
			Source: "deep_DIC", Sink: "boundary", Rate: 12e12, Delta: 0},
	}
	for _, s := range []string{"DIC", "TA", "PO4", "O2", "SO4", "H2S"} {
		conns = append(conns, exchange(s)...)
	}

	return &Config{
		Name:       "carbon",
		Integrator: "rk4",
		Dt:         1.0,
		Duration:   10e3,
		Groups: []GroupConfig{
			{Name: "surface", Volume: 3e19,
				Seawater: &SeawaterConfig{Temperature: 25, Salinity: 35, Pressure: 0, PH: 8.1}},
			{Name: "deep", Volume: 1e21,
				Seawater: &SeawaterConfig{Temperature: 4, Salinity: 35, Pressure: 240, PH: deepPH}},
		},
		Reservoirs: append(append([]ReservoirConfig{
			{Name: "CO2_at", Species: "CO2", Gas: true, Isotopes: true,
				Volume: 1.773e20, Concentration: pco2, Delta: -7},
		}, members("surface", 2.0, 2.4e-4)...), members("deep", 0.5, 1.5e-4)...),
		Connections: conns,
		Kernels: []KernelConfig{
			{Name: "cs_surface", Type: "carbonate_system", Group: "surface"},
			{Name: "cs_deep", Type: "carbonate_system", Group: "deep"},
			{Name: "ps_surface", Type: "photosynthesis", Group: "surface",
				Productivity: 7.8e12},
			{Name: "rm_deep", Type: "remineralization", Group: "deep",
				OMSources:      []SourceConfig{{Kernel: "ps_surface", Fraction: 0.8}},
				CaCO3Sources:   []SourceConfig{{Kernel: "ps_surface", Fraction: 1.0}},
				CaCO3Reactions: true},
		},
	}
}

func GetPreset(family, scenario string) *Config {
	scenarios, ok := Presets[family]
	if !ok {
		return nil
	}
	cfg, ok := scenarios[scenario]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(family string) []string {
	scenarios, ok := Presets[family]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	return names
}
