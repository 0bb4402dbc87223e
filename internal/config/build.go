package config

import (
	"github.com/maagusrm/esbmtk/internal/boxmodel"
)

// Build resolves all names and constructs the model arena. Name
// resolution failures surface as configuration errors carrying the
// offending entity; the arena is additionally validated before it is
// returned.
func (c *Config) Build() (*boxmodel.Model, error) {
	m := boxmodel.New(c.Name)
	if c.Stoichiometry != nil {
		m.Stoich = boxmodel.Stoichiometry{
			PCRatio:         c.Stoichiometry.PCRatio,
			NCRatio:         c.Stoichiometry.NCRatio,
			O2CRatio:        c.Stoichiometry.O2CRatio,
			PUE:             c.Stoichiometry.PUE,
			RainRate:        c.Stoichiometry.RainRate,
			OMFractionation: c.Stoichiometry.OMFractionation,
		}
	}

	groups := make(map[string]int, len(c.Groups))
	for _, g := range c.Groups {
		spec := (*boxmodel.SeawaterSpec)(nil)
		if g.Seawater != nil {
			spec = &boxmodel.SeawaterSpec{
				Temperature: g.Seawater.Temperature,
				Salinity:    g.Seawater.Salinity,
				Pressure:    g.Seawater.Pressure,
				PH:          g.Seawater.PH,
			}
		}
		if _, dup := groups[g.Name]; dup {
			return nil, boxmodel.Setupf(g.Name, boxmodel.ErrInvalidState, "duplicate group")
		}
		groups[g.Name] = m.AddGroup(boxmodel.Group{
			Name: g.Name, Volume: g.Volume, Seawater: spec,
		})
	}

	reservoirs := make(map[string]int, len(c.Reservoirs))
	for _, r := range c.Reservoirs {
		sp, ok := boxmodel.SpeciesByName(r.Species)
		if !ok {
			return nil, boxmodel.Setupf(r.Name, boxmodel.ErrMissingReference,
				"unknown species %q", r.Species)
		}
		gi := -1
		vol := r.Volume
		if r.Group != "" {
			g, ok := groups[r.Group]
			if !ok {
				return nil, boxmodel.Setupf(r.Name, boxmodel.ErrMissingReference,
					"unknown group %q", r.Group)
			}
			gi = g
			if vol == 0 {
				vol = m.Groups[gi].Volume
			}
		}
		if vol == 0 {
			vol = DefaultVolume
		}
		kind := boxmodel.Unclassified
		if r.Static {
			kind = boxmodel.Static
		}
		if _, dup := reservoirs[r.Name]; dup {
			return nil, boxmodel.Setupf(r.Name, boxmodel.ErrInvalidState, "duplicate reservoir")
		}
		ri := m.AddReservoir(boxmodel.Reservoir{
			Name:          r.Name,
			Species:       sp,
			Volume:        vol,
			Concentration: r.Concentration,
			Delta:         r.Delta,
			Isotopes:      r.Isotopes,
			Gas:           r.Gas,
			Group:         gi,
			Kind:          kind,
		})
		reservoirs[r.Name] = ri
		if gi >= 0 {
			m.Groups[gi].Members[r.Species] = ri
		}
	}

	signals := make(map[string]*boxmodel.Signal, len(c.Signals))
	for _, s := range c.Signals {
		if len(s.Times) != len(s.Masses) || (s.Lights != nil && len(s.Lights) != len(s.Times)) {
			return nil, boxmodel.Setupf(s.Name, boxmodel.ErrInvalidState,
				"signal sample lengths disagree")
		}
		signals[s.Name] = &boxmodel.Signal{
			Name: s.Name, Times: s.Times, Masses: s.Masses, Lights: s.Lights,
		}
	}

	endpoint := func(entity, name string) (int, error) {
		if name == "" || name == "boundary" {
			return boxmodel.Boundary, nil
		}
		ri, ok := reservoirs[name]
		if !ok {
			return 0, boxmodel.Setupf(entity, boxmodel.ErrMissingReference,
				"unknown reservoir %q", name)
		}
		return ri, nil
	}

	// carbonate bindings come first so that gas exchange
	// connections can reference them
	bindings := make(map[string]int, len(c.Kernels))
	for _, k := range c.Kernels {
		kt, err := boxmodel.ParseKernelType(k.Type)
		if err != nil {
			return nil, boxmodel.Setupf(k.Name, err, "kernel type")
		}
		if kt != boxmodel.CarbonateSystem {
			continue
		}
		gi, ok := groups[k.Group]
		if !ok {
			return nil, boxmodel.Setupf(k.Name, boxmodel.ErrMissingReference,
				"unknown group %q", k.Group)
		}
		bi, err := m.AddCarbonateSystem(k.Name, gi)
		if err != nil {
			return nil, err
		}
		bindings[k.Name] = bi
	}

	connections := make(map[string]int, len(c.Connections))
	for _, cc := range c.Connections {
		pt, err := boxmodel.ParseProcessType(cc.Type)
		if err != nil {
			return nil, boxmodel.Setupf(cc.Name, err, "process type")
		}
		src, err := endpoint(cc.Name, cc.Source)
		if err != nil {
			return nil, err
		}
		snk, err := endpoint(cc.Name, cc.Sink)
		if err != nil {
			return nil, err
		}

		conn := boxmodel.Connection{
			Name: cc.Name, Type: pt, Source: src, Sink: snk,
			Rate: cc.Rate, Delta: cc.Delta, Scale: cc.Scale,
			F0: cc.F0, PCO20: cc.PCO20, Ex: cc.Ex,
			RefFlux: -1, RefReservoir: -1, CSRef: -1,
			Isotopes: cc.Isotopes,
		}
		if cc.Signal != "" {
			sig, ok := signals[cc.Signal]
			if !ok {
				return nil, boxmodel.Setupf(cc.Name, boxmodel.ErrMissingReference,
					"unknown signal %q", cc.Signal)
			}
			conn.Signal = sig
		}
		if cc.RefConnection != "" {
			ref, ok := connections[cc.RefConnection]
			if !ok {
				return nil, boxmodel.Setupf(cc.Name, boxmodel.ErrMissingReference,
					"unknown reference connection %q", cc.RefConnection)
			}
			conn.RefFlux = m.Connections[ref].Flux
		}
		if cc.RefReservoir != "" {
			if conn.RefReservoir, err = endpoint(cc.Name, cc.RefReservoir); err != nil {
				return nil, err
			}
		}
		if pt == boxmodel.GasExchange {
			if conn.Gas, err = endpoint(cc.Name, cc.Gas); err != nil {
				return nil, err
			}
			if conn.Liquid, err = endpoint(cc.Name, cc.Liquid); err != nil {
				return nil, err
			}
			bi, ok := bindings[cc.CarbonateRef]
			if !ok {
				return nil, boxmodel.Setupf(cc.Name, boxmodel.ErrMissingReference,
					"unknown carbonate binding %q", cc.CarbonateRef)
			}
			conn.CSRef = bi
		}
		connections[cc.Name] = m.AddConnection(conn)
	}

	// photosynthesis before remineralization: the latter consumes
	// the former's export fluxes
	for _, k := range c.Kernels {
		kt, _ := boxmodel.ParseKernelType(k.Type)
		if kt != boxmodel.Photosynthesis {
			continue
		}
		gi, ok := groups[k.Group]
		if !ok {
			return nil, boxmodel.Setupf(k.Name, boxmodel.ErrMissingReference,
				"unknown group %q", k.Group)
		}
		prodFlux := -1
		if k.ProductivityConnection != "" {
			ci, ok := connections[k.ProductivityConnection]
			if !ok {
				return nil, boxmodel.Setupf(k.Name, boxmodel.ErrMissingReference,
					"unknown connection %q", k.ProductivityConnection)
			}
			prodFlux = m.Connections[ci].Flux
		}
		bi, err := m.AddPhotosynthesis(k.Name, gi, k.Productivity, prodFlux)
		if err != nil {
			return nil, err
		}
		bindings[k.Name] = bi
	}

	exportFlux := func(entity string, s SourceConfig) (boxmodel.FluxFraction, error) {
		bi, ok := bindings[s.Kernel]
		if !ok {
			return boxmodel.FluxFraction{}, boxmodel.Setupf(entity,
				boxmodel.ErrMissingReference, "unknown kernel %q", s.Kernel)
		}
		b := &m.Bindings[bi]
		fi := b.OMExport
		if s.Part == "caco3" {
			fi = b.CaCO3Export
		}
		return boxmodel.FluxFraction{Flux: fi, Fraction: s.Fraction}, nil
	}

	for _, k := range c.Kernels {
		kt, _ := boxmodel.ParseKernelType(k.Type)
		if kt != boxmodel.Remineralization {
			continue
		}
		gi, ok := groups[k.Group]
		if !ok {
			return nil, boxmodel.Setupf(k.Name, boxmodel.ErrMissingReference,
				"unknown group %q", k.Group)
		}
		var om, caco3 []boxmodel.FluxFraction
		for _, s := range k.OMSources {
			ff, err := exportFlux(k.Name, s)
			if err != nil {
				return nil, err
			}
			om = append(om, ff)
		}
		for _, s := range k.CaCO3Sources {
			s.Part = "caco3"
			ff, err := exportFlux(k.Name, s)
			if err != nil {
				return nil, err
			}
			caco3 = append(caco3, ff)
		}
		if _, err := m.AddRemineralization(k.Name, gi, om, caco3, k.CaCO3Reactions); err != nil {
			return nil, err
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
