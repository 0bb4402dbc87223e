package boxmodel

// kernelFlux creates one kernel-owned flux feeding a group member.
func (m *Model) kernelFlux(name, species string, g *Group, isotopes bool) (int, error) {
	ri, err := g.Member(species)
	if err != nil {
		return -1, err
	}
	return m.AddFlux(Flux{
		Name:       name + "." + species,
		Source:     Boundary,
		Sink:       ri,
		Connection: -1,
		Isotopes:   isotopes,
	}), nil
}

// speciesFluxes builds the kernel-owned fluxes for the species a
// biogeochemical kernel contributes to. DIC carries isotopes when the
// member reservoir does.
func (m *Model) speciesFluxes(name string, gi int) (SpeciesFluxes, error) {
	g := &m.Groups[gi]
	sf := SpeciesFluxes{}
	var err error

	for _, b := range []struct {
		dst     *int
		species string
	}{
		{&sf.O2, "O2"},
		{&sf.TA, "TA"},
		{&sf.PO4, "PO4"},
		{&sf.SO4, "SO4"},
		{&sf.H2S, "H2S"},
	} {
		if *b.dst, err = m.kernelFlux(name, b.species, g, false); err != nil {
			return sf, err
		}
	}

	di, err := g.Member("DIC")
	if err != nil {
		return sf, err
	}
	sf.DIC = m.AddFlux(Flux{
		Name:       name + ".DIC",
		Source:     Boundary,
		Sink:       di,
		Connection: -1,
		Isotopes:   m.Reservoirs[di].Isotopes,
	})
	return sf, nil
}

// AddPhotosynthesis wires a photosynthesis kernel into a surface
// group. Productivity is the PO4 export in mol/yr; pass prodFlux >= 0
// to drive it from a flux instead. The returned binding owns the OM
// and CaCO3 export carrier fluxes consumed by remineralization.
func (m *Model) AddPhotosynthesis(name string, gi int, productivity float64, prodFlux int) (int, error) {
	if gi < 0 || gi >= len(m.Groups) {
		return -1, Setupf(name, ErrMissingReference, "group index %d out of range", gi)
	}
	sf, err := m.speciesFluxes(name, gi)
	if err != nil {
		return -1, err
	}

	om := m.AddFlux(Flux{
		Name: name + ".OM", Source: Boundary, Sink: Boundary,
		Connection: -1, Isotopes: true,
	})
	caco3 := m.AddFlux(Flux{
		Name: name + ".CaCO3", Source: Boundary, Sink: Boundary,
		Connection: -1, Isotopes: true,
	})

	return m.AddBinding(ExternalCode{
		Name:             name,
		Kernel:           Photosynthesis,
		Group:            gi,
		Productivity:     productivity,
		ProductivityFlux: prodFlux,
		OMExport:         om,
		CaCO3Export:      caco3,
		Fluxes:           sf,
	}), nil
}

// AddRemineralization wires a remineralization kernel into a deep
// group. The source lists reference OM and CaCO3 export fluxes of
// upstream photosynthesis bindings, weighted by the fraction that is
// remineralized in this box.
func (m *Model) AddRemineralization(name string, gi int, om, caco3 []FluxFraction, caco3Reactions bool) (int, error) {
	if gi < 0 || gi >= len(m.Groups) {
		return -1, Setupf(name, ErrMissingReference, "group index %d out of range", gi)
	}
	if len(om) == 0 {
		return -1, Setupf(name, ErrMissingReference, "remineralization needs at least one OM source")
	}
	for _, s := range append(append([]FluxFraction{}, om...), caco3...) {
		if s.Flux < 0 || s.Flux >= len(m.Fluxes) {
			return -1, Setupf(name, ErrMissingReference, "source flux index %d out of range", s.Flux)
		}
	}
	sf, err := m.speciesFluxes(name, gi)
	if err != nil {
		return -1, err
	}

	return m.AddBinding(ExternalCode{
		Name:           name,
		Kernel:         Remineralization,
		Group:          gi,
		OMSources:      om,
		CaCO3Sources:   caco3,
		CaCO3Reactions: caco3Reactions,
		Fluxes:         sf,
	}), nil
}

// AddCarbonateSystem binds the carbonate equilibrium solver to a
// group. The group must carry seawater constants and DIC plus TA
// members; the binding produces the H+, CA, HCO3, CO3 and CO2aq
// datafields read by gas exchange.
func (m *Model) AddCarbonateSystem(name string, gi int) (int, error) {
	if gi < 0 || gi >= len(m.Groups) {
		return -1, Setupf(name, ErrMissingReference, "group index %d out of range", gi)
	}
	g := &m.Groups[gi]
	if g.Seawater == nil {
		return -1, Setupf(name, ErrMissingReference, "group %s has no seawater constants", g.Name)
	}
	if _, err := g.Member("DIC"); err != nil {
		return -1, err
	}
	if _, err := g.Member("TA"); err != nil {
		return -1, err
	}

	return m.AddBinding(ExternalCode{
		Name:   name,
		Kernel: CarbonateSystem,
		Group:  gi,
	}), nil
}
