package boxmodel

import (
	"fmt"
	"math"
)

// Boundary marks a flux endpoint that lies outside the model (a
// source or sink node). Boundary endpoints are exempt from mass
// conservation.
const Boundary = -1

// Kind is the reservoir classification determined once before
// integration.
type Kind int

const (
	Unclassified Kind = iota
	FluxDriven        // derivative is the signed sum of owned fluxes
	Computed          // value produced by an external-code kernel
	Static            // externally fixed, derivative forced to zero
)

func (k Kind) String() string {
	switch k {
	case FluxDriven:
		return "flux-driven"
	case Computed:
		return "computed"
	case Static:
		return "static"
	}
	return "unclassified"
}

// Reservoir is a named state holder for one species. Liquid reservoirs
// carry concentrations (mol/l) in the state vector; gas reservoirs
// carry masses (mol) plus a companion slot for the total mole
// inventory of the atmosphere, which gas exchange changes over time.
type Reservoir struct {
	Name          string
	Species       Species
	Volume        float64 // liters; for gas reservoirs the initial mole inventory
	Concentration float64 // initial concentration, mol/l
	Delta         float64 // initial isotope delta, used when Isotopes is set
	Isotopes      bool
	Gas           bool
	Group         int // index into Model.Groups, -1 if ungrouped
	Kind          Kind
}

// Mass returns the initial total mass in mol.
func (r *Reservoir) Mass() float64 {
	return r.Concentration * r.Volume
}

// Flux is a directed mass transfer. A flux belongs to exactly one
// producing process: either a Connection or an external-code kernel
// (Connection == -1). It contributes +1 at the sink and -1 at the
// source.
type Flux struct {
	Name       string
	Source     int // reservoir index or Boundary
	Sink       int // reservoir index or Boundary
	Connection int // owning connection index, -1 for kernel-owned fluxes
	Isotopes   bool
}

// Connection describes how one flux value is computed. Exactly the
// fields required by its process type are consulted; the rest stay at
// their zero values.
type Connection struct {
	Name   string
	Type   ProcessType
	Source int // reservoir index or Boundary
	Sink   int // reservoir index or Boundary
	Flux   int // the flux this connection produces

	Rate  float64 // regular: fixed rate, mol/yr
	Delta float64 // regular: isotope delta of the transferred mass
	Scale float64 // scale_with_*: scaling constant; gas_exchange: piston velocity * area

	RefFlux      int // scale_with_flux: flux whose current value is scaled
	RefReservoir int // weathering: reservoir whose concentration drives the flux

	F0    float64 // weathering: baseline flux, mol/yr
	PCO20 float64 // weathering: baseline CO2 concentration, mol/l
	Ex    float64 // weathering: exponent

	Gas    int // gas_exchange: gas reservoir
	Liquid int // gas_exchange: liquid DIC reservoir
	CSRef  int // gas_exchange: carbonate binding providing [CO2]aq

	Isotopes bool
	Signal   *Signal // optional additive rate override (regular only)
}

// Signal is a time-interpolated mass (and optional light-isotope)
// override added onto a regular flux.
type Signal struct {
	Name   string
	Times  []float64
	Masses []float64
	Lights []float64 // nil when the signal carries no isotope data
}

// At returns the signal mass and light mass at time t, linearly
// interpolated and clamped to the first/last sample outside the
// sampled range.
func (s *Signal) At(t float64) (m, l float64) {
	n := len(s.Times)
	if n == 0 {
		return 0, 0
	}
	if t <= s.Times[0] {
		return s.sample(0)
	}
	if t >= s.Times[n-1] {
		return s.sample(n - 1)
	}
	hi := 1
	for s.Times[hi] < t {
		hi++
	}
	lo := hi - 1
	w := (t - s.Times[lo]) / (s.Times[hi] - s.Times[lo])
	m0, l0 := s.sample(lo)
	m1, l1 := s.sample(hi)
	return m0 + w*(m1-m0), l0 + w*(l1-l0)
}

func (s *Signal) sample(i int) (float64, float64) {
	m := s.Masses[i]
	if s.Lights == nil {
		return m, 0
	}
	return m, s.Lights[i]
}

// SeawaterSpec holds the scalar inputs for a group's equilibrium
// chemistry. The derived constants live in the seawater package.
type SeawaterSpec struct {
	Temperature float64 // deg C
	Salinity    float64 // psu
	Pressure    float64 // atm
	PH          float64
}

// Group collects the reservoirs of one water mass (a "box") so that
// kernels operating on several coupled species can resolve them by
// role.
type Group struct {
	Name     string
	Volume   float64        // liters
	Members  map[string]int // species name -> reservoir index
	Seawater *SeawaterSpec  // required for carbonate and gas-exchange groups
}

// Member resolves a species role within the group.
func (g *Group) Member(species string) (int, error) {
	i, ok := g.Members[species]
	if !ok {
		return 0, Setupf(g.Name, ErrMissingReference, "group has no %s reservoir", species)
	}
	return i, nil
}

// FluxFraction references a flux together with the fraction of it
// consumed by a remineralization kernel.
type FluxFraction struct {
	Flux     int
	Fraction float64
}

// SpeciesFluxes maps the species a biogeochemical kernel touches to
// the kernel-owned fluxes carrying its contributions. A value of -1
// means the group does not track that species.
type SpeciesFluxes struct {
	O2  int
	TA  int
	PO4 int
	SO4 int
	H2S int
	DIC int
}

// ExternalCode binds a computed kernel to a reservoir group. Exactly
// the fields required by the kernel type are consulted.
type ExternalCode struct {
	Name   string
	Kernel KernelType
	Group  int // index into Model.Groups

	// photosynthesis
	Productivity     float64 // fixed PO4 export, mol/yr; used when ProductivityFlux < 0
	ProductivityFlux int     // flux reference for productivity, -1 for fixed
	OMExport         int     // kernel-owned OM export carrier flux
	CaCO3Export      int     // kernel-owned CaCO3 export carrier flux, -1 if none

	// remineralization
	OMSources      []FluxFraction
	CaCO3Sources   []FluxFraction
	CaCO3Reactions bool

	// photosynthesis and remineralization
	Fluxes SpeciesFluxes
}

// Stoichiometry holds the model-wide ratios used by the biogeochemical
// kernels. Defaults follow Redfield.
type Stoichiometry struct {
	PCRatio         float64 // P:C, carbon built per mol P
	NCRatio         float64 // N:C
	O2CRatio        float64 // O2:C
	PUE             float64 // phosphorus utilization efficiency
	RainRate        float64 // OM:CaCO3 export ratio
	OMFractionation float64 // photosynthetic fractionation, permil
}

// DefaultStoichiometry returns Redfield-ratio defaults.
func DefaultStoichiometry() Stoichiometry {
	return Stoichiometry{
		PCRatio:         106,
		NCRatio:         16.0 / 106.0,
		O2CRatio:        138.0 / 106.0,
		PUE:             1,
		RainRate:        8,
		OMFractionation: -28,
	}
}

// Model is the arena owning all records of one box model.
type Model struct {
	Name        string
	Reservoirs  []Reservoir
	Fluxes      []Flux
	Connections []Connection
	Groups      []Group
	Bindings    []ExternalCode
	Stoich      Stoichiometry
}

// New returns an empty model with default stoichiometry.
func New(name string) *Model {
	return &Model{Name: name, Stoich: DefaultStoichiometry()}
}

// AddReservoir appends a reservoir and returns its index.
func (m *Model) AddReservoir(r Reservoir) int {
	if r.Group == 0 && len(m.Groups) == 0 {
		r.Group = -1
	}
	m.Reservoirs = append(m.Reservoirs, r)
	return len(m.Reservoirs) - 1
}

// AddFlux appends a flux and returns its index.
func (m *Model) AddFlux(f Flux) int {
	m.Fluxes = append(m.Fluxes, f)
	return len(m.Fluxes) - 1
}

// AddConnection appends a connection, creates its flux, and returns
// the connection index.
func (m *Model) AddConnection(c Connection) int {
	c.Flux = m.AddFlux(Flux{
		Name:       c.Name + ".F",
		Source:     c.Source,
		Sink:       c.Sink,
		Connection: len(m.Connections),
		Isotopes:   c.Isotopes,
	})
	m.Connections = append(m.Connections, c)
	return len(m.Connections) - 1
}

// AddGroup appends a group and returns its index.
func (m *Model) AddGroup(g Group) int {
	if g.Members == nil {
		g.Members = make(map[string]int)
	}
	m.Groups = append(m.Groups, g)
	return len(m.Groups) - 1
}

// AddBinding appends an external-code binding and returns its index.
func (m *Model) AddBinding(b ExternalCode) int {
	m.Bindings = append(m.Bindings, b)
	return len(m.Bindings) - 1
}

// ReservoirByName resolves a reservoir index by name.
func (m *Model) ReservoirByName(name string) (int, error) {
	for i := range m.Reservoirs {
		if m.Reservoirs[i].Name == name {
			return i, nil
		}
	}
	return 0, Setupf(name, ErrMissingReference, "no such reservoir")
}

// GroupByName resolves a group index by name.
func (m *Model) GroupByName(name string) (int, error) {
	for i := range m.Groups {
		if m.Groups[i].Name == name {
			return i, nil
		}
	}
	return 0, Setupf(name, ErrMissingReference, "no such group")
}

// Validate checks referential integrity of the arena. It runs before
// classification so that assembly can assume indices are in range.
func (m *Model) Validate() error {
	inRange := func(i, n int) bool { return i >= 0 && i < n }
	for fi := range m.Fluxes {
		f := &m.Fluxes[fi]
		// kernel-owned carrier fluxes (OM, CaCO3 export) connect two
		// boundaries on purpose: they exist to be consumed by a
		// downstream kernel, not summed into a reservoir
		if f.Source == Boundary && f.Sink == Boundary && f.Connection != -1 {
			return Setupf(f.Name, ErrMissingReference, "flux connects two boundaries")
		}
		if f.Source != Boundary && !inRange(f.Source, len(m.Reservoirs)) {
			return Setupf(f.Name, ErrMissingReference, "source index %d out of range", f.Source)
		}
		if f.Sink != Boundary && !inRange(f.Sink, len(m.Reservoirs)) {
			return Setupf(f.Name, ErrMissingReference, "sink index %d out of range", f.Sink)
		}
	}
	for ci := range m.Connections {
		c := &m.Connections[ci]
		if !inRange(c.Flux, len(m.Fluxes)) {
			return Setupf(c.Name, ErrMissingReference, "flux index %d out of range", c.Flux)
		}
		switch c.Type {
		case ScaleWithConcentration, ScaleWithMass:
			if c.Source == Boundary {
				return Setupf(c.Name, ErrMissingReference, "%s requires an upstream reservoir", c.Type)
			}
		case ScaleWithFlux:
			if !inRange(c.RefFlux, len(m.Fluxes)) {
				return Setupf(c.Name, ErrMissingReference, "reference flux index %d out of range", c.RefFlux)
			}
		case Weathering:
			if !inRange(c.RefReservoir, len(m.Reservoirs)) {
				return Setupf(c.Name, ErrMissingReference, "reference reservoir index %d out of range", c.RefReservoir)
			}
		case GasExchange:
			if !inRange(c.Gas, len(m.Reservoirs)) || !inRange(c.Liquid, len(m.Reservoirs)) {
				return Setupf(c.Name, ErrMissingReference, "gas exchange endpoints out of range")
			}
			if !m.Reservoirs[c.Gas].Gas {
				return Setupf(c.Name, ErrMissingReference, "%s is not a gas reservoir", m.Reservoirs[c.Gas].Name)
			}
			if !inRange(c.CSRef, len(m.Bindings)) || m.Bindings[c.CSRef].Kernel != CarbonateSystem {
				return Setupf(c.Name, ErrMissingReference, "gas exchange requires a carbonate system binding")
			}
		}
	}
	for bi := range m.Bindings {
		b := &m.Bindings[bi]
		if !inRange(b.Group, len(m.Groups)) {
			return Setupf(b.Name, ErrMissingReference, "group index %d out of range", b.Group)
		}
		if b.Kernel == CarbonateSystem && m.Groups[b.Group].Seawater == nil {
			return Setupf(b.Name, ErrMissingReference, "carbonate system requires seawater constants on group %s", m.Groups[b.Group].Name)
		}
	}
	return nil
}

// State is a flat vector of model state values.
type State []float64

// Clone returns an independent copy.
func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether the vector is free of NaN and Inf.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// RHS is the assembled right-hand side of the ODE system:
// dy/dt = f(t, y). Implementations write the derivative into dy and
// return a terminal error on numeric failure.
type RHS func(t float64, y, dy []float64) error

// Datafield names a derived per-step output written by an
// external-code kernel (H+, CO3, Omega, burial fluxes and the like)
// for inspection or chained use.
type Datafield struct {
	Name  string
	Value float64
}

func (d Datafield) String() string {
	return fmt.Sprintf("%s=%g", d.Name, d.Value)
}
