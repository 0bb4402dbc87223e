// Package assemble turns a model arena into the right-hand side of
// its ODE system. Assembly walks four phases: classification fixes
// the role of every reservoir and lays out the state vector, the
// flux pass binds one evaluator per unique flux, and finalization
// appends the computed-reservoir kernels in two passes so that
// flux-dependent kernels always run after the fluxes they read.
package assemble

import (
	"fmt"
	"math"
	"sort"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
	"github.com/maagusrm/esbmtk/internal/seawater"
)

// Phase tracks assembly progress. Transitions only move forward.
type Phase int

const (
	Unclassified Phase = iota
	Classified
	Assembled
	Ready
)

func (p Phase) String() string {
	switch p {
	case Classified:
		return "classified"
	case Assembled:
		return "assembled"
	case Ready:
		return "ready"
	}
	return "unclassified"
}

// Assembler compiles a validated model into an in-memory closure
// graph. It owns the per-step scratch (current flux values, lagged
// carbonate state), so one assembler serves exactly one integration
// run at a time.
type Assembler struct {
	m        *boxmodel.Model
	phase    Phase
	warnings []string

	// state vector layout, -1 where a reservoir owns no slot
	slot   []int // concentration (liquid) or mass (gas)
	light  []int // light-isotope companion
	gasVol []int // gas reservoirs: total mole inventory
	n      int

	// per-step scratch
	fa   [][2]float64 // current (mass, light) value per flux
	carb []carbScratch

	seawaterStates []*seawater.State // per group, nil without constants

	fluxEvals []func(t float64, y []float64) error
	cs1Evals  []func(t float64, y []float64) error
	cs2Evals  []func(t float64, y []float64) error
	sums      []func(y, dy []float64)
}

// carbScratch is the lagged carbonate state of one binding. The H+
// of the previous evaluation seeds the next closed-form solve; the
// lag is what keeps the solve explicit.
type carbScratch struct {
	active bool
	h      float64
	out    seawater.CarbonateState
	params seawater.Constants
	dic    int
	ta     int
}

// New wraps a model for assembly. The model must already pass
// Validate.
func New(m *boxmodel.Model) *Assembler {
	return &Assembler{m: m, phase: Unclassified}
}

// Phase returns the current assembly phase.
func (a *Assembler) Phase() Phase { return a.phase }

// Warnings lists non-fatal findings from classification, one line
// per ambiguous reservoir.
func (a *Assembler) Warnings() []string { return a.warnings }

// StateSize returns the length of the assembled state vector.
func (a *Assembler) StateSize() int { return a.n }

// Slot returns the state slot of a reservoir, or -1 when the
// reservoir owns none.
func (a *Assembler) Slot(ri int) int { return a.slot[ri] }

// LightSlot returns the light-isotope slot of a reservoir, or -1.
func (a *Assembler) LightSlot(ri int) int { return a.light[ri] }

// Classify partitions the reservoirs: flux-driven when at least one
// flux touches them, computed when a kernel binding covers their
// group instead, static otherwise. A reservoir with neither fluxes
// nor a binding is ambiguous; it is treated as static and recorded
// as a warning rather than dropped. Classification also lays out the
// state vector, so it must run exactly once.
func (a *Assembler) Classify() error {
	if a.phase != Unclassified {
		return boxmodel.Setupf(a.m.Name, boxmodel.ErrInvalidState,
			"classify called in phase %s", a.phase)
	}
	if err := a.m.Validate(); err != nil {
		return err
	}

	m := a.m
	owned := make([]int, len(m.Reservoirs))
	for fi := range m.Fluxes {
		f := &m.Fluxes[fi]
		if f.Source != boxmodel.Boundary {
			owned[f.Source]++
		}
		if f.Sink != boxmodel.Boundary {
			owned[f.Sink]++
		}
	}

	bound := make([]bool, len(m.Groups))
	for bi := range m.Bindings {
		bound[m.Bindings[bi].Group] = true
	}

	a.slot = make([]int, len(m.Reservoirs))
	a.light = make([]int, len(m.Reservoirs))
	a.gasVol = make([]int, len(m.Reservoirs))

	for ri := range m.Reservoirs {
		r := &m.Reservoirs[ri]
		a.slot[ri], a.light[ri], a.gasVol[ri] = -1, -1, -1

		switch {
		case r.Kind == boxmodel.Static:
			// declared static stays static
		case owned[ri] > 0:
			r.Kind = boxmodel.FluxDriven
		case r.Group >= 0 && bound[r.Group]:
			r.Kind = boxmodel.Computed
		default:
			r.Kind = boxmodel.Static
			a.warnings = append(a.warnings, fmt.Sprintf(
				"reservoir %s has no fluxes and no kernel binding, holding it static", r.Name))
		}

		if r.Kind != boxmodel.FluxDriven {
			continue
		}
		a.slot[ri] = a.n
		a.n++
		if r.Isotopes {
			a.light[ri] = a.n
			a.n++
		}
		if r.Gas {
			a.gasVol[ri] = a.n
			a.n++
		}
	}

	a.fa = make([][2]float64, len(m.Fluxes))
	a.carb = make([]carbScratch, len(m.Bindings))

	a.seawaterStates = make([]*seawater.State, len(m.Groups))
	for gi := range m.Groups {
		spec := m.Groups[gi].Seawater
		if spec == nil {
			continue
		}
		sw, err := seawater.Compute(seawater.FromSpec(spec))
		if err != nil {
			return boxmodel.Setupf(m.Groups[gi].Name, err, "seawater constants")
		}
		a.seawaterStates[gi] = sw
	}

	a.phase = Classified
	return nil
}

// InitialState builds the state vector matching the classification
// layout.
func (a *Assembler) InitialState() boxmodel.State {
	y := make(boxmodel.State, a.n)
	for ri := range a.m.Reservoirs {
		r := &a.m.Reservoirs[ri]
		si := a.slot[ri]
		if si < 0 {
			continue
		}
		if r.Gas {
			y[si] = r.Concentration * r.Volume
			y[a.gasVol[ri]] = r.Volume
		} else {
			y[si] = r.Concentration
		}
		if li := a.light[ri]; li >= 0 {
			y[li] = boxmodel.LightMass(y[si], r.Delta, r.Species.Element.R)
		}
	}
	return y
}

// massOf reads the total and light mass of a reservoir from the
// state vector, falling back to the arena values for static
// reservoirs.
func (a *Assembler) massOf(y []float64, ri int) (m, l float64) {
	r := &a.m.Reservoirs[ri]
	si := a.slot[ri]
	if si < 0 {
		m = r.Concentration * r.Volume
		if r.Isotopes {
			l = boxmodel.LightMass(m, r.Delta, r.Species.Element.R)
		}
		return m, l
	}
	if r.Gas {
		m = y[si]
	} else {
		m = y[si] * r.Volume
	}
	if li := a.light[ri]; li >= 0 {
		if r.Gas {
			l = y[li]
		} else {
			l = y[li] * r.Volume
		}
	}
	return m, l
}

// concOf reads the concentration of a reservoir; for gas reservoirs
// this is the mole fraction against the current total inventory.
func (a *Assembler) concOf(y []float64, ri int) float64 {
	r := &a.m.Reservoirs[ri]
	si := a.slot[ri]
	if si < 0 {
		return r.Concentration
	}
	if r.Gas {
		return y[si] / y[a.gasVol[ri]]
	}
	return y[si]
}

// volumeOf returns the volume used to normalize a reservoir's flux
// sum.
func (a *Assembler) volumeOf(ri int) float64 {
	return a.m.Reservoirs[ri].Volume
}

// Build runs all phases in order.
func (a *Assembler) Build() error {
	if err := a.Classify(); err != nil {
		return err
	}
	if err := a.Assemble(); err != nil {
		return err
	}
	return a.Finalize()
}

// RHS returns the assembled right-hand side. It is only valid once
// the assembler is Ready.
func (a *Assembler) RHS() (boxmodel.RHS, error) {
	if a.phase != Ready {
		return nil, boxmodel.Setupf(a.m.Name, boxmodel.ErrInvalidState,
			"rhs requested in phase %s", a.phase)
	}
	return func(t float64, y, dy []float64) error {
		for i := range dy {
			dy[i] = 0
		}
		for _, f := range a.fluxEvals {
			if err := f(t, y); err != nil {
				return err
			}
		}
		for _, k := range a.cs1Evals {
			if err := k(t, y); err != nil {
				return err
			}
		}
		for _, k := range a.cs2Evals {
			if err := k(t, y); err != nil {
				return err
			}
		}
		for _, s := range a.sums {
			s(y, dy)
		}
		return nil
	}, nil
}

// FluxValue returns the current-step (mass, light) pair of a flux,
// as written during the latest RHS evaluation.
func (a *Assembler) FluxValue(fi int) (m, l float64) {
	return a.fa[fi][0], a.fa[fi][1]
}

// Datafields snapshots the named kernel outputs of the latest RHS
// evaluation: the carbonate speciation per carbonate binding.
func (a *Assembler) Datafields() []boxmodel.Datafield {
	var out []boxmodel.Datafield
	for bi := range a.carb {
		c := &a.carb[bi]
		if !c.active {
			continue
		}
		name := a.m.Bindings[bi].Name
		out = append(out,
			boxmodel.Datafield{Name: name + ".H", Value: c.out.H},
			boxmodel.Datafield{Name: name + ".CA", Value: c.out.CA},
			boxmodel.Datafield{Name: name + ".HCO3", Value: c.out.HCO3},
			boxmodel.Datafield{Name: name + ".CO3", Value: c.out.CO3},
			boxmodel.Datafield{Name: name + ".CO2aq", Value: c.out.CO2aq},
			boxmodel.Datafield{Name: name + ".pH", Value: c.out.PH()},
		)
	}
	return out
}

// CheckState walks the mapped slots of an integrated state. A
// non-finite value or a value that has gone negative terminates the
// run; the error names the owning reservoir so a blown-up box is
// identifiable without dumping the vector.
func (a *Assembler) CheckState(y boxmodel.State) error {
	if a.phase != Ready {
		return boxmodel.Setupf(a.m.Name, boxmodel.ErrInvalidState,
			"check called in phase %s", a.phase)
	}
	for ri := range a.m.Reservoirs {
		name := a.m.Reservoirs[ri].Name
		for _, si := range [3]int{a.slot[ri], a.light[ri], a.gasVol[ri]} {
			if si < 0 {
				continue
			}
			v := y[si]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("reservoir %s: non-finite state: %w",
					name, boxmodel.ErrInvalidState)
			}
			if v < 0 {
				return fmt.Errorf("reservoir %s: negative state %.4e: %w",
					name, v, boxmodel.ErrNonPhysical)
			}
		}
	}
	return nil
}

// kernelOrder returns the binding indices in evaluation order:
// order-independent kernels first, then flux-dependent ones with
// photosynthesis ahead of the remineralization kernels that consume
// its export fluxes. Within a class the original order is kept.
func (a *Assembler) kernelOrder() []int {
	order := make([]int, len(a.m.Bindings))
	for i := range order {
		order[i] = i
	}
	rank := func(bi int) int {
		b := &a.m.Bindings[bi]
		switch {
		case b.Kernel.Class() == boxmodel.CS1:
			return 0
		case b.Kernel == boxmodel.Photosynthesis:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return rank(order[i]) < rank(order[j])
	})
	return order
}
