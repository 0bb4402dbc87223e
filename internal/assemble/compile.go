package assemble

import (
	"fmt"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
	"github.com/maagusrm/esbmtk/internal/kernels"
	"github.com/maagusrm/esbmtk/internal/seawater"
)

type contrib struct {
	flux int
	sign float64
}

// Assemble binds one evaluator per connection flux and one signed
// summation per flux-driven reservoir. Fluxes are evaluated once per
// step regardless of how many reservoirs reference them; the
// summation normalizes liquid reservoirs to concentration space by
// dividing by volume exactly once.
func (a *Assembler) Assemble() error {
	if a.phase != Classified {
		return boxmodel.Setupf(a.m.Name, boxmodel.ErrInvalidState,
			"assemble called in phase %s", a.phase)
	}
	m := a.m

	for ci := range m.Connections {
		eval, err := a.compileConnection(ci)
		if err != nil {
			return err
		}
		a.fluxEvals = append(a.fluxEvals, eval)
	}

	mass := make([][]contrib, len(m.Reservoirs))
	vol := make([][]contrib, len(m.Reservoirs))
	for fi := range m.Fluxes {
		f := &m.Fluxes[fi]
		gasX := f.Connection >= 0 && m.Connections[f.Connection].Type == boxmodel.GasExchange
		if f.Source != boxmodel.Boundary {
			mass[f.Source] = append(mass[f.Source], contrib{fi, -1})
			if gasX {
				vol[f.Source] = append(vol[f.Source], contrib{fi, -1})
			}
		}
		if f.Sink != boxmodel.Boundary {
			mass[f.Sink] = append(mass[f.Sink], contrib{fi, +1})
			if gasX {
				vol[f.Sink] = append(vol[f.Sink], contrib{fi, +1})
			}
		}
	}

	for ri := range m.Reservoirs {
		si := a.slot[ri]
		if si < 0 || len(mass[ri]) == 0 {
			continue
		}
		r := &m.Reservoirs[ri]
		li := a.light[ri]
		gi := a.gasVol[ri]
		mc := mass[ri]
		vc := vol[ri]
		v := r.Volume
		gas := r.Gas

		a.sums = append(a.sums, func(y, dy []float64) {
			var sm, sl float64
			for _, c := range mc {
				sm += c.sign * a.fa[c.flux][0]
				sl += c.sign * a.fa[c.flux][1]
			}
			if gas {
				dy[si] += sm
				if li >= 0 {
					dy[li] += sl
				}
			} else {
				dy[si] += sm / v
				if li >= 0 {
					dy[li] += sl / v
				}
			}
			if gi >= 0 {
				var sv float64
				for _, c := range vc {
					sv += c.sign * a.fa[c.flux][0]
				}
				dy[gi] += sv
			}
		})
	}

	a.phase = Assembled
	return nil
}

func (a *Assembler) compileConnection(ci int) (func(t float64, y []float64) error, error) {
	m := a.m
	c := &m.Connections[ci]
	fi := c.Flux
	fa := a.fa

	switch c.Type {
	case boxmodel.Regular:
		rate := c.Rate
		var lrate float64
		if c.Isotopes {
			ri := c.Source
			if ri == boxmodel.Boundary {
				ri = c.Sink
			}
			lrate = boxmodel.LightMass(rate, c.Delta, m.Reservoirs[ri].Species.Element.R)
		}
		sig := c.Signal
		return func(t float64, y []float64) error {
			fm, fl := rate, lrate
			if sig != nil {
				sm, sl := sig.At(t)
				fm += sm
				fl += sl
			}
			fa[fi] = [2]float64{fm, fl}
			return nil
		}, nil

	case boxmodel.ScaleWithConcentration:
		src, scale, iso := c.Source, c.Scale, c.Isotopes
		name := c.Name
		return func(t float64, y []float64) error {
			var um, ul float64
			if iso {
				um, ul = a.massOf(y, src)
			}
			fm, fl, err := kernels.ScaleWithConcentration(a.concOf(y, src), scale, um, ul, iso)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			fa[fi] = [2]float64{fm, fl}
			return nil
		}, nil

	case boxmodel.ScaleWithMass:
		src, scale, iso := c.Source, c.Scale, c.Isotopes
		name := c.Name
		return func(t float64, y []float64) error {
			um, ul := a.massOf(y, src)
			fm, fl, err := kernels.ScaleWithMass(um, ul, scale, iso)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			fa[fi] = [2]float64{fm, fl}
			return nil
		}, nil

	case boxmodel.ScaleWithFlux:
		ref, scale := c.RefFlux, c.Scale
		iso := c.Isotopes && c.Source != boxmodel.Boundary
		src := c.Source
		name := c.Name
		return func(t float64, y []float64) error {
			var um, ul float64
			if iso {
				um, ul = a.massOf(y, src)
			}
			fm, fl, err := kernels.ScaleWithFlux(fa[ref][0], scale, um, ul, iso)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			fa[fi] = [2]float64{fm, fl}
			return nil
		}, nil

	case boxmodel.Weathering:
		if c.Isotopes {
			return nil, boxmodel.Setupf(c.Name, boxmodel.ErrIsotopesUnsupported,
				"weathering has no isotope method")
		}
		ref, f0, scale, pco20, ex := c.RefReservoir, c.F0, c.PCO20, c.Scale, c.Ex
		return func(t float64, y []float64) error {
			fa[fi] = [2]float64{kernels.Weathering(a.concOf(y, ref), f0, scale, pco20, ex), 0}
			return nil
		}, nil

	case boxmodel.GasExchange:
		sw := a.seawaterStates[m.Bindings[c.CSRef].Group]
		if sw == nil {
			return nil, boxmodel.Setupf(c.Name, boxmodel.ErrMissingReference,
				"carbonate binding group has no seawater constants")
		}
		p := kernels.GasExchangeParams{
			Scale:      c.Scale,
			Solubility: sw.SACO2,
			PH2O:       sw.PH2O,
			AU:         sw.AU,
			ADG:        sw.ADG,
			ADB:        sw.ADB,
		}
		cs := &a.carb[c.CSRef]
		gasR, liqR, iso := c.Gas, c.Liquid, c.Isotopes
		return func(t float64, y []float64) error {
			gc := a.concOf(y, gasR)
			if !iso {
				fa[fi] = [2]float64{kernels.GasExchange(p, gc, cs.out.CO2aq), 0}
				return nil
			}
			gm, gl := a.massOf(y, gasR)
			gv := a.m.Reservoirs[gasR].Volume
			if vi := a.gasVol[gasR]; vi >= 0 {
				gv = y[vi]
			}
			lm, ll := a.massOf(y, liqR)
			f, fl := kernels.GasExchangeIsotopes(p, gc, gm, gl, gv, lm, ll, cs.out.CO2aq)
			fa[fi] = [2]float64{f, fl}
			return nil
		}, nil
	}

	return nil, boxmodel.Setupf(c.Name, boxmodel.ErrUnknownProcess,
		"process type %d", int(c.Type))
}

// Finalize appends the computed-reservoir kernels in two passes:
// state-only kernels first, then the flux-dependent ones in consumer
// order. After this the assembler is Ready.
func (a *Assembler) Finalize() error {
	if a.phase != Assembled {
		return boxmodel.Setupf(a.m.Name, boxmodel.ErrInvalidState,
			"finalize called in phase %s", a.phase)
	}

	for _, bi := range a.kernelOrder() {
		b := &a.m.Bindings[bi]
		var (
			eval func(t float64, y []float64) error
			err  error
		)
		switch b.Kernel {
		case boxmodel.CarbonateSystem:
			eval, err = a.compileCarbonate(bi)
		case boxmodel.Photosynthesis:
			eval, err = a.compilePhotosynthesis(bi)
		case boxmodel.Remineralization:
			eval, err = a.compileRemineralization(bi)
		default:
			err = boxmodel.Setupf(b.Name, boxmodel.ErrUnknownKernel,
				"kernel type %d", int(b.Kernel))
		}
		if err != nil {
			return err
		}
		if b.Kernel.Class() == boxmodel.CS1 {
			a.cs1Evals = append(a.cs1Evals, eval)
		} else {
			a.cs2Evals = append(a.cs2Evals, eval)
		}
	}

	a.phase = Ready
	return nil
}

func (a *Assembler) ratios() kernels.Ratios {
	st := a.m.Stoich
	return kernels.Ratios{
		PC:       st.PCRatio,
		NC:       st.NCRatio,
		O2C:      st.O2CRatio,
		PUE:      st.PUE,
		RainRate: st.RainRate,
		AlphaOM:  1 + st.OMFractionation/1000,
	}
}

func (a *Assembler) compileCarbonate(bi int) (func(t float64, y []float64) error, error) {
	b := &a.m.Bindings[bi]
	g := &a.m.Groups[b.Group]
	sw := a.seawaterStates[b.Group]
	if sw == nil {
		return nil, boxmodel.Setupf(b.Name, boxmodel.ErrMissingReference,
			"group %s has no seawater constants", g.Name)
	}
	dic, err := g.Member("DIC")
	if err != nil {
		return nil, err
	}
	ta, err := g.Member("TA")
	if err != nil {
		return nil, err
	}

	cs := &a.carb[bi]
	*cs = carbScratch{
		active: true,
		h:      sw.Hplus,
		params: sw.Constants(),
		dic:    dic,
		ta:     ta,
		out: seawater.CarbonateState{
			H: sw.Hplus, CA: sw.CA, HCO3: sw.HCO3, CO3: sw.CO3, CO2aq: sw.CO2,
		},
	}
	name := b.Name

	return func(t float64, y []float64) error {
		out, err := seawater.Solve(a.concOf(y, cs.dic), a.concOf(y, cs.ta), cs.h, cs.params)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		cs.h = out.H
		cs.out = out
		return nil
	}, nil
}

func (a *Assembler) compilePhotosynthesis(bi int) (func(t float64, y []float64) error, error) {
	b := &a.m.Bindings[bi]
	g := &a.m.Groups[b.Group]

	dic, err := g.Member("DIC")
	if err != nil {
		return nil, err
	}
	h2s, err := g.Member("H2S")
	if err != nil {
		return nil, err
	}

	r := a.ratios()
	sf := b.Fluxes
	om, caco3 := b.OMExport, b.CaCO3Export
	prod, prodFlux := b.Productivity, b.ProductivityFlux
	volume := g.Volume
	fa := a.fa
	name := b.Name

	return func(t float64, y []float64) error {
		p := prod
		if prodFlux >= 0 {
			p = fa[prodFlux][0]
		}
		dm, dl := a.massOf(y, dic)
		out, err := kernels.Photosynthesis(kernels.PhotoInput{
			DICMass:      dm,
			DICLight:     dl,
			H2S:          a.concOf(y, h2s),
			Volume:       volume,
			Productivity: p,
		}, r)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		fa[sf.O2] = [2]float64{out.O2, 0}
		fa[sf.TA] = [2]float64{out.TA, 0}
		fa[sf.PO4] = [2]float64{out.PO4, 0}
		fa[sf.SO4] = [2]float64{out.SO4, 0}
		fa[sf.H2S] = [2]float64{out.H2S, 0}
		fa[sf.DIC] = [2]float64{out.DIC, out.DICLight}
		fa[om] = [2]float64{out.OM, out.OMLight}
		fa[caco3] = [2]float64{out.CaCO3, out.CaCO3Light}
		return nil
	}, nil
}

func (a *Assembler) compileRemineralization(bi int) (func(t float64, y []float64) error, error) {
	b := &a.m.Bindings[bi]
	g := &a.m.Groups[b.Group]

	h2s, err := g.Member("H2S")
	if err != nil {
		return nil, err
	}
	o2, err := g.Member("O2")
	if err != nil {
		return nil, err
	}

	r := a.ratios()
	sf := b.Fluxes
	omSrc := b.OMSources
	caSrc := b.CaCO3Sources
	caReact := b.CaCO3Reactions
	volume := g.Volume
	fa := a.fa

	return func(t float64, y []float64) error {
		var in kernels.ReminInput
		for _, s := range omSrc {
			in.OM += fa[s.Flux][0] * s.Fraction
			in.OMLight += fa[s.Flux][1] * s.Fraction
		}
		for _, s := range caSrc {
			in.CaCO3 += fa[s.Flux][0] * s.Fraction
			in.CaCO3Light += fa[s.Flux][1] * s.Fraction
		}
		in.H2S = a.concOf(y, h2s)
		in.O2 = a.concOf(y, o2)
		in.Volume = volume

		out := kernels.Remineralization(in, r, caReact)
		fa[sf.TA] = [2]float64{out.TA, 0}
		fa[sf.H2S] = [2]float64{out.H2S, 0}
		fa[sf.SO4] = [2]float64{out.SO4, 0}
		fa[sf.O2] = [2]float64{out.O2, 0}
		fa[sf.PO4] = [2]float64{out.PO4, 0}
		fa[sf.DIC] = [2]float64{out.DIC, out.DICLight}
		return nil
	}, nil
}
