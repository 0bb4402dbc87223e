package kernels

import "math"

// ScaleWithConcentration computes F = conc*scale from the upstream
// reservoir's resolved concentration (mole fraction for gas
// reservoirs) and splits the isotopes at the reservoir's mass ratio.
// A drained reservoir produces no flux.
func ScaleWithConcentration(conc, scale, upM, upL float64, isotopes bool) (fm, fl float64, err error) {
	if conc <= 0 {
		return 0, 0, nil
	}
	fm = conc * scale
	if isotopes {
		fl, err = Split(fm, upM, upL)
	}
	return fm, fl, err
}

// ScaleWithMass computes F = M*scale. A drained reservoir produces
// no flux.
func ScaleWithMass(m, l, scale float64, isotopes bool) (fm, fl float64, err error) {
	if m <= 0 {
		return 0, 0, nil
	}
	fm = m * scale
	if isotopes {
		fl, err = Split(fm, m, l)
	}
	return fm, fl, err
}

// ScaleWithFlux scales the current value of a reference flux but
// takes the isotope ratio from the upstream reservoir, not from the
// reference.
func ScaleWithFlux(refM, scale, upM, upL float64, isotopes bool) (fm, fl float64, err error) {
	fm = refM * scale
	if isotopes {
		fl, err = Split(fm, upM, upL)
	}
	return fm, fl, err
}

// Weathering computes the power-law weathering response
// F = f0*(scale*c/pco20)^ex to the reference reservoir concentration
// c, typically atmospheric CO2 against a baseline partial pressure.
func Weathering(c, f0, scale, pco20, ex float64) float64 {
	return f0 * math.Pow(scale*c/pco20, ex)
}

// GasExchangeParams are the fixed inputs of one air-sea exchange
// connection. Scale is piston velocity times interface area,
// Solubility the vapor-corrected volumetric CO2 solubility, and the
// alpha values the fractionation factors between gaseous CO2,
// dissolved CO2 and bicarbonate plus the kinetic factor of the
// transfer itself.
type GasExchangeParams struct {
	Scale      float64
	Solubility float64
	PH2O       float64
	AU         float64
	ADG        float64
	ADB        float64
}

// GasExchange returns the net air-to-sea flux
// F = scale*(c_gas*(1-pH2O)*SA - co2aq*1000). The factor 1000
// converts the solubility term from mmol/m3 to the mol/l scale of
// co2aq. Positive F moves mass into the liquid reservoir.
func GasExchange(p GasExchangeParams, gasC, co2aq float64) float64 {
	return p.Scale * (gasC*(1-p.PH2O)*p.Solubility - co2aq*1000)
}

// GasExchangeIsotopes additionally partitions the flux into its light
// component. The heavy flux follows the heavy concentrations of both
// sides through the fractionation chain; the bicarbonate ratio stands
// in for the DIC ratio, which holds near neutral pH.
func GasExchangeIsotopes(p GasExchangeParams, gasC, gasM, gasL, gasV, liqM, liqL, co2aq float64) (f, fl float64) {
	f = GasExchange(p, gasC, co2aq)

	aqHeavy := co2aq * (liqM - liqL) / liqM
	atmHeavy := (gasM - gasL) / gasV

	fHeavy := p.Scale * p.AU *
		(p.ADG*atmHeavy*(1-p.PH2O)*p.Solubility - p.ADB*aqHeavy*1000)
	return f, f - fHeavy
}
