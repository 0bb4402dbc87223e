// Package seawater derives the equilibrium chemistry of a water mass
// from its temperature, salinity, pressure and pH. It provides the
// dissociation constants, species concentrations and carbon isotope
// fractionation factors consumed by the reaction kernels, plus the
// iterative carbonate solver.
//
// Constants follow Zeebe and Wolf-Gladrow (2001) with the pressure
// corrections from the same source; CO2 solubility follows Weiss
// (1974) and Sarmiento and Gruber (2006).
package seawater

import (
	"fmt"
	"math"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
)

// Config holds the scalar inputs. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	Temperature float64 `yaml:"temperature"` // deg C
	Salinity    float64 `yaml:"salinity"`    // psu
	Pressure    float64 `yaml:"pressure"`    // atm above sealevel
	PH          float64 `yaml:"ph"`
}

// DefaultConfig returns standard surface ocean conditions.
func DefaultConfig() Config {
	return Config{Temperature: 25, Salinity: 35, Pressure: 0, PH: 8.1}
}

// FromSpec converts a model-level seawater spec into a Config.
func FromSpec(s *boxmodel.SeawaterSpec) Config {
	return Config{
		Temperature: s.Temperature,
		Salinity:    s.Salinity,
		Pressure:    s.Pressure,
		PH:          s.PH,
	}
}

// Constants is the subset of State needed by the carbonate solver.
type Constants struct {
	K1    float64
	K2    float64
	KW    float64
	KB    float64
	Boron float64
}

// State holds all derived quantities for one water mass.
// Concentrations are in mol/l, equilibrium constants on the seawater
// scale.
type State struct {
	Config

	// dissociation and solubility constants, pressure corrected
	K0  float64
	K1  float64
	K2  float64
	KW  float64
	KB  float64
	Ksp float64 // calcite, after Boudreau et al. 2010

	// species at the configured pH
	Hplus float64
	DIC   float64
	CO2   float64
	HCO3  float64
	CO3   float64
	Boron float64
	BOH4  float64
	BOH3  float64
	OH    float64
	CA    float64 // carbonate alkalinity
	TA    float64 // total alkalinity

	// gas exchange
	PH2O  float64 // water vapor partial pressure, atm
	SACO2 float64 // volumetric CO2 solubility, vapor corrected

	// carbon fractionation factors, Zeebe and Wolf-Gladrow ch. 3.2.3
	EGB float64 // CO2g vs HCO3, permil
	AGB float64
	EDG float64 // CO2aq vs CO2g
	ADG float64
	EDB float64 // CO2aq vs HCO3
	ADB float64
	ECB float64 // CO3 vs HCO3
	ACB float64
	EU  float64 // kinetic fractionation of the transfer, Zhang et al. 1995
	AU  float64
}

// Constants extracts the solver inputs.
func (s *State) Constants() Constants {
	return Constants{K1: s.K1, K2: s.K2, KW: s.KW, KB: s.KB, Boron: s.Boron}
}

// Compute derives the full chemistry state for the given conditions.
// It fails when the pressure correction table has no entry for a
// requested constant, which indicates a programming error rather than
// bad input.
func Compute(cfg Config) (*State, error) {
	s := &State{Config: cfg}
	s.Hplus = math.Pow(10, -cfg.PH)

	T := 273.15 + cfg.Temperature
	S := cfg.Salinity

	// standard seawater inventories, mol/kg scaled to salinity
	swc := (1000 + S) / 1000
	s.DIC = 0.00204 * swc
	s.Boron = 0.00042 * swc

	// Weiss 1974
	lnK0 := 93.4517*100/T - 60.2409 + 23.3585*math.Log(T/100) +
		S*(0.023517-0.023656*T/100+0.0047036*(T/100)*(T/100))
	s.K0 = math.Exp(lnK0)

	lnK1 := -2307.1266/T + 2.83655 - 1.5529413*math.Log(T) +
		math.Sqrt(S)*(-4.0484/T-0.20760841) +
		S*0.08468345 - math.Pow(S, 1.5)*0.00654208 +
		math.Log(1-0.001006*S)

	lnK2 := -9.226508 - 3351.6106/T - 0.2005743*math.Log(T) +
		(-0.106901773-23.9722/T)*math.Sqrt(S) +
		0.1130822*S - 0.00846934*math.Pow(S, 1.5) +
		math.Log(1-0.001006*S)

	lnKB := (-8966.9-2890.53*math.Sqrt(S)-77.942*S+
		1.728*math.Pow(S, 1.5)-0.0996*S*S)/T +
		148.0248 + 137.1942*math.Sqrt(S) + 1.62142*S -
		(24.4344+25.085*math.Sqrt(S)+0.2474*S)*math.Log(T) +
		0.053105*math.Sqrt(S)*T

	lnKW := 148.96502 - 13847.27/T - 23.6521*math.Log(T) +
		(118.67/T-5.977+1.0495*math.Log(T))*math.Sqrt(S) -
		0.01615*S

	var err error
	if s.K1, err = pressureCorrect(cfg, "K1", math.Exp(lnK1)); err != nil {
		return nil, err
	}
	if s.K2, err = pressureCorrect(cfg, "K2", math.Exp(lnK2)); err != nil {
		return nil, err
	}
	if s.KB, err = pressureCorrect(cfg, "KB", math.Exp(lnKB)); err != nil {
		return nil, err
	}
	if s.KW, err = pressureCorrect(cfg, "KW", math.Exp(lnKW)); err != nil {
		return nil, err
	}

	// DIC speciation at the configured pH
	h := s.Hplus
	s.CO2 = s.DIC / (1 + s.K1/h + s.K1*s.K2/(h*h))
	s.HCO3 = s.DIC / (1 + h/s.K1 + s.K2/h)
	s.CO3 = s.DIC / (1 + h/s.K2 + h*h/(s.K1*s.K2))

	// boron and water speciation
	s.BOH4 = s.Boron * s.KB / (h + s.KB)
	s.BOH3 = s.Boron - s.BOH4
	s.OH = s.KW / h

	s.CA = s.HCO3 + 2*s.CO3
	s.TA = s.CA + s.BOH4 + s.OH - h

	// Weiss and Price 1980, sealevel form
	s.PH2O = math.Exp(24.4543 - 67.4509*(100/T) - 4.8489*math.Log(T/100) - 0.000544*S)

	// Sarmiento and Gruber 2006, tab 3.2.2; F in mmol/(m3 atm)
	lnF := -160.7333 + 215.4152*(100/T) + 89.892*math.Log(T/100) -
		1.47759*(T/100)*(T/100) +
		S*(0.029941-0.027455*(T/100)+0.0053407*(T/100)*(T/100))
	s.SACO2 = math.Exp(lnF) * 1e6 / (1 - s.PH2O)

	// Boudreau et al. 2010, fig 1; idealized temperature profile
	s.Ksp = 4.3513e-7 * math.Exp(0.0019585*cfg.Pressure)

	s.EGB = -9483/T + 23.89
	s.AGB = 1 + s.EGB/1000
	s.EDG = -373/T + 0.19
	s.ADG = 1 + s.EDG/1000
	s.EDB = -9866/T + 24.12
	s.ADB = 1 + s.EDB/1000
	s.ECB = -867/T + 2.52
	s.ACB = 1 + s.ECB/1000
	s.EU = -0.81
	s.AU = 1 + s.EU/1000

	return s, nil
}

// pressure correction coefficients after Zeebe and Wolf-Gladrow 2001:
// a0..a2 build the molal volume change, a3..a4 the compressibility
// change.
var pressureCoeffs = map[string][5]float64{
	"K1":  {25.50, 0.1271, 0.0, 3.08, 0.0877},
	"K2":  {15.82, -0.0219, 0.0, -1.13, -0.1475},
	"KB":  {29.48, 0.1622, -2.6080, 2.84, 0.0},
	"KW":  {25.60, 0.2324, -3.6246, 5.13, 0.0794},
	"KS":  {18.03, 0.0466, 0.3160, 4.53, 0.0900},
	"KF":  {9.780, -0.0090, -0.942, 3.91, 0.054},
	"Kca": {48.76, 0.5304, 0.0, 11.76, 0.3692},
	"Kar": {46.00, 0.5304, 0.0, 11.76, 0.3692},
}

func pressureCorrect(cfg Config, name string, k float64) (float64, error) {
	a, ok := pressureCoeffs[name]
	if !ok {
		return 0, fmt.Errorf("seawater: no pressure coefficients for %q: %w",
			name, boxmodel.ErrInvalidState)
	}

	const R = 83.131
	tc := cfg.Temperature
	rt := R * (273.15 + tc)
	p := cfg.Pressure

	dv := -a[0] + a[1]*tc + a[2]/1000*tc*tc
	dk := -a[3]/1000 + a[4]/1000*tc

	lnKP := -(dv/rt)*p + (0.5*dk/rt)*p*p + math.Log(k)
	return math.Exp(lnKP), nil
}

// PCO2 returns the CO2 partial pressure in uatm implied by DIC and
// H+, after Follows et al. 2006.
func PCO2(dic, hplus float64, s *State) float64 {
	co2 := dic / (1 + s.K1/hplus + s.K1*s.K2/(hplus*hplus))
	return co2 / s.K0 * 1e6
}
