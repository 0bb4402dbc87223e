package kernels

import (
	"errors"
	"math"
	"testing"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
)

func TestScaleWithConcentration(t *testing.T) {
	// pool of 200 with 150 light, concentration 2, scale 3
	fm, fl, err := ScaleWithConcentration(2, 3, 200, 150, true)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(fm-6) > 1e-12 {
		t.Errorf("expected flux 6, got %v", fm)
	}
	want, err := Split(6, 200, 150)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(fl-want) > 1e-12 {
		t.Errorf("expected light flux %v, got %v", want, fl)
	}

	// a drained reservoir produces nothing
	fm, fl, err = ScaleWithConcentration(0, 3, 0, 0, true)
	if err != nil || fm != 0 || fl != 0 {
		t.Errorf("expected zero flux from empty reservoir, got %v, %v, %v", fm, fl, err)
	}

	// an all-light pool cannot be split
	if _, _, err := ScaleWithConcentration(2, 3, 200, 200, true); !errors.Is(err, boxmodel.ErrNonPhysical) {
		t.Errorf("expected non-physical error for all-light pool, got %v", err)
	}
}

func TestScaleWithMass(t *testing.T) {
	fm, fl, err := ScaleWithMass(200, 150, 0.5, false)
	if err != nil {
		t.Fatal(err)
	}
	if fm != 100 || fl != 0 {
		t.Errorf("expected (100, 0), got (%v, %v)", fm, fl)
	}

	// a drained reservoir produces nothing
	fm, fl, err = ScaleWithMass(0, 0, 0.5, true)
	if err != nil || fm != 0 || fl != 0 {
		t.Errorf("expected zero flux from empty reservoir, got %v, %v, %v", fm, fl, err)
	}
}

func TestScaleWithFluxUsesUpstreamRatio(t *testing.T) {
	// mass comes from the reference flux, the ratio from the
	// upstream reservoir
	fm, fl, err := ScaleWithFlux(10, 2, 100, 25, true)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(fm-20) > 1e-12 {
		t.Errorf("expected flux 20, got %v", fm)
	}
	want, err := Split(20, 100, 25)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(fl-want) > 1e-12 {
		t.Errorf("expected light flux %v, got %v", want, fl)
	}
}

func TestWeathering(t *testing.T) {
	const (
		f0    = 12e12
		pco20 = 280e-6
		ex    = 0.4
	)

	// at the baseline concentration the flux equals f0
	f := Weathering(pco20, f0, 1, pco20, ex)
	if math.Abs(f-f0) > f0*1e-12 {
		t.Errorf("expected baseline flux %v, got %v", f0, f)
	}

	// the response is monotonic in CO2
	prev := 0.0
	for _, c := range []float64{200e-6, 280e-6, 400e-6, 1000e-6} {
		f := Weathering(c, f0, 1, pco20, ex)
		if f <= prev {
			t.Errorf("expected monotonic response, got %v after %v at c=%v", f, prev, c)
		}
		prev = f
	}

	// sublinear exponent: doubling CO2 less than doubles the flux
	f2 := Weathering(2*pco20, f0, 1, pco20, ex)
	if f2 >= 2*f0 {
		t.Errorf("expected sublinear response, got %v", f2)
	}
}

func TestGasExchangeSign(t *testing.T) {
	p := GasExchangeParams{Scale: 1e9, Solubility: 3e4, PH2O: 0.03}

	// supersaturated atmosphere drives CO2 into the water
	f := GasExchange(p, 600e-6, 5e-6)
	if f <= 0 {
		t.Errorf("expected invasion flux, got %v", f)
	}

	// supersaturated water outgasses: the aqueous term co2aq*1000
	// must beat gasC*(1-pH2O)*SA, here 5.0 against 2.91
	f = GasExchange(p, 100e-6, 5e-3)
	if f >= 0 {
		t.Errorf("expected outgassing flux, got %v", f)
	}

	// at equilibrium the flux vanishes
	co2eq := 300e-6 * (1 - p.PH2O) * p.Solubility / 1000
	f = GasExchange(p, 300e-6, co2eq)
	if math.Abs(f) > 1e-6*p.Scale*co2eq {
		t.Errorf("expected near-zero flux at equilibrium, got %v", f)
	}
}

func TestGasExchangeIsotopes(t *testing.T) {
	p := GasExchangeParams{
		Scale: 1e9, Solubility: 3e4, PH2O: 0.03,
		AU: 1 - 0.81/1000, ADG: 1 + 0.19/1000 - 373.0/298.15/1000, ADB: 1 - 9.0/1000,
	}

	// 600 ppm atmosphere with a 1.1% heavy share on both sides
	f, fl := GasExchangeIsotopes(p, 600e-6, 1.05e17, 1.0384e17, 1.75e20, 3e18, 2.967e18, 5e-6)
	if f <= 0 {
		t.Fatalf("expected invasion flux, got %v", f)
	}
	// the light flux tracks the total, dominated by the light pools
	if fl <= 0 || fl >= f {
		t.Errorf("expected 0 < light %v < total %v", fl, f)
	}
	ratio := fl / f
	if ratio < 0.95 || ratio > 1 {
		t.Errorf("expected light fraction near the pool ratio, got %v", ratio)
	}
}
