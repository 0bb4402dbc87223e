package kernels

import (
	"errors"
	"math"
	"testing"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
)

func testRatios() Ratios {
	return Ratios{
		PC:       106,
		NC:       16.0 / 106.0,
		O2C:      138.0 / 106.0,
		PUE:      1,
		RainRate: 8,
		AlphaOM:  1 - 28.0/1000,
	}
}

func TestPhotosynthesisCarbonBudget(t *testing.T) {
	r := testRatios()
	in := PhotoInput{
		DICMass:      2e18,
		DICLight:     1.978e18,
		H2S:          0,
		Volume:       3e19,
		Productivity: 1e12,
	}

	out, err := Photosynthesis(in, r)
	if err != nil {
		t.Fatal(err)
	}

	// 1 mol P builds 106 mol OM carbon
	if math.Abs(out.OM-106e12) > 1e-3 {
		t.Errorf("expected OM export 1.06e14, got %v", out.OM)
	}
	if math.Abs(out.PO4+1e12) > 1e-6 {
		t.Errorf("expected PO4 drawdown -1e12, got %v", out.PO4)
	}

	// every mol of exported carbon left the DIC pool
	if math.Abs(out.DIC+out.OM+out.CaCO3) > 1e-3 {
		t.Errorf("carbon not conserved: dic=%v om=%v caco3=%v", out.DIC, out.OM, out.CaCO3)
	}
	if math.Abs(out.DICLight+out.OMLight+out.CaCO3Light) > 1e-3 {
		t.Errorf("light carbon not conserved")
	}

	// rain rate sets the CaCO3 fraction
	if math.Abs(out.CaCO3-out.OM/r.RainRate) > 1e-6 {
		t.Errorf("expected CaCO3 %v, got %v", out.OM/r.RainRate, out.CaCO3)
	}

	// light exports stay below their totals
	if out.OMLight <= 0 || out.OMLight >= out.OM {
		t.Errorf("OM light %v out of (0, %v)", out.OMLight, out.OM)
	}

	// O2 release at the O2:C ratio, nothing to oxidize
	if math.Abs(out.O2-out.OM*r.O2C) > 1e-3 {
		t.Errorf("expected O2 %v, got %v", out.OM*r.O2C, out.O2)
	}
	if out.H2S != 0 || out.SO4 != 0 {
		t.Errorf("expected no sulfur turnover, got h2s=%v so4=%v", out.H2S, out.SO4)
	}

	// TA: nitrate uptake adds, CaCO3 removal subtracts twice
	wantTA := out.OM*r.NC - 2*out.CaCO3
	if math.Abs(out.TA-wantTA) > 1e-3 {
		t.Errorf("expected TA %v, got %v", wantTA, out.TA)
	}
}

func TestPhotosynthesisFractionation(t *testing.T) {
	r := testRatios()
	in := PhotoInput{DICMass: 100, DICLight: 98.9, Volume: 1, Productivity: 1.0 / 106.0}

	out, err := Photosynthesis(in, r)
	if err != nil {
		t.Fatal(err)
	}

	// negative epsilon: OM is enriched in light carbon relative to
	// the DIC pool
	poolFrac := in.DICLight / in.DICMass
	omFrac := out.OMLight / out.OM
	if omFrac <= poolFrac {
		t.Errorf("expected OM light fraction %v > pool fraction %v", omFrac, poolFrac)
	}
}

func TestPhotosynthesisH2SOxidation(t *testing.T) {
	r := testRatios()
	in := PhotoInput{
		DICMass:      2e18,
		DICLight:     1.978e18,
		H2S:          1e-6,
		Volume:       3e19,
		Productivity: 1e12,
	}

	out, err := Photosynthesis(in, r)
	if err != nil {
		t.Fatal(err)
	}
	mH2S := in.H2S * in.Volume

	// sulfide is fully oxidized into sulfate, costing two O2 and two
	// alkalinity equivalents per mole
	if math.Abs(out.H2S+mH2S) > 1e-3 {
		t.Errorf("expected H2S %v, got %v", -mH2S, out.H2S)
	}
	if math.Abs(out.SO4-mH2S) > 1e-3 {
		t.Errorf("expected SO4 %v, got %v", mH2S, out.SO4)
	}
	if math.Abs(out.O2-(out.OM*r.O2C-2*mH2S)) > 1e-3 {
		t.Errorf("O2 budget off: %v", out.O2)
	}
	wantTA := out.OM*r.NC - 2*out.CaCO3 - 2*mH2S
	if math.Abs(out.TA-wantTA) > 1e-3 {
		t.Errorf("expected TA %v, got %v", wantTA, out.TA)
	}
}

func TestPhotosynthesisDegenerateDIC(t *testing.T) {
	r := testRatios()
	// a DIC pool with no heavy carbon left cannot fractionate
	in := PhotoInput{DICMass: 100, DICLight: 100, Volume: 1, Productivity: 1.0 / 106.0}

	if _, err := Photosynthesis(in, r); !errors.Is(err, boxmodel.ErrNonPhysical) {
		t.Errorf("expected non-physical error, got %v", err)
	}
}

func TestRemineralizationOxic(t *testing.T) {
	r := testRatios()
	in := ReminInput{OM: 1e14, OMLight: 0.99e14, H2S: 0, O2: 200e-6, Volume: 1e21}

	out := Remineralization(in, r, false)
	if !out.Oxic {
		t.Fatal("expected oxic branch")
	}

	if math.Abs(out.DIC-in.OM) > 1e-3 {
		t.Errorf("expected DIC return %v, got %v", in.OM, out.DIC)
	}
	if math.Abs(out.PO4-in.OM/r.PC) > 1e-3 {
		t.Errorf("expected PO4 return %v, got %v", in.OM/r.PC, out.PO4)
	}
	if math.Abs(out.O2+in.OM*r.O2C) > 1e-3 {
		t.Errorf("expected O2 drawdown %v, got %v", -in.OM*r.O2C, out.O2)
	}
	if math.Abs(out.TA+in.OM*r.NC) > 1e-3 {
		t.Errorf("expected TA %v, got %v", -in.OM*r.NC, out.TA)
	}
	if out.H2S != 0 || out.SO4 != 0 {
		t.Errorf("expected no sulfur turnover, got h2s=%v so4=%v", out.H2S, out.SO4)
	}
}

func TestRemineralizationOxicTie(t *testing.T) {
	// unit stoichiometry with available O2 exactly matching demand:
	// the tie goes to the oxic branch
	r := Ratios{PC: 1, NC: 0, O2C: 1, PUE: 1, RainRate: 8, AlphaOM: 1}
	in := ReminInput{OM: 1, H2S: 0, O2: 1, Volume: 1}

	out := Remineralization(in, r, false)
	if !out.Oxic {
		t.Fatal("expected tie to resolve oxic")
	}
	if out.O2 != -1 {
		t.Errorf("expected O2 = -1, got %v", out.O2)
	}
	if out.H2S != 0 || out.SO4 != 0 {
		t.Errorf("expected no sulfur turnover, got h2s=%v so4=%v", out.H2S, out.SO4)
	}
}

func TestRemineralizationAnoxic(t *testing.T) {
	r := testRatios()
	in := ReminInput{OM: 1e14, OMLight: 0.99e14, H2S: 0, O2: 1e-6, Volume: 1e18}

	out := Remineralization(in, r, false)
	if out.Oxic {
		t.Fatal("expected anoxic branch")
	}

	// all O2 is spent first
	mO2 := in.O2 * in.Volume
	if math.Abs(out.O2+mO2) > 1e-3 {
		t.Errorf("expected full O2 drawdown %v, got %v", -mO2, out.O2)
	}

	// remaining OM goes through sulfate reduction: 1 SO4 per 2 C,
	// matching H2S production, +2 TA per SO4
	rem := in.OM - mO2/r.O2C
	if math.Abs(out.SO4+rem/2) > 1e-3 {
		t.Errorf("expected SO4 %v, got %v", -rem/2, out.SO4)
	}
	if math.Abs(out.H2S-rem/2) > 1e-3 {
		t.Errorf("expected H2S %v, got %v", rem/2, out.H2S)
	}
	wantTA := -in.OM*r.NC + rem
	if math.Abs(out.TA-wantTA) > 1e-3 {
		t.Errorf("expected TA %v, got %v", wantTA, out.TA)
	}

	// sulfur balance: what leaves SO4 shows up as H2S
	if math.Abs(out.SO4+out.H2S) > 1e-3 {
		t.Errorf("sulfur not conserved: so4=%v h2s=%v", out.SO4, out.H2S)
	}
}

func TestRemineralizationCaCO3(t *testing.T) {
	r := testRatios()
	in := ReminInput{
		OM: 1e14, OMLight: 0.99e14,
		CaCO3: 1e13, CaCO3Light: 0.99e13,
		O2: 200e-6, Volume: 1e21,
	}

	plain := Remineralization(in, r, false)
	diss := Remineralization(in, r, true)

	if math.Abs(diss.DIC-plain.DIC-in.CaCO3) > 1e-3 {
		t.Errorf("expected extra DIC %v, got %v", in.CaCO3, diss.DIC-plain.DIC)
	}
	if math.Abs(diss.TA-plain.TA-2*in.CaCO3) > 1e-3 {
		t.Errorf("expected extra TA %v, got %v", 2*in.CaCO3, diss.TA-plain.TA)
	}
	if math.Abs(diss.DICLight-plain.DICLight-in.CaCO3Light) > 1e-3 {
		t.Errorf("light DIC dissolution off")
	}
}
