package seawater

import (
	"fmt"
	"math"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
)

// CarbonateState is the per-step output of the carbonate solver.
type CarbonateState struct {
	H     float64 // mol/l
	CA    float64
	HCO3  float64
	CO3   float64
	CO2aq float64
}

// PH returns -log10 of the H+ concentration.
func (c CarbonateState) PH() float64 { return -math.Log10(c.H) }

// Solve computes the carbonate speciation from DIC, total alkalinity
// and the H+ concentration of the previous step, after Follows et
// al. 2006 (doi:10.1016/j.ocemod.2005.05.004). The lagged H+ makes
// the solve explicit; one step of lag is accurate at the time scales
// box models resolve.
//
// A DIC/TA pair outside the regime the approximation can represent
// shows up as a non-positive carbonate alkalinity, a negative
// discriminant, or a non-positive H+ root. Each is surfaced as an
// error rather than silently producing garbage speciation.
func Solve(dic, ta, hPrev float64, k Constants) (CarbonateState, error) {
	oh := k.KW / hPrev
	boh4 := k.Boron * k.KB / (hPrev + k.KB)
	ca := ta + hPrev - oh - boh4
	if ca <= 0 {
		return CarbonateState{}, fmt.Errorf(
			"carbonate solve: non-positive carbonate alkalinity (dic=%.4e ta=%.4e h=%.4e): %w",
			dic, ta, hPrev, boxmodel.ErrNonPhysical)
	}

	gamma := dic / ca
	disc := (1-gamma)*(1-gamma)*k.K1*k.K1 - 4*k.K1*k.K2*(1-2*gamma)
	if disc < 0 {
		return CarbonateState{}, fmt.Errorf(
			"carbonate solve: negative discriminant (dic=%.4e ta=%.4e h=%.4e): %w",
			dic, ta, hPrev, boxmodel.ErrNonPhysical)
	}

	h := 0.5 * ((gamma-1)*k.K1 + math.Sqrt(disc))
	if h <= 0 {
		return CarbonateState{}, fmt.Errorf(
			"carbonate solve: non-positive H+ root (dic=%.4e ta=%.4e h=%.4e): %w",
			dic, ta, hPrev, boxmodel.ErrNonPhysical)
	}
	return CarbonateState{
		H:     h,
		CA:    ca,
		HCO3:  dic / (1 + h/k.K1 + k.K2/h),
		CO3:   dic / (1 + h/k.K2 + h*h/(k.K1*k.K2)),
		CO2aq: dic / (1 + k.K1/h + k.K1*k.K2/(h*h)),
	}, nil
}
