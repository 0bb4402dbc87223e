package seawater

import (
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
)

func TestComputeDefaults(t *testing.T) {
	g := NewWithT(t)

	s, err := Compute(DefaultConfig())
	g.Expect(err).NotTo(HaveOccurred())

	// standard surface seawater at pH 8.1: HCO3 dominates DIC,
	// CO2aq is a few percent at most
	g.Expect(s.HCO3 / s.DIC).To(BeNumerically(">", 0.85))
	g.Expect(s.CO2 / s.DIC).To(BeNumerically("<", 0.01))
	g.Expect(s.CO2).To(BeNumerically("~", 10e-6, 5e-6))

	// pK values in their textbook ranges
	g.Expect(-math.Log10(s.K1)).To(BeNumerically("~", 5.86, 0.1))
	g.Expect(-math.Log10(s.K2)).To(BeNumerically("~", 8.92, 0.1))
	g.Expect(-math.Log10(s.KB)).To(BeNumerically("~", 8.6, 0.1))
	g.Expect(-math.Log10(s.KW)).To(BeNumerically("~", 13.2, 0.2))

	// speciation must close the DIC budget
	g.Expect(s.CO2 + s.HCO3 + s.CO3).To(BeNumerically("~", s.DIC, s.DIC*1e-9))

	// alkalinity identity
	g.Expect(s.TA).To(BeNumerically("~", s.HCO3+2*s.CO3+s.BOH4+s.OH-s.Hplus, 1e-15))
}

func TestComputePressureShiftsConstants(t *testing.T) {
	g := NewWithT(t)

	surf, err := Compute(DefaultConfig())
	g.Expect(err).NotTo(HaveOccurred())

	deep := DefaultConfig()
	deep.Temperature = 4
	deep.Pressure = 300
	d, err := Compute(deep)
	g.Expect(err).NotTo(HaveOccurred())

	// pressure increases K1 and K2 (dissociation is favored at depth)
	g.Expect(d.K1).To(BeNumerically(">", 0))
	g.Expect(d.Ksp).To(BeNumerically(">", surf.Ksp))

	p0 := deep
	p0.Pressure = 0
	u, err := Compute(p0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(d.K1).To(BeNumerically(">", u.K1))
	g.Expect(d.K2).To(BeNumerically(">", u.K2))
}

func TestComputeFractionationFactors(t *testing.T) {
	g := NewWithT(t)

	s, err := Compute(DefaultConfig())
	g.Expect(err).NotTo(HaveOccurred())

	// all epsilon values are small permil shifts, alphas near unity
	for _, a := range []float64{s.AGB, s.ADG, s.ADB, s.ACB} {
		g.Expect(a).To(BeNumerically("~", 1.0, 0.02))
	}
	// CO2aq is depleted relative to HCO3
	g.Expect(s.EDB).To(BeNumerically("<", 0))
	g.Expect(s.ADB).To(BeNumerically("<", 1))
}

func TestSolveRecoversConfiguredPH(t *testing.T) {
	g := NewWithT(t)

	s, err := Compute(DefaultConfig())
	g.Expect(err).NotTo(HaveOccurred())

	// solving from the state's own DIC and TA, seeded with its own
	// H+, must reproduce that H+ and the speciation
	cs, err := Solve(s.DIC, s.TA, s.Hplus, s.Constants())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cs.H).To(BeNumerically("~", s.Hplus, s.Hplus*1e-6))
	g.Expect(cs.HCO3).To(BeNumerically("~", s.HCO3, s.HCO3*1e-5))
	g.Expect(cs.CO3).To(BeNumerically("~", s.CO3, s.CO3*1e-5))
	g.Expect(cs.CO2aq).To(BeNumerically("~", s.CO2, s.CO2*1e-5))
	g.Expect(cs.PH()).To(BeNumerically("~", 8.1, 1e-4))
}

func TestSolveConvergesFromPerturbedSeed(t *testing.T) {
	g := NewWithT(t)

	s, err := Compute(DefaultConfig())
	g.Expect(err).NotTo(HaveOccurred())

	// iterate the lagged solve from a seed half a pH unit off; it
	// must settle on the same root within a few steps
	h := s.Hplus * math.Pow(10, 0.5)
	var cs CarbonateState
	for i := 0; i < 10; i++ {
		cs, err = Solve(s.DIC, s.TA, h, s.Constants())
		g.Expect(err).NotTo(HaveOccurred())
		h = cs.H
	}
	g.Expect(cs.H).To(BeNumerically("~", s.Hplus, s.Hplus*1e-4))
}

func TestSolveNonPhysical(t *testing.T) {
	g := NewWithT(t)

	s, err := Compute(DefaultConfig())
	g.Expect(err).NotTo(HaveOccurred())

	tests := []struct {
		name    string
		dic, ta float64
	}{
		// DIC far in excess of alkalinity drives the H+ root
		// negative, which would yield negative HCO3/CO3 if returned
		{"excess DIC", 1.0, 1e-5},
		// negative alkalinity makes the carbonate alkalinity
		// estimate itself non-positive
		{"negative TA", 2e-3, -1e-3},
	}
	for _, tt := range tests {
		_, err := Solve(tt.dic, tt.ta, s.Hplus, s.Constants())
		g.Expect(err).To(MatchError(boxmodel.ErrNonPhysical), tt.name)
	}
}

func TestPCO2(t *testing.T) {
	g := NewWithT(t)

	s, err := Compute(DefaultConfig())
	g.Expect(err).NotTo(HaveOccurred())

	// at equilibrium pCO2 = [CO2aq]/K0; roughly preindustrial values
	// for standard conditions
	p := PCO2(s.DIC, s.Hplus, s)
	g.Expect(p).To(BeNumerically("~", s.CO2/s.K0*1e6, 1e-9))
	g.Expect(p).To(BeNumerically(">", 150))
	g.Expect(p).To(BeNumerically("<", 600))
}
