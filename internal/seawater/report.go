package seawater

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
)

// Report writes a human-readable summary of the state: species
// concentrations, conditions and pK values.
func (s *State) Report(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	species := []struct {
		name string
		v    float64
	}{
		{"dic", s.DIC},
		{"ta", s.TA},
		{"ca", s.CA},
		{"co2", s.CO2},
		{"hco3", s.HCO3},
		{"co3", s.CO3},
		{"boron", s.Boron},
		{"boh4", s.BOH4},
		{"boh3", s.BOH3},
		{"oh", s.OH},
	}
	for _, sp := range species {
		fmt.Fprintf(tw, "%s\t%.2f umol/l\n", sp.name, sp.v*1e6)
	}
	fmt.Fprintf(tw, "\npH\t%.2f\n", -math.Log10(s.Hplus))
	fmt.Fprintf(tw, "salinity\t%.2f\n", s.Salinity)
	fmt.Fprintf(tw, "temperature\t%.2f C\n", s.Temperature)
	fmt.Fprintf(tw, "pressure\t%.2f atm\n\n", s.Pressure)

	constants := []struct {
		name string
		v    float64
	}{
		{"K0", s.K0},
		{"K1", s.K1},
		{"K2", s.K2},
		{"KW", s.KW},
		{"KB", s.KB},
		{"Ksp", s.Ksp},
	}
	for _, c := range constants {
		fmt.Fprintf(tw, "%s\t%.2e\tp%s = %.2f\n", c.name, c.v, c.name, -math.Log10(c.v))
	}
	return tw.Flush()
}
