package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/maagusrm/esbmtk/internal/assemble"
	"github.com/maagusrm/esbmtk/internal/boxmodel"
	"github.com/maagusrm/esbmtk/internal/config"
	"github.com/maagusrm/esbmtk/internal/integrators"
	"github.com/maagusrm/esbmtk/internal/metrics"
	"github.com/maagusrm/esbmtk/internal/seawater"
	"github.com/maagusrm/esbmtk/internal/sim"
)

var (
	header = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	warn   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

	configFile string
	integrator string
	dt         float64
	duration   float64
	recordEv   int
	csvFile    string
	maxPlots   int

	swTemp     float64
	swSalinity float64
	swPressure float64
	swPH       float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "esbmtk",
		Short: "earth science box model toolkit",
	}

	runCmd := &cobra.Command{
		Use:   "run [family] [scenario]",
		Short: "integrate a box model",
		Args:  cobra.MaximumNArgs(2),
		RunE:  runModel,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "model description file (yaml)")
	runCmd.Flags().StringVar(&integrator, "integrator", "", "integration scheme")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep, years")
	runCmd.Flags().Float64Var(&duration, "time", 0, "duration, years")
	runCmd.Flags().IntVar(&recordEv, "record-every", 0, "keep every n-th step")
	runCmd.Flags().StringVar(&csvFile, "csv", "", "write the trajectory to a CSV file")
	runCmd.Flags().IntVar(&maxPlots, "plots", 6, "number of reservoirs to plot")

	presetsCmd := &cobra.Command{
		Use:   "presets [family]",
		Short: "list built-in model scenarios",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [family] [scenario] [file]",
		Short: "write a scenario to a yaml file for editing",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(args[0], args[1])
			if cfg == nil {
				return fmt.Errorf("unknown scenario: %s/%s", args[0], args[1])
			}
			return config.Save(args[2], cfg)
		},
	}

	seawaterCmd := &cobra.Command{
		Use:   "seawater",
		Short: "report seawater equilibrium constants and speciation",
		RunE:  reportSeawater,
	}
	seawaterCmd.Flags().Float64Var(&swTemp, "temperature", 25.0, "temperature, C")
	seawaterCmd.Flags().Float64Var(&swSalinity, "salinity", 35.0, "salinity, psu")
	seawaterCmd.Flags().Float64Var(&swPressure, "pressure", 0.0, "pressure, bar")
	seawaterCmd.Flags().Float64Var(&swPH, "ph", 8.1, "pH")

	speciesCmd := &cobra.Command{
		Use:   "species",
		Short: "list built-in species and isotope systems",
		RunE:  listSpecies,
	}

	integratorsCmd := &cobra.Command{
		Use:   "integrators",
		Short: "list available integration schemes",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, n := range integrators.Names() {
				fmt.Println(n)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, presetsCmd, initCmd, seawaterCmd, speciesCmd, integratorsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	case len(args) == 2:
		if cfg = config.GetPreset(args[0], args[1]); cfg == nil {
			return nil, fmt.Errorf("unknown scenario: %s/%s (available: %v)",
				args[0], args[1], config.ListPresets(args[0]))
		}
	default:
		return nil, fmt.Errorf("give a family and scenario, or --config")
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("record-every") {
		cfg.RecordEvery = recordEv
	}
	return cfg, nil
}

func runModel(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	m, err := cfg.Build()
	if err != nil {
		return err
	}

	asm := assemble.New(m)
	if err := asm.Build(); err != nil {
		return err
	}
	for _, w := range asm.Warnings() {
		fmt.Println(warn.Render("warning: " + w))
	}

	stepper, err := integrators.New(cfg.Integrator)
	if err != nil {
		return err
	}

	runner := sim.New(asm, stepper)
	for _, mt := range defaultMetrics(asm, m) {
		runner.AddMetric(mt)
	}

	fmt.Printf("%s %s\n", dim.Render("running"), header.Render(cfg.Name))
	start := time.Now()

	result, err := runner.Run(context.Background(), sim.Config{
		Dt:            cfg.Dt,
		Duration:      cfg.Duration,
		RecordEvery:   cfg.RecordEvery,
		ValidateState: true,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("%s %v  %s %d  %s %d\n",
		dim.Render("elapsed"), elapsed,
		dim.Render("steps"), result.StepsTaken,
		dim.Render("records"), len(result.Times))

	if len(result.Metrics) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "METRIC\tVALUE")
		names := make([]string, 0, len(result.Metrics))
		for n := range result.Metrics {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(w, "%s\t%.3e\n", n, result.Metrics[n])
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	plotResult(asm, m, result)

	if csvFile != "" {
		if err := writeCSV(csvFile, asm, m, result); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", dim.Render("wrote"), csvFile)
	}
	return nil
}

// defaultMetrics wires a mass drift diagnostic per element with more
// than one liquid box, plus an isotope bound check when any reservoir
// carries isotopes.
func defaultMetrics(asm *assemble.Assembler, m *boxmodel.Model) []sim.Metric {
	pools := map[string][]metrics.Pool{}
	var pairs []metrics.IsotopePair
	for ri := range m.Reservoirs {
		r := &m.Reservoirs[ri]
		if asm.Slot(ri) < 0 {
			continue
		}
		if !r.Gas {
			el := r.Species.Element.Name
			pools[el] = append(pools[el], metrics.Pool{
				Slot: asm.Slot(ri), Volume: r.Volume,
			})
		}
		if r.Isotopes {
			pairs = append(pairs, metrics.IsotopePair{
				Total: asm.Slot(ri), Light: asm.LightSlot(ri),
			})
		}
	}

	var out []sim.Metric
	els := make([]string, 0, len(pools))
	for el := range pools {
		els = append(els, el)
	}
	sort.Strings(els)
	for _, el := range els {
		if len(pools[el]) > 1 {
			out = append(out, metrics.NewMassBalance(el+" drift", pools[el]))
		}
	}
	if len(pairs) > 0 {
		out = append(out, metrics.NewIsotopeBound("isotope bound", pairs))
	}
	return out
}

func plotResult(asm *assemble.Assembler, m *boxmodel.Model, result *sim.Result) {
	plotted := 0
	for ri := range m.Reservoirs {
		if plotted >= maxPlots {
			break
		}
		slot := asm.Slot(ri)
		if slot < 0 {
			continue
		}
		r := &m.Reservoirs[ri]

		caption := r.Name + " concentration, mol/l"
		if r.Gas {
			caption = r.Name + " moles"
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(result.Series(slot),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		))
		plotted++
	}

	names := make([]string, 0, len(result.Datafields))
	for n := range result.Datafields {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if len(n) < 3 || n[len(n)-3:] != ".pH" {
			continue
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(result.Datafields[n],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(n),
		))
	}
}

func writeCSV(path string, asm *assemble.Assembler, m *boxmodel.Model, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	type column struct {
		name string
		slot int
	}
	cols := []column{}
	for ri := range m.Reservoirs {
		if asm.Slot(ri) < 0 {
			continue
		}
		cols = append(cols, column{m.Reservoirs[ri].Name, asm.Slot(ri)})
		if m.Reservoirs[ri].Isotopes {
			cols = append(cols, column{m.Reservoirs[ri].Name + "_l", asm.LightSlot(ri)})
		}
	}
	fields := make([]string, 0, len(result.Datafields))
	for n := range result.Datafields {
		fields = append(fields, n)
	}
	sort.Strings(fields)

	head := []string{"time"}
	for _, c := range cols {
		head = append(head, c.name)
	}
	head = append(head, fields...)
	if err := w.Write(head); err != nil {
		return err
	}

	for i, t := range result.Times {
		row := []string{strconv.FormatFloat(t, 'e', -1, 64)}
		for _, c := range cols {
			row = append(row, strconv.FormatFloat(result.States[i][c.slot], 'e', -1, 64))
		}
		for _, n := range fields {
			row = append(row, strconv.FormatFloat(result.Datafields[n][i], 'e', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		scenarios := config.ListPresets(args[0])
		if len(scenarios) == 0 {
			fmt.Printf("no scenarios for family: %s\n", args[0])
			return nil
		}
		sort.Strings(scenarios)
		for _, s := range scenarios {
			fmt.Println(s)
		}
		return nil
	}

	families := make([]string, 0, len(config.Presets))
	for f := range config.Presets {
		families = append(families, f)
	}
	sort.Strings(families)
	for _, f := range families {
		scenarios := config.ListPresets(f)
		sort.Strings(scenarios)
		fmt.Printf("%s\n", header.Render(f))
		for _, s := range scenarios {
			fmt.Printf("  %s\n", s)
		}
	}
	return nil
}

func reportSeawater(cmd *cobra.Command, args []string) error {
	s, err := seawater.Compute(seawater.Config{
		Temperature: swTemp,
		Salinity:    swSalinity,
		Pressure:    swPressure,
		PH:          swPH,
	})
	if err != nil {
		return err
	}
	return s.Report(os.Stdout)
}

func listSpecies(cmd *cobra.Command, args []string) error {
	names := boxmodel.SpeciesNames()
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPECIES\tELEMENT\tISOTOPES\tSCALE")
	for _, n := range names {
		sp, _ := boxmodel.SpeciesByName(n)
		el := sp.Element
		iso := el.LightLabel + "/" + el.HeavyLabel
		if el.LightLabel == el.HeavyLabel {
			iso = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n, el.Name, iso, el.Scale)
	}
	return w.Flush()
}
