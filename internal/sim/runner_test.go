package sim

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/maagusrm/esbmtk/internal/assemble"
	"github.com/maagusrm/esbmtk/internal/boxmodel"
	"github.com/maagusrm/esbmtk/internal/integrators"
)

func decayModel(t *testing.T) (*boxmodel.Model, int) {
	t.Helper()
	m := boxmodel.New("decay")
	sp, _ := boxmodel.SpeciesByName("PO4")
	ri := m.AddReservoir(boxmodel.Reservoir{
		Name: "box.PO4", Species: sp, Volume: 100, Concentration: 1e-3,
	})
	m.AddConnection(boxmodel.Connection{
		Name: "burial", Type: boxmodel.ScaleWithConcentration,
		Source: ri, Sink: boxmodel.Boundary, Scale: 10,
	})
	return m, ri
}

func TestRunExponentialDecay(t *testing.T) {
	m, ri := decayModel(t)
	a := assemble.New(m)
	if err := a.Build(); err != nil {
		t.Fatal(err)
	}

	r := New(a, integrators.NewRK4())
	res, err := r.Run(context.Background(), Config{Dt: 0.1, Duration: 10, ValidateState: true})
	if err != nil {
		t.Fatal(err)
	}

	// dC/dt = -C*scale/V with scale/V = 0.1
	want := 1e-3 * math.Exp(-0.1*10)
	got := res.States[len(res.States)-1][a.Slot(ri)]
	if math.Abs(got-want) > want*1e-6 {
		t.Errorf("expected %v after decay, got %v", want, got)
	}
	if res.StepsTaken != 100 {
		t.Errorf("expected 100 steps, got %d", res.StepsTaken)
	}
}

func TestRunRecordEvery(t *testing.T) {
	m, _ := decayModel(t)
	a := assemble.New(m)
	if err := a.Build(); err != nil {
		t.Fatal(err)
	}

	r := New(a, integrators.NewEuler())
	res, err := r.Run(context.Background(), Config{Dt: 0.1, Duration: 10, RecordEvery: 10})
	if err != nil {
		t.Fatal(err)
	}
	// initial state plus every tenth step
	if len(res.Times) != 11 {
		t.Errorf("expected 11 records, got %d", len(res.Times))
	}
}

func TestRunCancellation(t *testing.T) {
	m, _ := decayModel(t)
	a := assemble.New(m)
	if err := a.Build(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(a, integrators.NewRK4())
	if _, err := r.Run(ctx, Config{Dt: 0.1, Duration: 1e4}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	m, _ := decayModel(t)
	a := assemble.New(m)
	if err := a.Build(); err != nil {
		t.Fatal(err)
	}
	r := New(a, integrators.NewRK4())

	if _, err := r.Run(context.Background(), Config{Dt: 0, Duration: 1}); err == nil {
		t.Error("expected error for zero dt")
	}
	if _, err := r.Run(context.Background(), Config{Dt: 1, Duration: -1}); err == nil {
		t.Error("expected error for negative duration")
	}
}

func TestRunAbortsOnNaN(t *testing.T) {
	m := boxmodel.New("nan")
	sp, _ := boxmodel.SpeciesByName("DIC")
	co2, _ := boxmodel.SpeciesByName("CO2")

	// a negative reference concentration under a fractional
	// exponent produces NaN in the weathering power law
	ref := m.AddReservoir(boxmodel.Reservoir{
		Name: "atm.CO2", Species: co2, Volume: 1, Concentration: -280e-6,
		Kind: boxmodel.Static,
	})
	sink := m.AddReservoir(boxmodel.Reservoir{
		Name: "ocean.DIC", Species: sp, Volume: 1, Concentration: 2e-3,
	})
	m.AddConnection(boxmodel.Connection{
		Name: "weathering", Type: boxmodel.Weathering,
		Source: boxmodel.Boundary, Sink: sink,
		RefReservoir: ref, F0: 12e12, Scale: 1, PCO20: 280e-6, Ex: 0.4,
	})

	a := assemble.New(m)
	if err := a.Build(); err != nil {
		t.Fatal(err)
	}

	r := New(a, integrators.NewEuler())
	_, err := r.Run(context.Background(), Config{Dt: 1, Duration: 10, ValidateState: true})

	var se *boxmodel.StepError
	if !errors.As(err, &se) {
		t.Fatalf("expected step error, got %v", err)
	}
	if !errors.Is(err, boxmodel.ErrInvalidState) {
		t.Errorf("expected invalid-state cause, got %v", err)
	}
	if se.Step != 0 {
		t.Errorf("expected failure at step 0, got %d", se.Step)
	}
}

func TestRunAbortsOnNegativeState(t *testing.T) {
	m := boxmodel.New("drain")
	sp, _ := boxmodel.SpeciesByName("PO4")
	m.AddReservoir(boxmodel.Reservoir{
		Name: "box.PO4", Species: sp, Volume: 100, Concentration: 1e-3,
	})
	// fixed-rate outflow larger than the inventory drains the pool
	// below zero within the first step
	m.AddConnection(boxmodel.Connection{
		Name: "burial", Type: boxmodel.Regular,
		Source: 0, Sink: boxmodel.Boundary, Rate: 10,
	})

	a := assemble.New(m)
	if err := a.Build(); err != nil {
		t.Fatal(err)
	}

	r := New(a, integrators.NewEuler())
	_, err := r.Run(context.Background(), Config{Dt: 1, Duration: 10, ValidateState: true})

	var se *boxmodel.StepError
	if !errors.As(err, &se) {
		t.Fatalf("expected step error, got %v", err)
	}
	if !errors.Is(err, boxmodel.ErrNonPhysical) {
		t.Errorf("expected non-physical cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "box.PO4") {
		t.Errorf("expected the drained reservoir to be named, got %v", err)
	}
}
