package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/maagusrm/esbmtk/internal/assemble"
	"github.com/maagusrm/esbmtk/internal/boxmodel"
	"github.com/maagusrm/esbmtk/internal/integrators"
)

// Runner drives one assembled model through time. It owns the
// assembler's per-step scratch through the RHS, so a runner serves
// one Run at a time.
type Runner struct {
	asm       *assemble.Assembler
	stepper   integrators.Stepper
	metrics   []Metric
	observers []Observer
}

func New(asm *assemble.Assembler, stepper integrators.Stepper) *Runner {
	return &Runner{asm: asm, stepper: stepper}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Run integrates from the model's initial state. A numerical failure
// (solver domain error, NaN or a drained-negative pool in the
// state) terminates the run with a
// step error carrying the offending time; the partial result up to
// that step is returned alongside it.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	rhs, err := r.asm.RHS()
	if err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	every := cfg.RecordEvery
	if every <= 0 {
		every = 1
	}

	result := &Result{
		Times:      make([]float64, 0, steps/every+1),
		States:     make([]boxmodel.State, 0, steps/every+1),
		Datafields: make(map[string][]float64),
		Metrics:    make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	y := r.asm.InitialState()
	t := 0.0
	r.record(result, y, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		next, err := r.stepper.Step(rhs, y, t, cfg.Dt)
		if err != nil {
			return result, &boxmodel.StepError{
				Step: i, Time: t, Entity: "integration", Wrapped: err,
			}
		}
		if cfg.ValidateState {
			if err := r.asm.CheckState(next); err != nil {
				return result, &boxmodel.StepError{
					Step: i, Time: t, Entity: "state vector", Wrapped: err,
				}
			}
		}

		y = next
		t += cfg.Dt
		result.StepsTaken++

		for _, m := range r.metrics {
			m.Observe(y, t)
		}
		if (i+1)%every == 0 {
			r.record(result, y, t)
		}
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func (r *Runner) record(result *Result, y boxmodel.State, t float64) {
	result.Times = append(result.Times, t)
	result.States = append(result.States, y.Clone())
	for _, d := range r.asm.Datafields() {
		result.Datafields[d.Name] = append(result.Datafields[d.Name], d.Value)
	}
	for _, o := range r.observers {
		o.OnStep(y, t)
	}
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Duration < cfg.Dt {
		return errors.New("duration shorter than one step")
	}
	return nil
}

// Series extracts the recorded trajectory of one state slot.
func (res *Result) Series(slot int) []float64 {
	out := make([]float64, len(res.States))
	for i, s := range res.States {
		out[i] = s[slot]
	}
	return out
}
