package sim

import "github.com/maagusrm/esbmtk/internal/boxmodel"

// Metric accumulates a scalar diagnostic over a run.
type Metric interface {
	Name() string
	Observe(y boxmodel.State, t float64)
	Value() float64
	Reset()
}

// Observer receives every recorded step.
type Observer interface {
	OnStep(y boxmodel.State, t float64)
}

// Config controls one integration run. Times are years.
type Config struct {
	Dt            float64
	Duration      float64
	RecordEvery   int  // keep every n-th step, 0 records all
	ValidateState bool // abort on NaN/Inf in the state vector
}

// Result holds the recorded trajectory of one run.
type Result struct {
	Times      []float64
	States     []boxmodel.State
	Datafields map[string][]float64
	Metrics    map[string]float64
	StepsTaken int
}
