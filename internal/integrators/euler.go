package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
)

type Euler struct {
	dy boxmodel.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(f boxmodel.RHS, y boxmodel.State, t, dt float64) (boxmodel.State, error) {
	if len(e.dy) != len(y) {
		e.dy = make(boxmodel.State, len(y))
	}
	if err := f(t, y, e.dy); err != nil {
		return nil, err
	}
	out := make(boxmodel.State, len(y))
	floats.AddScaledTo(out, y, dt, e.dy)
	return out, nil
}
