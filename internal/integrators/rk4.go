package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
)

type RK4 struct {
	k1, k2, k3, k4 boxmodel.State
	scratch        boxmodel.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(boxmodel.State, n)
		r.k2 = make(boxmodel.State, n)
		r.k3 = make(boxmodel.State, n)
		r.k4 = make(boxmodel.State, n)
		r.scratch = make(boxmodel.State, n)
	}
}

func (r *RK4) Step(f boxmodel.RHS, y boxmodel.State, t, dt float64) (boxmodel.State, error) {
	n := len(y)
	r.ensureScratch(n)

	if err := f(t, y, r.k1); err != nil {
		return nil, err
	}

	floats.AddScaledTo(r.scratch, y, dt*0.5, r.k1)
	if err := f(t+dt*0.5, r.scratch, r.k2); err != nil {
		return nil, err
	}

	floats.AddScaledTo(r.scratch, y, dt*0.5, r.k2)
	if err := f(t+dt*0.5, r.scratch, r.k3); err != nil {
		return nil, err
	}

	floats.AddScaledTo(r.scratch, y, dt, r.k3)
	if err := f(t+dt, r.scratch, r.k4); err != nil {
		return nil, err
	}

	out := make(boxmodel.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		out[i] = y[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return out, nil
}
