package integrators

import (
	"math"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64

	k [7]boxmodel.State
	x boxmodel.State
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Name() string { return "rk45" }

func (r *RK45) ensureScratch(n int) {
	if len(r.x) != n {
		for i := range r.k {
			r.k[i] = make(boxmodel.State, n)
		}
		r.x = make(boxmodel.State, n)
	}
}

func (r *RK45) Step(f boxmodel.RHS, y boxmodel.State, t, dt float64) (boxmodel.State, error) {
	out, _, err := r.StepAdaptive(f, y, t, dt, 1e-6)
	return out, err
}

// StepAdaptive advances one step and suggests the next step size
// from the embedded error estimate.
func (r *RK45) StepAdaptive(f boxmodel.RHS, y boxmodel.State, t, dt, tol float64) (boxmodel.State, float64, error) {
	n := len(y)
	r.ensureScratch(n)

	if err := f(t, y, r.k[0]); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		r.x[i] = y[i] + dt*b21*r.k[0][i]
	}
	if err := f(t+a2*dt, r.x, r.k[1]); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		r.x[i] = y[i] + dt*(b31*r.k[0][i]+b32*r.k[1][i])
	}
	if err := f(t+a3*dt, r.x, r.k[2]); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		r.x[i] = y[i] + dt*(b41*r.k[0][i]+b42*r.k[1][i]+b43*r.k[2][i])
	}
	if err := f(t+a4*dt, r.x, r.k[3]); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		r.x[i] = y[i] + dt*(b51*r.k[0][i]+b52*r.k[1][i]+b53*r.k[2][i]+b54*r.k[3][i])
	}
	if err := f(t+a5*dt, r.x, r.k[4]); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		r.x[i] = y[i] + dt*(b61*r.k[0][i]+b62*r.k[1][i]+b63*r.k[2][i]+b64*r.k[3][i]+b65*r.k[4][i])
	}
	if err := f(t+dt, r.x, r.k[5]); err != nil {
		return nil, 0, err
	}

	out := make(boxmodel.State, n)
	for i := 0; i < n; i++ {
		out[i] = y[i] + dt*(c1*r.k[0][i]+c3*r.k[2][i]+c4*r.k[3][i]+c5*r.k[4][i]+c6*r.k[5][i])
	}
	if err := f(t+dt, out, r.k[6]); err != nil {
		return nil, 0, err
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*r.k[0][i] + dc3*r.k[2][i] + dc4*r.k[3][i] +
			dc5*r.k[4][i] + dc6*r.k[5][i] + dc7*r.k[6][i])
		scale := math.Abs(y[i]) + math.Abs(dt*r.k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	errRatio := errMax / tol
	var dtNew float64
	if errRatio > 1 {
		dtNew = dt * math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	} else if errRatio > 0 {
		dtNew = dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	} else {
		dtNew = dt * r.maxScale
	}

	return out, dtNew, nil
}
