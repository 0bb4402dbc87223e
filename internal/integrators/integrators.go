// Package integrators provides the fixed and adaptive steppers that
// drive an assembled box model forward in time.
package integrators

import (
	"fmt"
	"sort"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
)

// Stepper advances a state vector by one time step. Steppers reuse
// internal scratch buffers, so a stepper must not be shared between
// concurrent runs.
type Stepper interface {
	Step(f boxmodel.RHS, y boxmodel.State, t, dt float64) (boxmodel.State, error)
	Name() string
}

var factories = map[string]func() Stepper{
	"euler": func() Stepper { return NewEuler() },
	"rk4":   func() Stepper { return NewRK4() },
	"rk45":  func() Stepper { return NewRK45() },
}

// New returns the stepper registered under name.
func New(name string) (Stepper, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator %q (have %v)", name, Names())
	}
	return f(), nil
}

// Names lists the registered steppers.
func Names() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
