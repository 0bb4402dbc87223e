package boxmodel

import (
	"errors"
	"fmt"
)

// Domain errors for model setup and integration.
var (
	// ErrUnknownProcess indicates a connection whose process type is not
	// in the kernel catalogue.
	ErrUnknownProcess = errors.New("boxmodel: unknown process type")

	// ErrUnknownKernel indicates an external-code binding whose kernel
	// type is not in the catalogue.
	ErrUnknownKernel = errors.New("boxmodel: unknown kernel type")

	// ErrMissingReference indicates a connection or binding that names a
	// reservoir, flux or group which does not exist in the arena.
	ErrMissingReference = errors.New("boxmodel: missing required reference")

	// ErrAmbiguousReservoir indicates a reservoir with neither fluxes nor
	// an external-code binding.
	ErrAmbiguousReservoir = errors.New("boxmodel: reservoir has no fluxes and no kernel binding")

	// ErrNonPhysical indicates a numeric domain failure (negative
	// discriminant, negative mass, M == L isotope split).
	ErrNonPhysical = errors.New("boxmodel: non-physical state")

	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("boxmodel: invalid state (NaN or Inf detected)")

	// ErrIsotopesUnsupported indicates a process type with no isotope
	// variant applied to an isotope flux.
	ErrIsotopesUnsupported = errors.New("boxmodel: process has no isotope variant")
)

// ConfigError reports a model setup failure with the offending entity.
// Configuration errors are raised before any integration step runs.
type ConfigError struct {
	Entity  string
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Entity, e.Wrapped)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}

// Setupf builds a ConfigError for the named entity.
func Setupf(entity string, err error, format string, args ...any) *ConfigError {
	if format == "" {
		return &ConfigError{Entity: entity, Wrapped: err}
	}
	return &ConfigError{
		Entity:  entity,
		Wrapped: fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...)),
	}
}

// StepError reports a numeric failure during integration with the time
// and entity at which it occurred. Step errors are terminal; the driver
// never continues past one.
type StepError struct {
	Step    int
	Time    float64
	Entity  string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) %s: %v", e.Step, e.Time, e.Entity, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
