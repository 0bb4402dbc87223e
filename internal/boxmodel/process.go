package boxmodel

import "fmt"

// ProcessType enumerates the flux-computation kernels. The set is
// closed: the assembler matches exhaustively over it and anything else
// is a configuration error.
type ProcessType int

const (
	Regular ProcessType = iota
	ScaleWithConcentration
	ScaleWithMass
	ScaleWithFlux
	Weathering
	GasExchange
)

func (p ProcessType) String() string {
	switch p {
	case Regular:
		return "regular"
	case ScaleWithConcentration:
		return "scale_with_concentration"
	case ScaleWithMass:
		return "scale_with_mass"
	case ScaleWithFlux:
		return "scale_with_flux"
	case Weathering:
		return "weathering"
	case GasExchange:
		return "gas_exchange"
	}
	return fmt.Sprintf("ProcessType(%d)", int(p))
}

// ParseProcessType maps a configuration string onto the catalogue.
func ParseProcessType(s string) (ProcessType, error) {
	switch s {
	case "regular":
		return Regular, nil
	case "scale_with_concentration":
		return ScaleWithConcentration, nil
	case "scale_with_mass":
		return ScaleWithMass, nil
	case "scale_with_flux":
		return ScaleWithFlux, nil
	case "weathering":
		return Weathering, nil
	case "gas_exchange":
		return GasExchange, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProcess, s)
}

// KernelClass splits external-code kernels by their flux dependence:
// CS1 kernels are pure functions of the state vector, CS2 kernels read
// fluxes computed earlier in the same step and must run after them.
type KernelClass int

const (
	CS1 KernelClass = iota
	CS2
)

func (c KernelClass) String() string {
	if c == CS1 {
		return "cs1"
	}
	return "cs2"
}

// KernelType enumerates the external-code kernels.
type KernelType int

const (
	CarbonateSystem KernelType = iota
	Photosynthesis
	Remineralization
)

func (k KernelType) String() string {
	switch k {
	case CarbonateSystem:
		return "carbonate_system"
	case Photosynthesis:
		return "photosynthesis"
	case Remineralization:
		return "remineralization"
	}
	return fmt.Sprintf("KernelType(%d)", int(k))
}

// Class reports the evaluation class of the kernel.
func (k KernelType) Class() KernelClass {
	if k == CarbonateSystem {
		return CS1
	}
	return CS2
}

// ParseKernelType maps a configuration string onto the kernel
// catalogue.
func ParseKernelType(s string) (KernelType, error) {
	switch s {
	case "carbonate_system":
		return CarbonateSystem, nil
	case "photosynthesis":
		return Photosynthesis, nil
	case "remineralization":
		return Remineralization, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKernel, s)
}
