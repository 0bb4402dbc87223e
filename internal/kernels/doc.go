// Package kernels holds the stateless flux-computation functions of
// the reaction network. Every kernel is a pure function of
// previous-step state and fixed parameters; the assemble package
// binds them into the right-hand side of the ODE system.
//
// All masses are mol, concentrations mol/l, fluxes mol/yr. Isotope
// amounts track the light isotope; the heavy mass is M - L.
package kernels
