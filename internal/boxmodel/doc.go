// Package boxmodel provides the core data model for biogeochemical
// box models.
//
// A model is an arena of index-linked records:
//
//   - [Reservoir]: a named pool of one chemical species with a total
//     mass and, optionally, a light-isotope mass
//   - [Flux]: a directed mass transfer between two reservoirs
//   - [Connection]: describes how a flux value is computed (the
//     [ProcessType] catalogue)
//   - [ExternalCode]: binds a computed kernel (carbonate chemistry,
//     photosynthesis, remineralization) to a reservoir group
//
// Records reference each other by index, never by pointer, so the
// arena can be validated, classified and compiled into a right-hand
// side function (see the assemble package) without ownership
// ambiguity.
//
// # Thread Safety
//
// Model instances are NOT thread-safe. The assembled RHS mutates
// per-step scratch state and must be called from a single goroutine.
package boxmodel
