// Package physics provides plant models for the simulated shooter.
//
// Each model implements the [dynamo.System] interface:
//
//   - [Flywheel]: first-order Ks/Kv/Ka voltage model of a motor and wheel
//
// Models also implement [dynamo.Configurable] so the plant constants can be
// perturbed from config or a scenario script, which is how characterization
// and fitting are checked against a known ground truth.
package physics
