// Package dynamo provides the core primitives shared by the flywheel
// subsystem and its simulated plant.
//
// The package defines the fundamental interfaces and types:
//
//   - [State]: vector representing plant state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Clock]: monotonic time source consulted by the sequencer each tick
//   - [Metric] and [Observer]: per-tick instrumentation hooks
//
// # Example
//
//	plant := physics.NewFlywheel()
//	integ := integrators.NewRK4()
//	x = integ.Step(plant, x, dynamo.Control{volts}, t, dt)
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. The control core runs
// on a single fixed-period tick and never shares these values across
// goroutines.
package dynamo
