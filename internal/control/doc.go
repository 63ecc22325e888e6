// Package control provides the flywheel velocity loop.
//
//   - [Feedforward]: Ks/Kv/Ka open-loop voltage model
//   - [PD]: per-tick proportional-derivative feedback (no integral)
//   - [Velocity]: feedforward + PD, the controller every shooter wheel runs
//
// # Usage
//
//	vc := control.NewVelocity(gains)
//	vc.Reset()                          // on every sequence (re)start
//	volts := vc.Calculate(target, motor.Velocity())
//	motor.SetVoltage(volts)
//
// The loop runs once per fixed control period. The derivative term is the
// raw change in error between consecutive ticks, so gains tuned at one
// period do not transfer unchanged to another.
package control
