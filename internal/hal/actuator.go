// Package hal defines the actuator driver contract consumed by the shooter
// core and a physics-backed implementation of it.
package hal

import "math"

// Actuator is one motor controller channel. Velocity and Position are in
// rad/s and rad after the encoder conversion fixed at construction.
type Actuator interface {
	ID() int
	SetVoltage(volts float64)
	SetDutyCycle(duty float64)
	Stop()
	Velocity() float64
	Position() float64
	SetInverted(inverted bool)
	// Follow mirrors leader's output, negated when invert is set. A nil
	// leader detaches.
	Follow(leader Actuator, invert bool)
	BusVoltage() float64
	// AppliedOutput is the duty cycle currently driven, in [-1, 1].
	AppliedOutput() float64
}

// Encoder converts raw controller units (rotations, RPM) to rad and rad/s.
type Encoder struct {
	PositionFactor float64 `yaml:"position_factor"`
	VelocityFactor float64 `yaml:"velocity_factor"`
}

// DefaultEncoder is the brushless hall sensor with no gearing.
func DefaultEncoder() Encoder {
	return Encoder{
		PositionFactor: 2.0 * math.Pi,
		VelocityFactor: (2.0 * math.Pi) / 60.0,
	}
}

func clampDuty(d float64) float64 {
	if d > 1 {
		return 1
	}
	if d < -1 {
		return -1
	}
	return d
}
