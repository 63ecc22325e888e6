package control

import "math"

// Velocity converts a target wheel speed into a voltage command:
// feedforward(target) + PD(target - measured). Acceleration feedforward is
// zero because setpoints are steps, not profiles.
type Velocity struct {
	gains Gains
	ff    Feedforward
	fb    *PD

	lastTarget   float64
	lastMeasured float64
	lastOutput   float64
}

func NewVelocity(g Gains) *Velocity {
	return &Velocity{
		gains: g,
		ff:    g.Feedforward(),
		fb:    NewPD(g.Kp, g.Kd),
	}
}

func (v *Velocity) Calculate(target, measured float64) float64 {
	v.lastTarget = target
	v.lastMeasured = measured
	v.lastOutput = v.ff.Calculate(target, 0) + v.fb.Update(target-measured)
	return v.lastOutput
}

// AtSetpoint reports |target - measured| <= tolerance.
func AtSetpoint(target, measured, tolerance float64) bool {
	return math.Abs(target-measured) <= tolerance
}

// AtSetpoint evaluates the tolerance band against the last Calculate inputs.
func (v *Velocity) AtSetpoint(tolerance float64) bool {
	return AtSetpoint(v.lastTarget, v.lastMeasured, tolerance)
}

func (v *Velocity) Reset() {
	v.fb.Reset()
	v.lastTarget = 0
	v.lastMeasured = 0
	v.lastOutput = 0
}

func (v *Velocity) Gains() Gains { return v.gains }

// LastOutput is the most recent voltage command.
func (v *Velocity) LastOutput() float64 { return v.lastOutput }

// GetParams returns the gains and last loop values for display.
func (v *Velocity) GetParams() map[string]float64 {
	return map[string]float64{
		"Ks":       v.gains.Ks,
		"Kv":       v.gains.Kv,
		"Ka":       v.gains.Ka,
		"Kp":       v.gains.Kp,
		"Kd":       v.gains.Kd,
		"Target":   v.lastTarget,
		"Measured": v.lastMeasured,
		"Output":   v.lastOutput,
	}
}
