package control

// PD is a per-tick feedback term. The integral gain is fixed at zero; a
// velocity loop with feedforward has no steady-state offset to integrate
// away and an integrator only winds up during spin-up.
type PD struct {
	Kp      float64
	Kd      float64
	prevErr float64
	first   bool
}

func NewPD(kp, kd float64) *PD {
	return &PD{
		Kp:    kp,
		Kd:    kd,
		first: true,
	}
}

// Update returns Kp*err + Kd*(err - previous err). The first update after a
// reset has no previous error and contributes no derivative.
func (p *PD) Update(err float64) float64 {
	if p.first {
		p.prevErr = err
		p.first = false
		return p.Kp * err
	}

	derivative := err - p.prevErr
	p.prevErr = err
	return p.Kp*err + p.Kd*derivative
}

// Reset clears derivative state.
func (p *PD) Reset() {
	p.prevErr = 0
	p.first = true
}
