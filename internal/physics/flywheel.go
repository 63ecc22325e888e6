package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/flywheel/internal/dynamo"
)

const (
	DefaultKs = 0.08
	DefaultKv = 0.12128
	DefaultKa = 0.10706

	// stictionBand is the speed below which the wheel is treated as stopped.
	stictionBand = 1e-3
)

// Flywheel is the first-order voltage model of a brushless motor driving a
// flywheel: V = Ks*sign(w) + Kv*w + Ka*dw/dt. State is [position rad,
// velocity rad/s], control is [terminal volts].
type Flywheel struct {
	Ks float64
	Kv float64
	Ka float64
}

func NewFlywheel() *Flywheel {
	return &Flywheel{
		Ks: DefaultKs,
		Kv: DefaultKv,
		Ka: DefaultKa,
	}
}

func (f *Flywheel) StateDim() int {
	return 2
}

func (f *Flywheel) ControlDim() int {
	return 1
}

func (f *Flywheel) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	omega := x[1]

	volts := 0.0
	if len(u) > 0 {
		volts = u[0]
	}

	if math.Abs(omega) < stictionBand && math.Abs(volts) <= f.Ks {
		return dynamo.State{omega, 0}
	}

	friction := f.Ks * sign(omega)
	if math.Abs(omega) < stictionBand {
		friction = f.Ks * sign(volts)
	}

	alpha := (volts - friction - f.Kv*omega) / f.Ka
	return dynamo.State{omega, alpha}
}

// SteadyStateVelocity is the speed the wheel settles at under constant volts.
func (f *Flywheel) SteadyStateVelocity(volts float64) float64 {
	if math.Abs(volts) <= f.Ks {
		return 0
	}
	return (volts - f.Ks*sign(volts)) / f.Kv
}

func (f *Flywheel) GetParams() map[string]float64 {
	return map[string]float64{
		"ks": f.Ks,
		"kv": f.Kv,
		"ka": f.Ka,
	}
}

func (f *Flywheel) SetParam(name string, value float64) error {
	switch name {
	case "ks":
		if value < 0 {
			return fmt.Errorf("ks %v: %w", value, dynamo.ErrParameterBounds)
		}
		f.Ks = value
	case "kv":
		if value <= 0 {
			return fmt.Errorf("kv %v: %w", value, dynamo.ErrParameterBounds)
		}
		f.Kv = value
	case "ka":
		if value <= 0 {
			return fmt.Errorf("ka %v: %w", value, dynamo.ErrParameterBounds)
		}
		f.Ka = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
