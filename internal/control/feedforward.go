package control

import (
	"fmt"
	"strings"

	"github.com/san-kum/flywheel/internal/dynamo"
)

// Gains are the offline-tuned constants of one wheel's loop. Volts per rad/s
// for Kv, volts per rad/s^2 for Ka.
type Gains struct {
	Ks float64 `yaml:"ks"`
	Kv float64 `yaml:"kv"`
	Ka float64 `yaml:"ka"`
	Kp float64 `yaml:"kp"`
	Kd float64 `yaml:"kd"`
}

func (g Gains) GetParams() map[string]float64 {
	return map[string]float64{
		"ks": g.Ks,
		"kv": g.Kv,
		"ka": g.Ka,
		"kp": g.Kp,
		"kd": g.Kd,
	}
}

// SetParam updates one gain by name. Gains are never negative.
func (g *Gains) SetParam(name string, value float64) error {
	if value < 0 {
		return &dynamo.ConfigError{Field: name, Value: value, Wrapped: dynamo.ErrParameterBounds}
	}
	switch strings.ToLower(name) {
	case "ks":
		g.Ks = value
	case "kv":
		g.Kv = value
	case "ka":
		g.Ka = value
	case "kp":
		g.Kp = value
	case "kd":
		g.Kd = value
	default:
		return fmt.Errorf("unknown gain: %s", name)
	}
	return nil
}

// Feedforward is the simple permanent-magnet motor model.
type Feedforward struct {
	Ks float64
	Kv float64
	Ka float64
}

func (g Gains) Feedforward() Feedforward {
	return Feedforward{Ks: g.Ks, Kv: g.Kv, Ka: g.Ka}
}

// Calculate returns the volts needed to hold velocity while accelerating at
// accel.
func (f Feedforward) Calculate(velocity, accel float64) float64 {
	return f.Ks*sign(velocity) + f.Kv*velocity + f.Ka*accel
}

// MaxVelocity is the fastest steady speed reachable with maxVolts.
func (f Feedforward) MaxVelocity(maxVolts float64) float64 {
	if f.Kv == 0 {
		return 0
	}
	return (maxVolts - f.Ks) / f.Kv
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
