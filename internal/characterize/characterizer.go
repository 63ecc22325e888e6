// Package characterize excites one actuator open loop and records how it
// moves, for offline fitting of the Ks/Kv/Ka feedforward model.
package characterize

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/san-kum/flywheel/internal/dynamo"
)

type Mode int

const (
	// QuasiStatic ramps voltage slowly so acceleration is negligible.
	QuasiStatic Mode = iota
	// Dynamic applies a voltage step to excite acceleration.
	Dynamic
)

func (m Mode) String() string {
	if m == Dynamic {
		return "dynamic"
	}
	return "quasistatic"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "quasistatic", "quasi-static", "quasi", "ramp":
		return QuasiStatic, nil
	case "dynamic", "step":
		return Dynamic, nil
	}
	return 0, fmt.Errorf("unknown characterization mode: %q", s)
}

type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

func (d Direction) sign() float64 {
	if d == Reverse {
		return -1
	}
	return 1
}

// Sample is one tick of telemetry. Never mutated after capture.
type Sample struct {
	Time     time.Duration
	Voltage  float64
	Position float64
	Velocity float64
}

// Target is anything that can be driven by voltage and measured.
type Target interface {
	SetVoltage(volts float64)
	Stop()
	Velocity() float64
	Position() float64
}

// Supply is implemented by targets that report what they actually apply.
type Supply interface {
	BusVoltage() float64
	AppliedOutput() float64
}

// Settings bound the excitation.
type Settings struct {
	RampRate            float64 `yaml:"ramp_rate"`
	StepVoltage         float64 `yaml:"step_voltage"`
	MaxVoltage          float64 `yaml:"max_voltage"`
	QuasiStaticDuration float64 `yaml:"quasistatic_duration"`
	DynamicDuration     float64 `yaml:"dynamic_duration"`
}

func DefaultSettings() Settings {
	return Settings{
		RampRate:            0.25,
		StepVoltage:         7.0,
		MaxVoltage:          10.0,
		QuasiStaticDuration: 40.0,
		DynamicDuration:     3.0,
	}
}

// Log is the sample stream of one procedure on one actuator.
type Log struct {
	Actuator  string
	Mode      Mode
	Direction Direction
	samples   []Sample
}

func (l *Log) Samples() []Sample {
	out := make([]Sample, len(l.samples))
	copy(out, l.samples)
	return out
}

func (l *Log) Len() int { return len(l.samples) }

func (l *Log) append(s Sample) { l.samples = append(l.samples, s) }

// NewLog wraps previously captured samples, e.g. loaded from disk.
func NewLog(actuator string, mode Mode, dir Direction, samples []Sample) *Log {
	l := &Log{Actuator: actuator, Mode: mode, Direction: dir}
	l.samples = append(l.samples, samples...)
	return l
}

// Characterizer runs one procedure at a time. It has no feedback path.
type Characterizer struct {
	settings Settings
	clock    dynamo.Clock

	target  Target
	run     *Log
	started time.Duration
	logs    map[string][]*Log
}

func New(settings Settings, clock dynamo.Clock) *Characterizer {
	return &Characterizer{
		settings: settings,
		clock:    clock,
		logs:     make(map[string][]*Log),
	}
}

func (c *Characterizer) Active() bool { return c.run != nil }

// Current is the in-progress log, or nil.
func (c *Characterizer) Current() *Log { return c.run }

// Start begins a procedure on target, recording under actuator.
func (c *Characterizer) Start(actuator string, target Target, mode Mode, dir Direction) {
	if c.run != nil {
		c.OnCancel()
	}
	c.target = target
	c.run = &Log{Actuator: actuator, Mode: mode, Direction: dir}
	c.started = c.clock.Now()
}

// Voltage is the excitation at elapsed time t into a procedure.
func (c *Characterizer) Voltage(mode Mode, dir Direction, t time.Duration) float64 {
	v := c.settings.StepVoltage
	if mode == QuasiStatic {
		v = c.settings.RampRate * t.Seconds()
	}
	v = math.Min(v, c.settings.MaxVoltage)
	return dir.sign() * v
}

func (c *Characterizer) duration(mode Mode) time.Duration {
	d := c.settings.DynamicDuration
	if mode == QuasiStatic {
		d = c.settings.QuasiStaticDuration
	}
	return time.Duration(math.Round(d * float64(time.Second)))
}

// OnTick commands this tick's voltage and records a sample. It returns
// false once the procedure has finished.
func (c *Characterizer) OnTick() bool {
	if c.run == nil {
		return false
	}

	elapsed := c.clock.Now() - c.started
	if elapsed >= c.duration(c.run.Mode) {
		c.finish()
		return false
	}

	v := c.Voltage(c.run.Mode, c.run.Direction, elapsed)
	c.target.SetVoltage(v)

	applied := v
	if s, ok := c.target.(Supply); ok {
		applied = s.BusVoltage() * s.AppliedOutput()
	}

	c.run.append(Sample{
		Time:     elapsed,
		Voltage:  applied,
		Position: c.target.Position(),
		Velocity: c.target.Velocity(),
	})
	return true
}

// OnCancel stops the target and keeps whatever was captured.
func (c *Characterizer) OnCancel() {
	if c.run == nil {
		return
	}
	c.finish()
}

func (c *Characterizer) finish() {
	c.target.Stop()
	c.logs[c.run.Actuator] = append(c.logs[c.run.Actuator], c.run)
	c.run = nil
	c.target = nil
}

// Logs returns the completed procedures for actuator.
func (c *Characterizer) Logs(actuator string) []*Log {
	return c.logs[actuator]
}

// Actuators lists every actuator with at least one completed log.
func (c *Characterizer) Actuators() []string {
	names := make([]string, 0, len(c.logs))
	for k := range c.logs {
		names = append(names, k)
	}
	return names
}
