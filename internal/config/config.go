package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/flywheel/internal/characterize"
	"github.com/san-kum/flywheel/internal/control"
	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/hal"
	"github.com/san-kum/flywheel/internal/integrators"
	"github.com/san-kum/flywheel/internal/motor"
	"github.com/san-kum/flywheel/internal/params"
	"github.com/san-kum/flywheel/internal/physics"
	"github.com/san-kum/flywheel/internal/shooter"
)

const (
	DefaultTickPeriod = 0.02

	TopShooterCanID    = 32
	BottomShooterCanID = 33
	FeederCanID        = 31

	DefaultKs        = 0.0
	DefaultKv        = 0.12128
	DefaultKa        = 0.10706
	DefaultKp        = 0.00018357
	DefaultKd        = 0.0
	DefaultTolerance = 8.0
)

type Config struct {
	TickPeriod       float64               `yaml:"tick_period"`
	Coupling         motor.Coupling        `yaml:"coupling"`
	Channels         []motor.Channel       `yaml:"channels"`
	Gains            control.Gains         `yaml:"gains"`
	Sequence         shooter.Config        `yaml:"sequence"`
	Defaults         params.Defaults       `yaml:"defaults"`
	Characterization characterize.Settings `yaml:"characterization"`
	Encoder          hal.Encoder           `yaml:"encoder"`
	Plant            PlantConfig           `yaml:"plant"`
	Telemetry        TelemetryConfig       `yaml:"telemetry"`
}

// PlantConfig describes the simulated wheels. Bottom falls back to Top when
// left zero.
type PlantConfig struct {
	Top        WheelConfig `yaml:"top"`
	Bottom     WheelConfig `yaml:"bottom"`
	Feeder     WheelConfig `yaml:"feeder"`
	BusVoltage float64     `yaml:"bus_voltage"`
	// Integrator steps the plant: rk4 (default) or euler.
	Integrator string `yaml:"integrator"`
}

type WheelConfig struct {
	Ks float64 `yaml:"ks"`
	Kv float64 `yaml:"kv"`
	Ka float64 `yaml:"ka"`
}

func (w WheelConfig) IsZero() bool { return w == WheelConfig{} }

// Flywheel builds the plant model for this wheel.
func (w WheelConfig) Flywheel() *physics.Flywheel {
	return &physics.Flywheel{Ks: w.Ks, Kv: w.Kv, Ka: w.Ka}
}

type TelemetryConfig struct {
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`
	Verbose    bool   `yaml:"verbose"`
}

func DefaultConfig() *Config {
	return &Config{
		TickPeriod: DefaultTickPeriod,
		Coupling:   motor.Coupled,
		Channels: []motor.Channel{
			{ID: TopShooterCanID, Role: motor.Leader},
			{ID: BottomShooterCanID, Role: motor.Follower, Inverted: true},
			{ID: FeederCanID, Role: motor.Feeder},
		},
		Gains: control.Gains{
			Ks: DefaultKs,
			Kv: DefaultKv,
			Ka: DefaultKa,
			Kp: DefaultKp,
			Kd: DefaultKd,
		},
		Sequence: shooter.Config{
			SpinUp:     shooter.ClosedLoop,
			Transition: shooter.ToleranceBased,
			Feed:       shooter.FeedUntilCancelled,
		},
		Defaults: params.Defaults{
			MotorSpeed:        12.0,
			FeedSpeed:         0.5,
			SpinUpTime:        2.0,
			FeedTime:          1.0,
			VelocityTolerance: DefaultTolerance,
		},
		Characterization: characterize.DefaultSettings(),
		Encoder:          hal.DefaultEncoder(),
		Plant: PlantConfig{
			Top:        WheelConfig{Ks: physics.DefaultKs, Kv: physics.DefaultKv, Ka: physics.DefaultKa},
			Feeder:     WheelConfig{Ks: 0.1, Kv: 0.02, Ka: 0.01},
			BusVoltage: hal.NominalBusVoltage,
		},
		Telemetry: TelemetryConfig{
			BaudRate: 115200,
		},
	}
}

// Validate enforces every static invariant. The subsystem refuses to start
// on error.
func (c *Config) Validate() error {
	if c.TickPeriod <= 0 {
		return &dynamo.ConfigError{Field: "tick_period", Value: c.TickPeriod, Wrapped: dynamo.ErrParameterBounds}
	}
	if err := motor.Validate(c.Coupling, c.Channels); err != nil {
		return err
	}
	if c.Sequence.SpinUp == shooter.RawDuty && c.Sequence.Transition == shooter.ToleranceBased {
		return &dynamo.ConfigError{Field: "sequence.transition", Value: c.Sequence.Transition, Wrapped: dynamo.ErrInvalidPolicy}
	}
	if c.Sequence.DoneDelay && !c.Sequence.UseDone {
		return &dynamo.ConfigError{Field: "sequence.done_delay", Value: true, Wrapped: dynamo.ErrInvalidPolicy}
	}
	if c.Characterization.MaxVoltage <= 0 {
		return &dynamo.ConfigError{Field: "characterization.max_voltage", Value: c.Characterization.MaxVoltage, Wrapped: dynamo.ErrParameterBounds}
	}
	if c.Plant.Top.Kv <= 0 || c.Plant.Top.Ka <= 0 {
		return &dynamo.ConfigError{Field: "plant.top", Value: c.Plant.Top, Wrapped: dynamo.ErrParameterBounds}
	}
	if _, err := integrators.Get(c.Plant.Integrator); err != nil {
		return &dynamo.ConfigError{Field: "plant.integrator", Value: c.Plant.Integrator, Wrapped: err}
	}
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BottomPlant returns the bottom wheel plant, defaulting to the top one.
func (c *Config) BottomPlant() WheelConfig {
	if c.Plant.Bottom.IsZero() {
		return c.Plant.Top
	}
	return c.Plant.Bottom
}
