package config

import (
	"sort"

	"github.com/san-kum/flywheel/internal/motor"
	"github.com/san-kum/flywheel/internal/shooter"
)

// Presets are the sequencing variants the robot went through, newest last.
var Presets = map[string]func(*Config){
	// open-loop wheels, feed after a fixed delay, feed until released
	"raw-timed": func(c *Config) {
		c.Sequence = shooter.Config{SpinUp: shooter.RawDuty, Transition: shooter.TimeBased, Feed: shooter.FeedUntilCancelled}
		c.Defaults.MotorSpeed = 0.8
	},
	// velocity loop, feed once inside the tolerance band, feed until released
	"velocity-tolerance": func(c *Config) {
		c.Sequence = shooter.Config{SpinUp: shooter.ClosedLoop, Transition: shooter.ToleranceBased, Feed: shooter.FeedUntilCancelled}
	},
	// velocity loop with fixed spin-up and feed timers
	"velocity-timed": func(c *Config) {
		c.Sequence = shooter.Config{SpinUp: shooter.ClosedLoop, Transition: shooter.TimeBased, Feed: shooter.FeedTimed, UseDone: true}
	},
	// tolerance spin-up, timed feed, self-resetting done
	"velocity-tolerance-timed": func(c *Config) {
		c.Sequence = shooter.Config{SpinUp: shooter.ClosedLoop, Transition: shooter.ToleranceBased, Feed: shooter.FeedTimed, UseDone: true}
	},
	// separate loops for top and bottom wheels
	"dual-loop": func(c *Config) {
		c.Coupling = motor.Independent
		c.Channels[1].Inverted = false
		c.Sequence = shooter.Config{SpinUp: shooter.ClosedLoop, Transition: shooter.ToleranceBased, Feed: shooter.FeedTimed, UseDone: true, DoneDelay: true}
		c.Plant.Bottom = WheelConfig{Ks: 0.12, Kv: 0.125, Ka: 0.13}
	},
}

// GetPreset returns the default config with the named preset applied, or
// nil for an unknown name.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
