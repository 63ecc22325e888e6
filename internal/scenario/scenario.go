// Package scenario drives the simulated shooter from scripted timelines:
// operator button presses, dashboard edits, battery sag and plant changes
// at fixed times.
package scenario

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/flywheel/internal/characterize"
	"github.com/san-kum/flywheel/internal/config"
	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/experiment"
	"github.com/san-kum/flywheel/internal/hal"
	"github.com/san-kum/flywheel/internal/loop"
	"github.com/san-kum/flywheel/internal/motor"
	"github.com/san-kum/flywheel/internal/shooter"
	"github.com/san-kum/flywheel/internal/subsystem"
)

const (
	ActionStart        = "start"
	ActionCancel       = "cancel"
	ActionSet          = "set"
	ActionCharacterize = "characterize"
	ActionBus          = "bus"
	ActionPlant        = "plant"
)

// Scenario defines a scripted run against one rig.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Preset      string  `yaml:"preset"`
	Duration    float64 `yaml:"duration"`
	Events      []Event `yaml:"events"`
	Checks      []Check `yaml:"checks"`
}

// Event happens on the first tick at or after At seconds.
type Event struct {
	At     float64 `yaml:"at"`
	Action string  `yaml:"action"`
	// set
	Param string  `yaml:"param"`
	Value float64 `yaml:"value"`
	// characterize
	Actuator string `yaml:"actuator"`
	Mode     string `yaml:"mode"`
	Reverse  bool   `yaml:"reverse"`
}

// Check asserts the sequencer phase at a point in time.
type Check struct {
	At    float64 `yaml:"at"`
	Phase string  `yaml:"phase"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) Validate() error {
	if sc.Duration <= 0 {
		return fmt.Errorf("scenario %q: duration must be positive", sc.Name)
	}
	for i, ev := range sc.Events {
		if ev.At < 0 || ev.At > sc.Duration {
			return fmt.Errorf("event %d: time %.3f outside [0, %.3f]", i+1, ev.At, sc.Duration)
		}
		switch ev.Action {
		case ActionStart, ActionCancel, ActionBus:
		case ActionSet:
			if ev.Param == "" {
				return fmt.Errorf("event %d: set needs a param", i+1)
			}
		case ActionPlant:
			if ev.Param == "" || ev.Actuator == "" {
				return fmt.Errorf("event %d: plant needs an actuator and a param", i+1)
			}
		case ActionCharacterize:
			if ev.Actuator == "" {
				return fmt.Errorf("event %d: characterize needs an actuator", i+1)
			}
			if _, err := characterize.ParseMode(ev.Mode); err != nil {
				return fmt.Errorf("event %d: %w", i+1, err)
			}
		default:
			return fmt.Errorf("event %d: unknown action %q", i+1, ev.Action)
		}
	}
	return nil
}

// Fired records an event as it happened.
type Fired struct {
	Tick  int
	Time  time.Duration
	Event Event
	Err   error
}

type Outcome struct {
	Result   *loop.Result
	Fired    []Fired
	Failures []string
	Rig      *experiment.Rig
}

// Passed reports whether every check held and every event applied cleanly.
func (o *Outcome) Passed() bool {
	if len(o.Failures) > 0 {
		return false
	}
	for _, f := range o.Fired {
		if f.Err != nil {
			return false
		}
	}
	return true
}

func tickOf(at float64, period time.Duration) int {
	return int(math.Round(at * float64(time.Second) / float64(period)))
}

// RunScenario builds a rig from base (or the scenario's preset) and plays the
// timeline against it.
func RunScenario(ctx context.Context, sc *Scenario, base *config.Config, logger *log.Logger) (*Outcome, error) {
	cfg := base
	if sc.Preset != "" {
		cfg = config.GetPreset(sc.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", sc.Preset)
		}
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	rig, err := experiment.Build(cfg, experiment.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	period := rig.Period()

	byTick := make(map[int][]Event)
	for _, ev := range sc.Events {
		t := tickOf(ev.At, period)
		byTick[t] = append(byTick[t], ev)
	}

	out := &Outcome{Rig: rig}
	rig.Runner.AddHook(func(tick int, now time.Duration) {
		for _, ev := range byTick[tick] {
			err := apply(rig, ev)
			out.Fired = append(out.Fired, Fired{Tick: tick, Time: now, Event: ev, Err: err})
			if logger != nil {
				if err != nil {
					logger.Printf("t=%.3fs %s failed: %v", now.Seconds(), ev.Action, err)
				} else {
					logger.Printf("t=%.3fs %s", now.Seconds(), describe(ev))
				}
			}
		}
	})

	// one extra tick so an event scheduled at the very end still fires
	limit := time.Duration(tickOf(sc.Duration, period)+1) * period
	result, err := rig.Runner.Run(ctx, loop.Config{Period: period, Duration: limit})
	out.Result = result
	if err != nil {
		return out, err
	}

	out.Failures = check(sc.Checks, result, period)
	return out, nil
}

func apply(rig *experiment.Rig, ev Event) error {
	switch ev.Action {
	case ActionStart:
		rig.Subsystem.StartShot()
	case ActionCancel:
		rig.Subsystem.Cancel()
	case ActionSet:
		rig.Store.Set(ev.Param, ev.Value)
	case ActionBus:
		for _, m := range rig.Bench.Motors {
			m.SetBusVoltage(ev.Value)
		}
	case ActionPlant:
		return setPlant(rig, ev.Actuator, ev.Param, ev.Value)
	case ActionCharacterize:
		mode, err := characterize.ParseMode(ev.Mode)
		if err != nil {
			return err
		}
		dir := characterize.Forward
		if ev.Reverse {
			dir = characterize.Reverse
		}
		return rig.Subsystem.StartCharacterization(ev.Actuator, mode, dir)
	}
	return nil
}

// setPlant changes a constant of the simulated wheel behind an actuator
// (top, bottom or feeder) while the rig runs.
func setPlant(rig *experiment.Rig, actuator, param string, value float64) error {
	role := motor.Feeder
	switch strings.ToLower(actuator) {
	case subsystem.Top:
		role = motor.Leader
	case subsystem.Bottom:
		role = motor.Follower
	case "feeder":
	default:
		return fmt.Errorf("%q: %w", actuator, dynamo.ErrUnknownActuator)
	}
	sim, ok := rig.Group.Actuator(role).(*hal.SimMotor)
	if !ok {
		return fmt.Errorf("%s: %w", actuator, dynamo.ErrUnknownActuator)
	}
	plant, ok := sim.Plant().(dynamo.Configurable)
	if !ok {
		return fmt.Errorf("%s: plant has no parameters", actuator)
	}
	return plant.SetParam(strings.ToLower(param), value)
}

func describe(ev Event) string {
	switch ev.Action {
	case ActionSet:
		return fmt.Sprintf("set %s = %g", ev.Param, ev.Value)
	case ActionBus:
		return fmt.Sprintf("bus %.2f V", ev.Value)
	case ActionPlant:
		return fmt.Sprintf("plant %s %s = %g", ev.Actuator, ev.Param, ev.Value)
	case ActionCharacterize:
		return fmt.Sprintf("characterize %s %s reverse=%v", ev.Actuator, ev.Mode, ev.Reverse)
	}
	return ev.Action
}

func check(checks []Check, result *loop.Result, period time.Duration) []string {
	failures := make([]string, 0)
	for _, c := range checks {
		tick := tickOf(c.At, period)
		if tick >= len(result.Snapshots) {
			failures = append(failures, fmt.Sprintf("t=%.3fs: run ended at tick %d", c.At, len(result.Snapshots)-1))
			continue
		}
		got := result.Snapshots[tick].Phase
		if !strings.EqualFold(got, c.Phase) {
			failures = append(failures, fmt.Sprintf("t=%.3fs: phase %s, want %s", c.At, got, c.Phase))
		}
	}
	return failures
}

func reachedFeeding(snaps []dynamo.Snapshot) bool {
	for _, s := range snaps {
		if s.Phase == shooter.Feeding.String() {
			return true
		}
	}
	return false
}
