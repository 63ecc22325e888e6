package shooter

import (
	"fmt"
	"strings"
)

// State is the sequencer phase.
type State int

const (
	Idle State = iota
	SpinningUp
	Feeding
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case SpinningUp:
		return "SpinningUp"
	case Feeding:
		return "Feeding"
	case Done:
		return "Done"
	}
	return "Unknown"
}

// SpinUp selects how the wheel setpoint is applied.
type SpinUp int

const (
	// ClosedLoop treats Motor Speed as rotations per second and runs the
	// velocity loop.
	ClosedLoop SpinUp = iota
	// RawDuty treats Motor Speed as a duty cycle in [-1, 1].
	RawDuty
)

// Transition selects when SpinningUp hands over to Feeding.
type Transition int

const (
	// TimeBased waits for the Spin-up Time parameter.
	TimeBased Transition = iota
	// ToleranceBased waits for the wheel to reach the tolerance band.
	ToleranceBased
)

// Feed selects how Feeding ends.
type Feed int

const (
	// FeedTimed leaves Feeding after the Feed Time parameter.
	FeedTimed Feed = iota
	// FeedUntilCancelled feeds until the command is cancelled.
	FeedUntilCancelled
)

var (
	spinUpNames     = map[SpinUp]string{ClosedLoop: "closed_loop", RawDuty: "raw_duty"}
	transitionNames = map[Transition]string{TimeBased: "time", ToleranceBased: "tolerance"}
	feedNames       = map[Feed]string{FeedTimed: "timed", FeedUntilCancelled: "until_cancelled"}
)

func (s SpinUp) String() string     { return spinUpNames[s] }
func (t Transition) String() string { return transitionNames[t] }
func (f Feed) String() string       { return feedNames[f] }

func parseName[T comparable](kind, s string, names map[T]string) (T, error) {
	for k, v := range names {
		if strings.EqualFold(v, s) {
			return k, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s: %q", kind, s)
}

func (s SpinUp) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *SpinUp) UnmarshalText(b []byte) (err error) {
	*s, err = parseName("spin-up mode", string(b), spinUpNames)
	return err
}

func (t Transition) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
func (t *Transition) UnmarshalText(b []byte) (err error) {
	*t, err = parseName("transition policy", string(b), transitionNames)
	return err
}

func (f Feed) MarshalText() ([]byte, error) { return []byte(f.String()), nil }
func (f *Feed) UnmarshalText(b []byte) (err error) {
	*f, err = parseName("feed policy", string(b), feedNames)
	return err
}

// Config is the construction-time choice among the sequence variants.
type Config struct {
	SpinUp     SpinUp     `yaml:"spin_up"`
	Transition Transition `yaml:"transition"`
	Feed       Feed       `yaml:"feed"`
	// UseDone passes through Done on the way back to Idle.
	UseDone bool `yaml:"use_done"`
	// DoneDelay holds Done until the next tick instead of returning to
	// Idle on the tick that entered it.
	DoneDelay bool `yaml:"done_delay"`
}
