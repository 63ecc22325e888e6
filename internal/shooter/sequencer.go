// Package shooter sequences a shot: spin the wheels up, feed the game
// piece, and return to idle.
package shooter

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/params"
	"github.com/san-kum/flywheel/internal/telemetry"
)

// Status strings published while sequencing.
const (
	StatusSpinningUp = "Spinning up..."
	StatusFeeding    = "Feeding"
	StatusDone       = "Shot complete"
	StatusStopped    = "Stopped shooting"
)

// Wheels is what the sequencer needs from the motor group.
type Wheels interface {
	SetVelocity(target float64)
	SetDuty(duty float64)
	AtSetpoint(tolerance float64) bool
	Feed(duty float64)
	Stop()
	Reset()
}

// Sequencer is the Idle -> SpinningUp -> Feeding -> Done state machine. It
// is driven by the host's lifecycle hooks and never blocks.
type Sequencer struct {
	cfg      Config
	wheels   Wheels
	store    *params.Store
	defaults params.Defaults
	sink     telemetry.Sink
	clock    dynamo.Clock

	state    State
	entered  time.Duration
	setpoint float64

	listeners []func(from, to State)
}

func New(cfg Config, wheels Wheels, store *params.Store, defaults params.Defaults, sink telemetry.Sink, clock dynamo.Clock) (*Sequencer, error) {
	if cfg.SpinUp == RawDuty && cfg.Transition == ToleranceBased {
		return nil, &dynamo.ConfigError{Field: "transition", Value: cfg.Transition, Wrapped: dynamo.ErrInvalidPolicy}
	}
	if cfg.DoneDelay && !cfg.UseDone {
		return nil, &dynamo.ConfigError{Field: "done_delay", Value: cfg.DoneDelay, Wrapped: dynamo.ErrInvalidPolicy}
	}
	if sink == nil {
		sink = telemetry.Discard
	}
	return &Sequencer{
		cfg:      cfg,
		wheels:   wheels,
		store:    store,
		defaults: defaults,
		sink:     sink,
		clock:    clock,
	}, nil
}

// OnTransition registers fn to run on every state change.
func (s *Sequencer) OnTransition(fn func(from, to State)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Sequencer) State() State { return s.state }

// Active reports whether a shot holds the wheels.
func (s *Sequencer) Active() bool { return s.state != Idle }

// Setpoint is the last applied command: rad/s in closed loop, duty otherwise.
func (s *Sequencer) Setpoint() float64 { return s.setpoint }

// Elapsed is the time spent in the current state.
func (s *Sequencer) Elapsed() time.Duration {
	return s.clock.Now() - s.entered
}

func (s *Sequencer) Config() Config { return s.cfg }

// OnStart begins a new shot. A shot already in progress restarts from
// SpinningUp with fresh loop state.
func (s *Sequencer) OnStart() {
	s.wheels.Reset()
	s.enter(SpinningUp)
	s.sink.PublishString(params.Status, StatusSpinningUp)
	s.applySetpoint(s.defaults.ReadShot(s.store))
}

// OnTick advances the machine by one control period. Parameters are read
// fresh every call.
func (s *Sequencer) OnTick() {
	shot := s.defaults.ReadShot(s.store)

	switch s.state {
	case Idle:
		return
	case SpinningUp:
		s.applySetpoint(shot)
		if s.spunUp(shot) {
			s.enter(Feeding)
			s.sink.PublishString(params.Status, StatusFeeding)
			s.wheels.Feed(shot.FeedSpeed)
		}
	case Feeding:
		s.applySetpoint(shot)
		s.wheels.Feed(shot.FeedSpeed)
		if s.cfg.Feed == FeedTimed && s.Elapsed() >= seconds(shot.FeedTime) {
			s.finish()
		}
	case Done:
		s.stop()
	}
}

// OnCancel forces Idle and stops every actuator immediately.
func (s *Sequencer) OnCancel() {
	s.stop()
}

func (s *Sequencer) spunUp(shot params.Shot) bool {
	if s.cfg.Transition == ToleranceBased {
		return s.wheels.AtSetpoint(shot.VelocityTolerance)
	}
	return s.Elapsed() >= seconds(shot.SpinUpTime)
}

func (s *Sequencer) applySetpoint(shot params.Shot) {
	if s.cfg.SpinUp == RawDuty {
		s.setpoint = math.Max(-1, math.Min(1, shot.MotorSpeed))
		s.wheels.SetDuty(s.setpoint)
	} else {
		s.setpoint = shot.MotorSpeed * 2.0 * math.Pi
		s.wheels.SetVelocity(s.setpoint)
	}
	s.sink.PublishNumber(params.Setpoint, s.setpoint)
}

func (s *Sequencer) finish() {
	if !s.cfg.UseDone {
		s.stop()
		return
	}
	s.wheels.Stop()
	s.enter(Done)
	s.sink.PublishString(params.Status, StatusDone)
	if !s.cfg.DoneDelay {
		s.stop()
	}
}

func (s *Sequencer) stop() {
	s.wheels.Stop()
	s.setpoint = 0
	s.enter(Idle)
	s.sink.PublishString(params.Status, StatusStopped)
}

func (s *Sequencer) enter(next State) {
	prev := s.state
	s.state = next
	s.entered = s.clock.Now()
	if prev == next {
		return
	}
	for _, fn := range s.listeners {
		fn(prev, next)
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(math.Round(v * float64(time.Second)))
}

func (s *Sequencer) String() string {
	return fmt.Sprintf("%s (%s/%s/%s)", s.state, s.cfg.SpinUp, s.cfg.Transition, s.cfg.Feed)
}
