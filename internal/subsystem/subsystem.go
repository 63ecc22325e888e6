// Package subsystem arbitrates the shooter hardware between the shot
// sequencer and the characterizer. When neither holds it, every tick runs
// the safety stop.
package subsystem

import (
	"fmt"
	"log"

	"github.com/san-kum/flywheel/internal/characterize"
	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/motor"
	"github.com/san-kum/flywheel/internal/params"
	"github.com/san-kum/flywheel/internal/shooter"
	"github.com/san-kum/flywheel/internal/telemetry"
)

type Owner int

const (
	NoOwner Owner = iota
	ShotOwner
	CharacterizationOwner
)

func (o Owner) String() string {
	switch o {
	case ShotOwner:
		return "shot"
	case CharacterizationOwner:
		return "characterization"
	}
	return "none"
}

// Actuator names used for characterization.
const (
	Top    = "top"
	Bottom = "bottom"
)

// PhaseStopped and PhaseCharacterizing label snapshots taken outside a shot.
const (
	PhaseStopped        = "Stopped"
	PhaseCharacterizing = "Characterizing"
)

type Subsystem struct {
	group *motor.Group
	seq   *shooter.Sequencer
	char  *characterize.Characterizer
	sink  telemetry.Sink
	clock dynamo.Clock

	owner Owner
}

func New(group *motor.Group, seq *shooter.Sequencer, char *characterize.Characterizer, sink telemetry.Sink, clock dynamo.Clock, logger *log.Logger) *Subsystem {
	if sink == nil {
		sink = telemetry.Discard
	}
	if logger != nil {
		logger.Printf("CAN IDs:")
		for _, ch := range group.Channels() {
			logger.Printf("\t%s", ch)
		}
	}
	return &Subsystem{
		group: group,
		seq:   seq,
		char:  char,
		sink:  sink,
		clock: clock,
	}
}

func (s *Subsystem) Owner() Owner { return s.owner }

func (s *Subsystem) Sequencer() *shooter.Sequencer { return s.seq }

func (s *Subsystem) Characterizer() *characterize.Characterizer { return s.char }

func (s *Subsystem) Group() *motor.Group { return s.group }

// StartShot hands the wheels to the sequencer, cancelling any
// characterization first.
func (s *Subsystem) StartShot() {
	if s.owner == CharacterizationOwner {
		s.stopCharacterization()
	}
	s.seq.OnStart()
	s.owner = ShotOwner
}

// StartCharacterization releases one wheel to the characterizer, cancelling
// any shot first.
func (s *Subsystem) StartCharacterization(actuator string, mode characterize.Mode, dir characterize.Direction) error {
	role, err := roleOf(actuator)
	if err != nil {
		return err
	}
	if s.owner == ShotOwner {
		s.seq.OnCancel()
	}
	if s.owner == CharacterizationOwner {
		s.stopCharacterization()
	}

	a, err := s.group.Release(role)
	if err != nil {
		s.owner = NoOwner
		return fmt.Errorf("characterize %s: %w", actuator, err)
	}
	s.char.Start(actuator, a, mode, dir)
	s.owner = CharacterizationOwner
	s.sink.PublishString(params.Status, fmt.Sprintf("Characterizing %s (%s %s)", actuator, mode, dir))
	return nil
}

func roleOf(actuator string) (motor.Role, error) {
	switch actuator {
	case Top:
		return motor.Leader, nil
	case Bottom:
		return motor.Follower, nil
	}
	return 0, fmt.Errorf("%q: %w", actuator, dynamo.ErrUnknownActuator)
}

// Cancel drops whichever owner holds the wheels. The safety stop takes over
// in the same call.
func (s *Subsystem) Cancel() {
	switch s.owner {
	case ShotOwner:
		s.seq.OnCancel()
	case CharacterizationOwner:
		s.stopCharacterization()
	}
	s.owner = NoOwner
	s.safetyStop()
}

func (s *Subsystem) stopCharacterization() {
	s.char.OnCancel()
	s.group.Restore()
	s.owner = NoOwner
}

// OnTick runs the current owner, or the safety stop when there is none.
func (s *Subsystem) OnTick() {
	switch s.owner {
	case ShotOwner:
		s.seq.OnTick()
		if !s.seq.Active() {
			s.owner = NoOwner
		}
	case CharacterizationOwner:
		if !s.char.OnTick() {
			s.group.Restore()
			s.owner = NoOwner
		}
	}

	if s.owner == NoOwner {
		s.safetyStop()
	}
}

func (s *Subsystem) safetyStop() {
	s.group.Stop()
	s.sink.PublishString(params.Status, shooter.StatusStopped)
}

// Periodic publishes wheel telemetry regardless of owner.
func (s *Subsystem) Periodic() {
	s.sink.PublishNumber(params.Velocity, s.group.Velocity())
}

// Snapshot captures the outputs and measurements of the current tick.
func (s *Subsystem) Snapshot() dynamo.Snapshot {
	leader, follower, feeder := s.group.Outputs()
	snap := dynamo.Snapshot{
		Time:     s.clock.Now(),
		Phase:    PhaseStopped,
		Velocity: s.group.Velocity(),
		Leader:   leader,
		Follower: follower,
		Feeder:   feeder,
	}
	switch s.owner {
	case ShotOwner:
		snap.Phase = s.seq.State().String()
		snap.Setpoint = s.seq.Setpoint()
	case CharacterizationOwner:
		snap.Phase = PhaseCharacterizing
	}
	return snap
}
