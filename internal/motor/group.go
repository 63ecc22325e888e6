package motor

import (
	"fmt"

	"github.com/san-kum/flywheel/internal/control"
	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/hal"
)

// Opener connects to the controller for one channel.
type Opener func(ch Channel) hal.Actuator

// Group owns every shooter actuator. Only one owner (sequencer or
// characterizer) commands it at a time; the subsystem enforces that.
type Group struct {
	coupling Coupling

	channels map[Role]Channel
	leader   hal.Actuator
	follower hal.Actuator
	feeder   hal.Actuator

	leaderLoop   *control.Velocity
	followerLoop *control.Velocity

	released bool
}

// Validate checks a channel layout: unique ids, exactly one leader and
// feeder, at most one follower, and a follower when running independent
// loops.
func Validate(coupling Coupling, channels []Channel) error {
	seen := make(map[int]bool)
	roles := make(map[Role]int)
	for _, ch := range channels {
		if seen[ch.ID] {
			return &dynamo.ConfigError{Field: "channel.id", Value: ch.ID, Wrapped: dynamo.ErrDuplicateChannel}
		}
		seen[ch.ID] = true
		roles[ch.Role]++
		if roles[ch.Role] > 1 {
			return &dynamo.ConfigError{Field: "channel.role", Value: ch.Role, Wrapped: dynamo.ErrRoleConflict}
		}
	}
	for _, r := range []Role{Leader, Feeder} {
		if roles[r] == 0 {
			return &dynamo.ConfigError{Field: "channel.role", Value: r, Wrapped: dynamo.ErrRoleUnassigned}
		}
	}
	if coupling == Independent && roles[Follower] == 0 {
		return &dynamo.ConfigError{Field: "coupling", Value: coupling, Wrapped: dynamo.ErrRoleUnassigned}
	}
	return nil
}

// New validates the layout, opens every channel and applies inversion and
// hardware follow. Each wheel gets its own loop built from gains.
func New(coupling Coupling, gains control.Gains, channels []Channel, open Opener) (*Group, error) {
	if err := Validate(coupling, channels); err != nil {
		return nil, fmt.Errorf("motor group: %w", err)
	}

	g := &Group{
		coupling:   coupling,
		channels:   make(map[Role]Channel),
		leaderLoop: control.NewVelocity(gains),
	}

	for _, ch := range channels {
		g.channels[ch.Role] = ch
		a := open(ch)
		if a == nil {
			return nil, fmt.Errorf("motor group: open %s: %w", ch, dynamo.ErrUnknownActuator)
		}
		switch ch.Role {
		case Leader:
			g.leader = a
		case Follower:
			g.follower = a
		case Feeder:
			g.feeder = a
		}
	}

	g.leader.SetInverted(g.channels[Leader].Inverted)
	g.feeder.SetInverted(g.channels[Feeder].Inverted)
	if g.follower != nil {
		if coupling == Independent {
			g.followerLoop = control.NewVelocity(gains)
		}
		g.attachFollower()
	}
	return g, nil
}

func (g *Group) attachFollower() {
	ch := g.channels[Follower]
	if g.coupling == Coupled {
		g.follower.SetInverted(false)
		g.follower.Follow(g.leader, ch.Inverted)
		return
	}
	g.follower.Follow(nil, false)
	g.follower.SetInverted(ch.Inverted)
}

func (g *Group) Coupling() Coupling { return g.coupling }

func (g *Group) HasFollower() bool { return g.follower != nil }

// Channels returns the layout in role order.
func (g *Group) Channels() []Channel {
	out := make([]Channel, 0, len(g.channels))
	for _, r := range []Role{Leader, Follower, Feeder} {
		if ch, ok := g.channels[r]; ok {
			out = append(out, ch)
		}
	}
	return out
}

// SetVelocity runs the velocity loop(s) against target rad/s.
func (g *Group) SetVelocity(target float64) {
	g.leader.SetVoltage(g.leaderLoop.Calculate(target, g.leader.Velocity()))
	if g.coupling == Independent {
		g.follower.SetVoltage(g.followerLoop.Calculate(target, g.follower.Velocity()))
	}
}

// SetDuty drives the wheels open loop.
func (g *Group) SetDuty(duty float64) {
	g.leader.SetDutyCycle(duty)
	if g.coupling == Independent {
		g.follower.SetDutyCycle(duty)
	}
}

// Feed drives the feeder open loop. The feeder is never velocity controlled.
func (g *Group) Feed(duty float64) {
	g.feeder.SetDutyCycle(duty)
}

// AtSetpoint reports whether every closed-loop wheel is within tolerance of
// the target it was last commanded.
func (g *Group) AtSetpoint(tolerance float64) bool {
	if !g.leaderLoop.AtSetpoint(tolerance) {
		return false
	}
	if g.coupling == Independent {
		return g.followerLoop.AtSetpoint(tolerance)
	}
	return true
}

// Reset clears loop state; called on every sequence start.
func (g *Group) Reset() {
	g.leaderLoop.Reset()
	if g.followerLoop != nil {
		g.followerLoop.Reset()
	}
}

// Stop zeroes every actuator. Idempotent.
func (g *Group) Stop() {
	g.leader.Stop()
	if g.follower != nil {
		g.follower.Stop()
	}
	g.feeder.Stop()
}

// StopFeeder zeroes only the feeder.
func (g *Group) StopFeeder() {
	g.feeder.Stop()
}

// Velocity is the leader wheel speed in rad/s.
func (g *Group) Velocity() float64 { return g.leader.Velocity() }

// FollowerVelocity is the second wheel's speed, or zero without one.
func (g *Group) FollowerVelocity() float64 {
	if g.follower == nil {
		return 0
	}
	return g.follower.Velocity()
}

// Outputs returns the applied volts of leader, follower and feeder.
func (g *Group) Outputs() (leader, follower, feeder float64) {
	leader = volts(g.leader)
	if g.follower != nil {
		follower = volts(g.follower)
	}
	feeder = volts(g.feeder)
	return
}

func volts(a hal.Actuator) float64 {
	return a.AppliedOutput() * a.BusVoltage()
}

// Actuator returns the actuator bound to role, or nil.
func (g *Group) Actuator(r Role) hal.Actuator {
	switch r {
	case Leader:
		return g.leader
	case Follower:
		return g.follower
	case Feeder:
		return g.feeder
	}
	return nil
}

// Release hands one wheel to a direct-drive owner. A coupled follower is
// detached from the leader either way, so only the released wheel moves.
func (g *Group) Release(r Role) (hal.Actuator, error) {
	a := g.Actuator(r)
	if a == nil || r == Feeder {
		return nil, fmt.Errorf("release %s: %w", r, dynamo.ErrUnknownActuator)
	}
	if g.follower != nil && g.coupling == Coupled {
		g.follower.Follow(nil, false)
		g.follower.SetInverted(g.channels[Follower].Inverted)
	}
	g.Stop()
	g.released = true
	return a, nil
}

// Restore undoes Release and leaves every actuator stopped.
func (g *Group) Restore() {
	if !g.released {
		return
	}
	g.Stop()
	if g.follower != nil {
		g.attachFollower()
	}
	g.released = false
}

// Loops returns the velocity controllers; follower is nil when coupled.
func (g *Group) Loops() (leader, follower *control.Velocity) {
	return g.leaderLoop, g.followerLoop
}
