// Package motor drives the shooter's actuators as one group: the flywheel
// leader, an optional second flywheel, and the feeder.
package motor

import (
	"fmt"
	"strings"
)

type Role int

const (
	Leader Role = iota
	Follower
	Feeder
)

func (r Role) String() string {
	switch r {
	case Leader:
		return "leader"
	case Follower:
		return "follower"
	case Feeder:
		return "feeder"
	}
	return "unknown"
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "leader":
		return Leader, nil
	case "follower":
		return Follower, nil
	case "feeder":
		return Feeder, nil
	}
	return 0, fmt.Errorf("unknown motor role: %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Coupling selects how the follower tracks the leader.
type Coupling int

const (
	// Coupled mirrors the leader's output in the motor controller.
	Coupled Coupling = iota
	// Independent runs a separate velocity loop per wheel.
	Independent
)

func (c Coupling) String() string {
	switch c {
	case Coupled:
		return "coupled"
	case Independent:
		return "independent"
	}
	return "unknown"
}

func ParseCoupling(s string) (Coupling, error) {
	switch strings.ToLower(s) {
	case "coupled", "follow":
		return Coupled, nil
	case "independent", "dual":
		return Independent, nil
	}
	return 0, fmt.Errorf("unknown coupling policy: %q", s)
}

func (c Coupling) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Coupling) UnmarshalText(b []byte) error {
	v, err := ParseCoupling(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Channel is one motor controller on the bus. Immutable after startup.
type Channel struct {
	ID       int  `yaml:"id"`
	Role     Role `yaml:"role"`
	Inverted bool `yaml:"inverted"`
}

func (c Channel) String() string {
	inv := ""
	if c.Inverted {
		inv = " (inverted)"
	}
	return fmt.Sprintf("%s motor: %d%s", c.Role, c.ID, inv)
}
