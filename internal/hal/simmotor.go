package hal

import (
	"math"

	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/integrators"
	"github.com/san-kum/flywheel/internal/physics"
)

const (
	NominalBusVoltage = 12.0
	defaultSubsteps   = 4
)

type outputMode int

const (
	modeDuty outputMode = iota
	modeVoltage
)

// SimMotor is an Actuator whose shaft is a simulated flywheel. Voltage
// commands are compensated against the bus voltage like a real controller's
// voltage mode.
type SimMotor struct {
	id       int
	plant    dynamo.System
	integ    dynamo.Integrator
	encoder  Encoder
	bus      float64
	substeps int

	state    dynamo.State
	t        float64
	mode     outputMode
	command  float64
	inverted bool

	leader       Actuator
	invertFollow bool
}

func NewSimMotor(id int, plant dynamo.System, encoder Encoder) *SimMotor {
	if plant == nil {
		plant = physics.NewFlywheel()
	}
	return &SimMotor{
		id:       id,
		plant:    plant,
		integ:    integrators.NewRK4(),
		encoder:  encoder,
		bus:      NominalBusVoltage,
		substeps: defaultSubsteps,
		state:    dynamo.State{0, 0},
	}
}

func (m *SimMotor) ID() int { return m.id }

func (m *SimMotor) SetVoltage(volts float64) {
	m.leader = nil
	m.mode = modeVoltage
	m.command = volts
}

func (m *SimMotor) SetDutyCycle(duty float64) {
	m.leader = nil
	m.mode = modeDuty
	m.command = clampDuty(duty)
}

// Stop zeroes the local command. A follower keeps following; its output is
// whatever the leader drives.
func (m *SimMotor) Stop() {
	m.mode = modeDuty
	m.command = 0
}

func (m *SimMotor) SetInverted(inverted bool) { m.inverted = inverted }

func (m *SimMotor) Follow(leader Actuator, invert bool) {
	m.leader = leader
	m.invertFollow = invert
}

// Following reports the current leader, or nil.
func (m *SimMotor) Following() Actuator { return m.leader }

func (m *SimMotor) BusVoltage() float64 { return m.bus }

// SetBusVoltage models battery sag.
func (m *SimMotor) SetBusVoltage(v float64) { m.bus = v }

func (m *SimMotor) AppliedOutput() float64 {
	if m.leader != nil {
		out := m.leader.AppliedOutput()
		if m.invertFollow {
			out = -out
		}
		return out
	}
	if m.mode == modeVoltage {
		if m.bus <= 0 {
			return 0
		}
		return clampDuty(m.command / m.bus)
	}
	return m.command
}

func (m *SimMotor) direction() float64 {
	if m.inverted {
		return -1
	}
	return 1
}

// Velocity in rad/s after encoder conversion.
func (m *SimMotor) Velocity() float64 {
	rpm := m.state[1] * 60.0 / (2.0 * math.Pi)
	return m.direction() * rpm * m.encoder.VelocityFactor
}

// Position in rad after encoder conversion.
func (m *SimMotor) Position() float64 {
	rotations := m.state[0] / (2.0 * math.Pi)
	return m.direction() * rotations * m.encoder.PositionFactor
}

// Step advances the shaft by dt seconds under the current output.
func (m *SimMotor) Step(dt float64) {
	volts := m.AppliedOutput() * m.bus * m.direction()
	h := dt / float64(m.substeps)
	for i := 0; i < m.substeps; i++ {
		m.state = m.integ.Step(m.plant, m.state, dynamo.Control{volts}, m.t, h)
		m.t += h
	}
}

// SetIntegrator replaces the RK4 stepper used for the plant.
func (m *SimMotor) SetIntegrator(integ dynamo.Integrator) { m.integ = integ }

// Plant is the simulated shaft model.
func (m *SimMotor) Plant() dynamo.System { return m.plant }

// ShaftState returns a copy of the raw plant state.
func (m *SimMotor) ShaftState() dynamo.State { return m.state.Clone() }

// Bench is the set of simulated motors stepped together each tick.
type Bench struct {
	Motors []*SimMotor
}

func (b *Bench) Add(m *SimMotor) *SimMotor {
	b.Motors = append(b.Motors, m)
	return m
}

func (b *Bench) Step(dt float64) {
	for _, m := range b.Motors {
		m.Step(dt)
	}
}

// Get returns the motor with the given id, or nil.
func (b *Bench) Get(id int) *SimMotor {
	for _, m := range b.Motors {
		if m.id == id {
			return m
		}
	}
	return nil
}
