package dynamo

import (
	"math"
	"time"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Clock reports elapsed time since an arbitrary fixed origin.
type Clock interface {
	Now() time.Duration
}

// ManualClock is advanced explicitly by the tick runner.
type ManualClock struct {
	t time.Duration
}

func (c *ManualClock) Now() time.Duration      { return c.t }
func (c *ManualClock) Advance(d time.Duration) { c.t += d }
func (c *ManualClock) Set(t time.Duration)     { c.t = t }

// WallClock measures real time from its creation.
type WallClock struct {
	start time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) Now() time.Duration { return time.Since(c.start) }

// Metric accumulates a scalar over the ticks of a run.
type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

// Observer is notified after every tick.
type Observer interface {
	OnTick(s Snapshot)
}

// Configurable exposes named numeric parameters for live adjustment.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Snapshot is what the tick runner records for one control period.
type Snapshot struct {
	Time     time.Duration
	Phase    string
	Setpoint float64
	Velocity float64
	Leader   float64
	Follower float64
	Feeder   float64
}

// Seconds returns the snapshot time as floating-point seconds.
func (s Snapshot) Seconds() float64 {
	return s.Time.Seconds()
}
