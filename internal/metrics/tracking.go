// Package metrics scores a run from its per-tick snapshots.
package metrics

import (
	"math"
	"time"

	"github.com/san-kum/flywheel/internal/dynamo"
)

// Phase labels as they appear in snapshots.
const (
	PhaseSpinningUp = "SpinningUp"
	PhaseFeeding    = "Feeding"
)

func shooting(phase string) bool {
	return phase == PhaseSpinningUp || phase == PhaseFeeding
}

// TrackingError is the RMS velocity error over every tick of a shot.
type TrackingError struct {
	sumSq   float64
	samples int
}

func NewTrackingError() *TrackingError { return &TrackingError{} }

func (e *TrackingError) Name() string { return "tracking_rms" }

func (e *TrackingError) Observe(snap dynamo.Snapshot) {
	if !shooting(snap.Phase) {
		return
	}
	d := snap.Setpoint - snap.Velocity
	e.sumSq += d * d
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return math.Sqrt(e.sumSq / float64(e.samples))
}

func (e *TrackingError) Reset() {
	e.sumSq = 0
	e.samples = 0
}

// SpinUpTime measures seconds from the first SpinningUp tick to the first
// Feeding tick. Until feeding starts it reports the time spent so far, so a
// wheel that never gets there scores as slow as the run was long.
type SpinUpTime struct {
	started  bool
	reached  bool
	start    time.Duration
	last     time.Duration
	feedTime time.Duration
}

func NewSpinUpTime() *SpinUpTime { return &SpinUpTime{} }

func (s *SpinUpTime) Name() string { return "spin_up_time" }

func (s *SpinUpTime) Observe(snap dynamo.Snapshot) {
	if s.reached {
		return
	}
	switch snap.Phase {
	case PhaseSpinningUp:
		if !s.started {
			s.started = true
			s.start = snap.Time
		}
	case PhaseFeeding:
		if !s.started {
			s.started = true
			s.start = snap.Time
		}
		s.reached = true
		s.feedTime = snap.Time
	}
	s.last = snap.Time
}

// Reached reports whether the shot got to Feeding.
func (s *SpinUpTime) Reached() bool { return s.reached }

func (s *SpinUpTime) Value() float64 {
	if !s.started {
		return 0
	}
	if s.reached {
		return (s.feedTime - s.start).Seconds()
	}
	return (s.last - s.start).Seconds()
}

func (s *SpinUpTime) Reset() { *s = SpinUpTime{} }
