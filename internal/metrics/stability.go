package metrics

import (
	"math"

	"github.com/san-kum/flywheel/internal/dynamo"
)

// InBand is the fraction of Feeding ticks whose velocity stayed within
// tolerance of the setpoint. A wheel that sags while the ball goes through
// scores below 1.
type InBand struct {
	name      string
	tolerance float64
	inside    int
	samples   int
}

func NewInBand(tolerance float64) *InBand {
	return &InBand{
		name:      "in_band",
		tolerance: tolerance,
	}
}

func (b *InBand) Name() string {
	return b.name
}

func (b *InBand) Observe(snap dynamo.Snapshot) {
	if snap.Phase != PhaseFeeding {
		return
	}
	b.samples++
	if math.Abs(snap.Setpoint-snap.Velocity) <= b.tolerance {
		b.inside++
	}
}

func (b *InBand) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return float64(b.inside) / float64(b.samples)
}

func (b *InBand) Reset() {
	b.inside = 0
	b.samples = 0
}
