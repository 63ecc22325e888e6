package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/flywheel/internal/characterize"
	"github.com/san-kum/flywheel/internal/dynamo"
)

// TraceSeries splits snapshots into setpoint and velocity series.
func TraceSeries(snaps []dynamo.Snapshot) (setpoint, velocity []float64) {
	setpoint = make([]float64, len(snaps))
	velocity = make([]float64, len(snaps))
	for i, s := range snaps {
		setpoint[i] = s.Setpoint
		velocity[i] = s.Velocity
	}
	return setpoint, velocity
}

// PlotTrace charts velocity against setpoint over a shot.
func PlotTrace(snaps []dynamo.Snapshot, width, height int) string {
	if len(snaps) < 2 {
		return "(not enough data)"
	}
	setpoint, velocity := TraceSeries(snaps)
	caption := fmt.Sprintf("setpoint / velocity (rad/s), %.2fs", snaps[len(snaps)-1].Seconds())
	return asciigraph.PlotMany([][]float64{setpoint, velocity},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(CurrentTheme.Setpoint, CurrentTheme.Measured),
		asciigraph.Caption(caption),
	)
}

// PlotOutputs charts the commanded wheel and feeder voltages.
func PlotOutputs(snaps []dynamo.Snapshot, width, height int) string {
	if len(snaps) < 2 {
		return "(not enough data)"
	}
	leader := make([]float64, len(snaps))
	feeder := make([]float64, len(snaps))
	for i, s := range snaps {
		leader[i] = s.Leader
		feeder[i] = s.Feeder
	}
	return asciigraph.PlotMany([][]float64{leader, feeder},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(CurrentTheme.Setpoint, CurrentTheme.Measured),
		asciigraph.Caption("leader / feeder (V)"),
	)
}

// PlotSamples charts one characterization log: applied voltage and the
// resulting velocity.
func PlotSamples(l *characterize.Log, width, height int) string {
	samples := l.Samples()
	if len(samples) < 2 {
		return "(not enough data)"
	}
	volts := make([]float64, len(samples))
	vel := make([]float64, len(samples))
	for i, s := range samples {
		volts[i] = s.Voltage
		vel[i] = s.Velocity
	}

	caption := fmt.Sprintf("%s %s %s: velocity (rad/s)", l.Actuator, l.Mode, l.Direction)
	graph := asciigraph.Plot(vel,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
	voltage := asciigraph.Plot(volts,
		asciigraph.Height(height/2+1),
		asciigraph.Width(width),
		asciigraph.Caption("applied voltage (V)"),
	)
	return graph + "\n\n" + voltage
}
