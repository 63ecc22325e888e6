// Package analysis inspects recorded shots for velocity ripple.
//
// A well tuned wheel holds its setpoint with a small, slow error. Too much
// feedback gain shows up as an oscillation in the error signal:
//
//	r := analysis.RippleOf(snaps, "Feeding", period)
//	if r.Frequency > 0 && r.PeakToPeak > tolerance {
//	    // loop is ringing at r.Frequency Hz
//	}
package analysis
