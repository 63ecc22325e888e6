package analysis

import (
	"math"
	"math/cmplx"
	"time"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/flywheel/internal/dynamo"
)

// PowerSpectrum returns the one-sided magnitude spectrum of data after
// removing its mean. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centred := make([]float64, len(data))
	for i, v := range data {
		centred[i] = v - mean
	}

	spectrum := fft.FFTReal(centred)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// Dominant returns the frequency in Hz of the strongest non-DC bin of ps,
// where ps came from n samples taken every period. Zero means no peak.
func Dominant(ps []float64, n int, period time.Duration) float64 {
	maxPower := 0.0
	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > maxPower {
			maxPower = ps[i]
			maxIdx = i
		}
	}
	if maxIdx == 0 || n == 0 {
		return 0
	}
	return float64(maxIdx) / (float64(n) * period.Seconds())
}

// Ripple summarizes the velocity error over the ticks of one phase.
type Ripple struct {
	Phase      string
	Samples    int
	RMS        float64
	PeakToPeak float64
	Frequency  float64
	Spectrum   []float64
}

// RippleOf measures setpoint minus velocity over every snapshot in phase.
// An empty phase selects every tick with a non-zero setpoint.
func RippleOf(snaps []dynamo.Snapshot, phase string, period time.Duration) Ripple {
	r := Ripple{Phase: phase}

	errs := make([]float64, 0, len(snaps))
	for _, s := range snaps {
		if phase != "" && s.Phase != phase {
			continue
		}
		if phase == "" && s.Setpoint == 0 {
			continue
		}
		errs = append(errs, s.Setpoint-s.Velocity)
	}
	r.Samples = len(errs)
	if len(errs) == 0 {
		return r
	}

	lo, hi := errs[0], errs[0]
	sum := 0.0
	for _, e := range errs {
		sum += e * e
		lo = math.Min(lo, e)
		hi = math.Max(hi, e)
	}
	r.RMS = math.Sqrt(sum / float64(len(errs)))
	r.PeakToPeak = hi - lo

	r.Spectrum = PowerSpectrum(errs)
	r.Frequency = Dominant(r.Spectrum, len(errs), period)
	return r
}
