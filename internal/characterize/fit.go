package characterize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flywheel/internal/control"
	"github.com/san-kum/flywheel/internal/dynamo"
)

// minFitVelocity excludes samples where the wheel has not broken away.
const minFitVelocity = 0.5

// FitResult is a feedforward model estimated from samples.
type FitResult struct {
	Ks       float64
	Kv       float64
	Ka       float64
	RSquared float64
	Points   int
}

// Gains returns the fit as feedforward gains with the given feedback terms.
func (f FitResult) Gains(kp, kd float64) control.Gains {
	return control.Gains{Ks: f.Ks, Kv: f.Kv, Ka: f.Ka, Kp: kp, Kd: kd}
}

func (f FitResult) String() string {
	return fmt.Sprintf("ks=%.5f kv=%.5f ka=%.5f r2=%.4f n=%d", f.Ks, f.Kv, f.Ka, f.RSquared, f.Points)
}

// Fit solves V = Ks*sign(w) + Kv*w + Ka*a by least squares over every
// consecutive sample pair in logs. Acceleration is the forward difference
// of velocity and w is taken at the interval midpoint.
func Fit(logs ...*Log) (FitResult, error) {
	type row struct{ s, w, a, v float64 }
	rows := make([]row, 0)

	for _, l := range logs {
		for i := 0; i+1 < len(l.samples); i++ {
			cur, next := l.samples[i], l.samples[i+1]
			dt := (next.Time - cur.Time).Seconds()
			if dt <= 0 {
				continue
			}
			w := (cur.Velocity + next.Velocity) / 2
			if math.Abs(w) < minFitVelocity {
				continue
			}
			rows = append(rows, row{
				s: sign(w),
				w: w,
				a: (next.Velocity - cur.Velocity) / dt,
				v: cur.Voltage,
			})
		}
	}

	if len(rows) < 3 {
		return FitResult{}, fmt.Errorf("fit with %d points: %w", len(rows), dynamo.ErrInsufficientData)
	}

	x := mat.NewDense(len(rows), 3, nil)
	y := mat.NewVecDense(len(rows), nil)
	for i, r := range rows {
		x.SetRow(i, []float64{r.s, r.w, r.a})
		y.SetVec(i, r.v)
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return FitResult{}, fmt.Errorf("least squares: %w", err)
	}

	var pred mat.VecDense
	pred.MulVec(x, &beta)

	mean := mat.Sum(y) / float64(len(rows))
	var ssRes, ssTot float64
	for i := range rows {
		d := y.AtVec(i) - pred.AtVec(i)
		ssRes += d * d
		m := y.AtVec(i) - mean
		ssTot += m * m
	}
	r2 := 1.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}

	return FitResult{
		Ks:       beta.AtVec(0),
		Kv:       beta.AtVec(1),
		Ka:       beta.AtVec(2),
		RSquared: r2,
		Points:   len(rows),
	}, nil
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
