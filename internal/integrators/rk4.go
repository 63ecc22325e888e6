package integrators

import "github.com/san-kum/flywheel/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta step. The motor simulation
// calls it several times per control period, so stage buffers are kept
// between calls and only the returned state is allocated.
type RK4 struct {
	k   [4]dynamo.State
	mid dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.mid) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.mid = make(dynamo.State, n)
}

// probe writes x + h*k into r.mid.
func (r *RK4) probe(x, k dynamo.State, h float64) dynamo.State {
	for i := range x {
		r.mid[i] = x[i] + h*k[i]
	}
	return r.mid
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.resize(len(x))
	half := dt / 2

	copy(r.k[0], dyn.Derive(x, u, t))
	copy(r.k[1], dyn.Derive(r.probe(x, r.k[0], half), u, t+half))
	copy(r.k[2], dyn.Derive(r.probe(x, r.k[1], half), u, t+half))
	copy(r.k[3], dyn.Derive(r.probe(x, r.k[2], dt), u, t+dt))

	next := make(dynamo.State, len(x))
	for i := range x {
		next[i] = x[i] + dt/6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return next
}
