package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/integrators"
)

func TestFlywheelSettlesAtSteadyState(t *testing.T) {
	f := NewFlywheel()
	integ := integrators.NewRK4()

	x := dynamo.State{0, 0}
	dt := 0.005
	for i := 0; i < 2000; i++ {
		x = integ.Step(f, x, dynamo.Control{6.0}, float64(i)*dt, dt)
	}

	want := f.SteadyStateVelocity(6.0)
	if math.Abs(x[1]-want) > 1e-3 {
		t.Errorf("velocity = %.4f, want %.4f", x[1], want)
	}
	if x[0] <= 0 {
		t.Error("position should advance while spinning forward")
	}
}

func TestFlywheelStiction(t *testing.T) {
	f := NewFlywheel()
	d := f.Derive(dynamo.State{0, 0}, dynamo.Control{f.Ks / 2}, 0)
	if d[1] != 0 {
		t.Errorf("expected no acceleration inside stiction band, got %f", d[1])
	}

	d = f.Derive(dynamo.State{0, 0}, dynamo.Control{-1}, 0)
	if d[1] >= 0 {
		t.Errorf("expected negative acceleration for negative volts, got %f", d[1])
	}
}

func TestFlywheelSetParam(t *testing.T) {
	f := NewFlywheel()

	tests := []struct {
		name    string
		value   float64
		wantErr error
	}{
		{"kv", 0.2, nil},
		{"ka", 0.05, nil},
		{"ks", 0.0, nil},
		{"kv", 0, dynamo.ErrParameterBounds},
		{"ks", -1, dynamo.ErrParameterBounds},
	}

	for _, tt := range tests {
		err := f.SetParam(tt.name, tt.value)
		if tt.wantErr == nil && err != nil {
			t.Errorf("SetParam(%s, %v) unexpected error: %v", tt.name, tt.value, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("SetParam(%s, %v) = %v, want %v", tt.name, tt.value, err, tt.wantErr)
		}
	}

	if err := f.SetParam("mass", 1); err == nil {
		t.Error("expected error for unknown param")
	}
	if f.GetParams()["kv"] != 0.2 {
		t.Errorf("kv = %v, want 0.2", f.GetParams()["kv"])
	}
}
