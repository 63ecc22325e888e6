package characterize

import (
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/hal"
	"github.com/san-kum/flywheel/internal/physics"
)

const period = 20 * time.Millisecond

func testSettings() Settings {
	return Settings{
		RampRate:            0.5,
		StepVoltage:         7.0,
		MaxVoltage:          10.0,
		QuasiStaticDuration: 20.0,
		DynamicDuration:     2.0,
	}
}

func drive(c *Characterizer, clock *dynamo.ManualClock, m *hal.SimMotor) {
	for c.OnTick() {
		m.Step(period.Seconds())
		clock.Advance(period)
	}
}

func TestQuasiStaticRamp(t *testing.T) {
	g := NewWithT(t)
	clock := &dynamo.ManualClock{}
	c := New(testSettings(), clock)
	m := hal.NewSimMotor(32, physics.NewFlywheel(), hal.DefaultEncoder())

	c.Start("top", m, QuasiStatic, Forward)
	g.Expect(c.Active()).To(BeTrue())
	drive(c, clock, m)

	g.Expect(c.Active()).To(BeFalse())
	logs := c.Logs("top")
	g.Expect(logs).To(HaveLen(1))
	samples := logs[0].Samples()
	g.Expect(samples).To(HaveLen(1000))

	for i, s := range samples {
		want := math.Min(0.5*s.Time.Seconds(), 10)
		g.Expect(s.Voltage).To(BeNumerically("~", want, 1e-9), "sample %d", i)
		g.Expect(s.Time).To(Equal(time.Duration(i) * period))
	}
	g.Expect(samples[999].Velocity).To(BeNumerically(">", 50))
	g.Expect(m.AppliedOutput()).To(BeZero())
}

func TestDynamicStepReverse(t *testing.T) {
	g := NewWithT(t)
	clock := &dynamo.ManualClock{}
	c := New(testSettings(), clock)
	m := hal.NewSimMotor(33, physics.NewFlywheel(), hal.DefaultEncoder())

	c.Start("bottom", m, Dynamic, Reverse)
	drive(c, clock, m)

	samples := c.Logs("bottom")[0].Samples()
	g.Expect(samples).To(HaveLen(100))
	g.Expect(samples[0].Voltage).To(BeNumerically("~", -7, 1e-9))
	g.Expect(samples[99].Velocity).To(BeNumerically("<", -30))
	g.Expect(samples[99].Position).To(BeNumerically("<", 0))
}

func TestSeparateStreamsPerActuator(t *testing.T) {
	g := NewWithT(t)
	clock := &dynamo.ManualClock{}
	c := New(testSettings(), clock)
	top := hal.NewSimMotor(32, nil, hal.DefaultEncoder())
	bottom := hal.NewSimMotor(33, nil, hal.DefaultEncoder())

	c.Start("top", top, Dynamic, Forward)
	drive(c, clock, top)
	c.Start("bottom", bottom, Dynamic, Forward)
	c.OnTick()
	c.OnCancel()

	g.Expect(c.Logs("top")).To(HaveLen(1))
	g.Expect(c.Logs("bottom")).To(HaveLen(1))
	g.Expect(c.Logs("bottom")[0].Len()).To(Equal(1))
	g.Expect(c.Actuators()).To(ConsistOf("top", "bottom"))
	g.Expect(bottom.AppliedOutput()).To(BeZero())
}

func TestStartWhileActiveCancelsPrevious(t *testing.T) {
	g := NewWithT(t)
	clock := &dynamo.ManualClock{}
	c := New(testSettings(), clock)
	top := hal.NewSimMotor(32, nil, hal.DefaultEncoder())
	bottom := hal.NewSimMotor(33, nil, hal.DefaultEncoder())

	c.Start("top", top, Dynamic, Forward)
	c.OnTick()
	c.Start("bottom", bottom, Dynamic, Forward)

	g.Expect(top.AppliedOutput()).To(BeZero())
	g.Expect(c.Logs("top")).To(HaveLen(1))
	g.Expect(c.Current().Actuator).To(Equal("bottom"))
}

type sagging struct {
	commanded float64
}

func (s *sagging) SetVoltage(v float64)   { s.commanded = v }
func (s *sagging) Stop()                  { s.commanded = 0 }
func (s *sagging) Velocity() float64      { return 0 }
func (s *sagging) Position() float64      { return 0 }
func (s *sagging) BusVoltage() float64    { return 11.5 }
func (s *sagging) AppliedOutput() float64 { return 0.5 }

func TestAppliedVoltageUsesSupply(t *testing.T) {
	g := NewWithT(t)
	clock := &dynamo.ManualClock{}
	c := New(testSettings(), clock)
	target := &sagging{}

	c.Start("top", target, Dynamic, Forward)
	c.OnTick()
	g.Expect(target.commanded).To(Equal(7.0))
	g.Expect(c.Current().Samples()[0].Voltage).To(Equal(5.75))
}

func TestFitRecoversPlant(t *testing.T) {
	g := NewWithT(t)
	plant := &physics.Flywheel{Ks: 0.15, Kv: 0.13, Ka: 0.09}
	clock := &dynamo.ManualClock{}
	c := New(testSettings(), clock)

	for _, mode := range []Mode{QuasiStatic, Dynamic} {
		for _, dir := range []Direction{Forward, Reverse} {
			m := hal.NewSimMotor(32, plant, hal.DefaultEncoder())
			c.Start("top", m, mode, dir)
			drive(c, clock, m)
		}
	}

	fit, err := Fit(c.Logs("top")...)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(fit.Ks).To(BeNumerically("~", plant.Ks, 0.02))
	g.Expect(fit.Kv).To(BeNumerically("~", plant.Kv, plant.Kv*0.02))
	g.Expect(fit.Ka).To(BeNumerically("~", plant.Ka, plant.Ka*0.05))
	g.Expect(fit.RSquared).To(BeNumerically(">", 0.99))

	gains := fit.Gains(0.001, 0)
	g.Expect(gains.Kv).To(Equal(fit.Kv))
	g.Expect(gains.Kp).To(Equal(0.001))
}

func TestFitNeedsData(t *testing.T) {
	_, err := Fit(NewLog("top", Dynamic, Forward, []Sample{{Time: 0, Voltage: 1}}))
	if !errors.Is(err, dynamo.ErrInsufficientData) {
		t.Errorf("got %v, want ErrInsufficientData", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		err  bool
	}{
		{"quasistatic", QuasiStatic, false},
		{"Dynamic", Dynamic, false},
		{"step", Dynamic, false},
		{"sine", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}
