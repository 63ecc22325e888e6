package shooter_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/flywheel/internal/control"
	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/params"
	"github.com/san-kum/flywheel/internal/shooter"
	"github.com/san-kum/flywheel/internal/telemetry"
)

const tick = 20 * time.Millisecond

type fakeWheels struct {
	velocity float64
	target   float64
	duty     float64
	feed     float64
	closed   bool
	stops    int
	resets   int
}

func (w *fakeWheels) SetVelocity(target float64) { w.target, w.closed = target, true }
func (w *fakeWheels) SetDuty(duty float64)       { w.duty, w.closed = duty, false }
func (w *fakeWheels) Feed(duty float64)          { w.feed = duty }
func (w *fakeWheels) Reset()                     { w.resets++ }

func (w *fakeWheels) AtSetpoint(tol float64) bool {
	return control.AtSetpoint(w.target, w.velocity, tol)
}

func (w *fakeWheels) Stop() {
	w.stops++
	w.target, w.duty, w.feed = 0, 0, 0
}

func (w *fakeWheels) allZero() bool {
	return w.target == 0 && w.duty == 0 && w.feed == 0
}

var defaults = params.Defaults{
	MotorSpeed:        20,
	FeedSpeed:         0.6,
	SpinUpTime:        2.0,
	FeedTime:          1.0,
	VelocityTolerance: 8.0,
}

var _ = Describe("Sequencer", func() {
	var (
		wheels *fakeWheels
		store  *params.Store
		sink   *telemetry.Table
		clock  *dynamo.ManualClock
		seq    *shooter.Sequencer
		trail  []shooter.State
	)

	build := func(cfg shooter.Config) {
		var err error
		seq, err = shooter.New(cfg, wheels, store, defaults, sink, clock)
		Expect(err).NotTo(HaveOccurred())
		seq.OnTransition(func(_, to shooter.State) { trail = append(trail, to) })
	}

	status := func() string {
		v, _ := sink.String(params.Status)
		return v
	}

	setpoint := func() float64 {
		v, _ := sink.Number(params.Setpoint)
		return v
	}

	step := func() {
		clock.Advance(tick)
		seq.OnTick()
	}

	ticksUntil := func(want shooter.State, limit int) int {
		for i := 1; i <= limit; i++ {
			step()
			if seq.State() == want {
				return i
			}
		}
		return -1
	}

	BeforeEach(func() {
		wheels = &fakeWheels{}
		store = params.New()
		defaults.Install(store)
		sink = telemetry.NewTable()
		clock = &dynamo.ManualClock{}
		trail = nil
	})

	Describe("construction", func() {
		It("rejects a tolerance transition on raw duty spin-up", func() {
			_, err := shooter.New(shooter.Config{SpinUp: shooter.RawDuty, Transition: shooter.ToleranceBased}, wheels, store, defaults, sink, clock)
			Expect(err).To(MatchError(dynamo.ErrInvalidPolicy))
		})

		It("rejects a done delay without a done state", func() {
			_, err := shooter.New(shooter.Config{DoneDelay: true}, wheels, store, defaults, sink, clock)
			Expect(err).To(MatchError(dynamo.ErrInvalidPolicy))
		})

		It("starts idle", func() {
			build(shooter.Config{})
			Expect(seq.State()).To(Equal(shooter.Idle))
			Expect(seq.Active()).To(BeFalse())
		})
	})

	Describe("time-based spin-up", func() {
		BeforeEach(func() {
			build(shooter.Config{SpinUp: shooter.ClosedLoop, Transition: shooter.TimeBased, Feed: shooter.FeedTimed, UseDone: true})
			seq.OnStart()
		})

		It("applies the closed-loop setpoint in rad/s on start", func() {
			Expect(seq.State()).To(Equal(shooter.SpinningUp))
			Expect(wheels.closed).To(BeTrue())
			Expect(wheels.target).To(BeNumerically("~", 20*2*math.Pi, 1e-9))
			Expect(wheels.resets).To(Equal(1))
			Expect(status()).To(Equal(shooter.StatusSpinningUp))
		})

		It("enters Feeding on exactly the 100th tick of a 2 s spin-up", func() {
			for i := 1; i < 100; i++ {
				step()
				Expect(seq.State()).To(Equal(shooter.SpinningUp), "tick %d", i)
			}
			step()
			Expect(seq.State()).To(Equal(shooter.Feeding))
			Expect(wheels.feed).To(Equal(0.6))
		})

		It("ignores wheel speed", func() {
			wheels.velocity = 20 * 2 * math.Pi
			step()
			Expect(seq.State()).To(Equal(shooter.SpinningUp))
		})

		It("spends exactly 50 ticks feeding for a 1 s feed", func() {
			Expect(ticksUntil(shooter.Feeding, 200)).To(Equal(100))
			feeding := 0
			for seq.State() == shooter.Feeding {
				step()
				feeding++
				Expect(feeding).To(BeNumerically("<=", 60))
			}
			Expect(feeding).To(Equal(50))
			Expect(seq.State()).To(Equal(shooter.Idle))
			Expect(trail).To(Equal([]shooter.State{shooter.SpinningUp, shooter.Feeding, shooter.Done, shooter.Idle}))
			Expect(wheels.allZero()).To(BeTrue())
			Expect(status()).To(Equal(shooter.StatusStopped))
		})

		It("picks up a parameter edit on the next tick", func() {
			step()
			store.Set(params.MotorSpeed, 30)
			step()
			Expect(wheels.target).To(BeNumerically("~", 30*2*math.Pi, 1e-9))
			Expect(setpoint()).To(BeNumerically("~", 30*2*math.Pi, 1e-9))

			store.Set(params.SpinUpTime, 0.05)
			step()
			Expect(seq.State()).To(Equal(shooter.Feeding))
		})
	})

	Describe("tolerance-based spin-up", func() {
		BeforeEach(func() {
			build(shooter.Config{SpinUp: shooter.ClosedLoop, Transition: shooter.ToleranceBased, Feed: shooter.FeedTimed})
			seq.OnStart()
		})

		It("waits until the error is inside the band", func() {
			target := 20 * 2 * math.Pi
			wheels.velocity = target - 8.5
			for i := 0; i < 500; i++ {
				step()
			}
			Expect(seq.State()).To(Equal(shooter.SpinningUp))

			wheels.velocity = target - 7.9
			step()
			Expect(seq.State()).To(Equal(shooter.Feeding))
		})

		It("never fires one tick early", func() {
			target := 20 * 2 * math.Pi
			speeds := []float64{0, 40, 80, 110, target - 8.01, target - 7.99}
			for i, v := range speeds {
				wheels.velocity = v
				step()
				if i < len(speeds)-1 {
					Expect(seq.State()).To(Equal(shooter.SpinningUp), "tick %d", i)
				}
			}
			Expect(seq.State()).To(Equal(shooter.Feeding))
		})

		It("returns straight to Idle without a Done state", func() {
			wheels.velocity = 20 * 2 * math.Pi
			step()
			Expect(ticksUntil(shooter.Idle, 100)).To(Equal(50))
			Expect(trail).NotTo(ContainElement(shooter.Done))
		})
	})

	Describe("raw duty spin-up", func() {
		BeforeEach(func() {
			store.Set(params.MotorSpeed, 0.9)
			build(shooter.Config{SpinUp: shooter.RawDuty, Transition: shooter.TimeBased, Feed: shooter.FeedUntilCancelled})
			seq.OnStart()
		})

		It("commands the duty cycle open loop", func() {
			Expect(wheels.closed).To(BeFalse())
			Expect(wheels.duty).To(Equal(0.9))
		})

		It("clamps out of range duty", func() {
			store.Set(params.MotorSpeed, 3)
			step()
			Expect(wheels.duty).To(Equal(1.0))
		})

		It("feeds until cancelled", func() {
			Expect(ticksUntil(shooter.Feeding, 200)).To(Equal(100))
			for i := 0; i < 5000; i++ {
				step()
			}
			Expect(seq.State()).To(Equal(shooter.Feeding))
			Expect(wheels.feed).To(Equal(0.6))

			seq.OnCancel()
			Expect(seq.State()).To(Equal(shooter.Idle))
			Expect(wheels.allZero()).To(BeTrue())
		})
	})

	Describe("done delay", func() {
		It("holds Done until the next tick", func() {
			build(shooter.Config{Transition: shooter.TimeBased, Feed: shooter.FeedTimed, UseDone: true, DoneDelay: true})
			store.Set(params.SpinUpTime, 0.02)
			store.Set(params.FeedTime, 0.02)
			seq.OnStart()

			step()
			Expect(seq.State()).To(Equal(shooter.Feeding))
			step()
			Expect(seq.State()).To(Equal(shooter.Done))
			Expect(wheels.allZero()).To(BeTrue())
			step()
			Expect(seq.State()).To(Equal(shooter.Idle))
		})
	})

	DescribeTable("cancellation from any state",
		func(ticks int, from shooter.State) {
			build(shooter.Config{Transition: shooter.TimeBased, Feed: shooter.FeedUntilCancelled})
			if from != shooter.Idle {
				seq.OnStart()
			}
			for i := 0; i < ticks; i++ {
				step()
			}
			Expect(seq.State()).To(Equal(from))

			stops := wheels.stops
			seq.OnCancel()
			Expect(seq.State()).To(Equal(shooter.Idle))
			Expect(wheels.stops).To(Equal(stops + 1))
			Expect(wheels.allZero()).To(BeTrue())
		},
		Entry("Idle", 0, shooter.Idle),
		Entry("SpinningUp", 10, shooter.SpinningUp),
		Entry("Feeding", 120, shooter.Feeding),
	)

	It("restarts cleanly after a cancel", func() {
		build(shooter.Config{Transition: shooter.TimeBased, Feed: shooter.FeedTimed})
		seq.OnStart()
		for i := 0; i < 50; i++ {
			step()
		}
		seq.OnCancel()
		seq.OnStart()
		Expect(wheels.resets).To(Equal(2))
		Expect(ticksUntil(shooter.Feeding, 200)).To(Equal(100))
	})
})
