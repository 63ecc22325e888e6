package subsystem

import (
	"bytes"
	"errors"
	"log"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/san-kum/flywheel/internal/characterize"
	"github.com/san-kum/flywheel/internal/control"
	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/hal"
	"github.com/san-kum/flywheel/internal/motor"
	"github.com/san-kum/flywheel/internal/params"
	"github.com/san-kum/flywheel/internal/shooter"
	"github.com/san-kum/flywheel/internal/telemetry"
)

const period = 20 * time.Millisecond

type rig struct {
	sub   *Subsystem
	bench *hal.Bench
	clock *dynamo.ManualClock
	table *telemetry.Table
	store *params.Store
}

func newRig(t *testing.T, cfg shooter.Config) *rig {
	t.Helper()

	clock := &dynamo.ManualClock{}
	bench := &hal.Bench{}
	group, err := motor.New(motor.Coupled, control.Gains{Kv: 0.12128, Ka: 0.10706, Kp: 0.00018357},
		[]motor.Channel{
			{ID: 32, Role: motor.Leader},
			{ID: 33, Role: motor.Follower, Inverted: true},
			{ID: 31, Role: motor.Feeder},
		},
		func(ch motor.Channel) hal.Actuator {
			return bench.Add(hal.NewSimMotor(ch.ID, nil, hal.DefaultEncoder()))
		})
	if err != nil {
		t.Fatalf("group: %v", err)
	}

	store := params.New()
	defaults := params.Defaults{MotorSpeed: 10, FeedSpeed: 0.5, SpinUpTime: 0.1, FeedTime: 0.1, VelocityTolerance: 8}
	defaults.Install(store)
	table := telemetry.NewTable()

	seq, err := shooter.New(cfg, group, store, defaults, table, clock)
	if err != nil {
		t.Fatalf("sequencer: %v", err)
	}
	char := characterize.New(characterize.DefaultSettings(), clock)

	return &rig{
		sub:   New(group, seq, char, table, clock, nil),
		bench: bench,
		clock: clock,
		table: table,
		store: store,
	}
}

func (r *rig) tick() {
	r.clock.Advance(period)
	r.sub.OnTick()
	r.sub.Periodic()
	r.bench.Step(period.Seconds())
}

func (r *rig) allStopped() bool {
	for _, id := range []int{31, 32, 33} {
		if r.bench.Get(id).AppliedOutput() != 0 {
			return false
		}
	}
	return true
}

func (r *rig) status() string {
	s, _ := r.table.String(params.Status)
	return s
}

var timedShot = shooter.Config{SpinUp: shooter.ClosedLoop, Transition: shooter.TimeBased, Feed: shooter.FeedTimed}

func TestSafetyStopWithoutOwner(t *testing.T) {
	g := NewWithT(t)
	r := newRig(t, timedShot)

	r.bench.Get(32).SetVoltage(6)
	r.bench.Get(31).SetDutyCycle(0.4)

	r.sub.OnTick()

	g.Expect(r.sub.Owner()).To(Equal(NoOwner))
	g.Expect(r.allStopped()).To(BeTrue())
	g.Expect(r.status()).To(Equal(shooter.StatusStopped))
	g.Expect(r.sub.Snapshot().Phase).To(Equal(PhaseStopped))
}

func TestShotRunsToCompletion(t *testing.T) {
	g := NewWithT(t)
	r := newRig(t, timedShot)

	r.sub.StartShot()
	g.Expect(r.sub.Owner()).To(Equal(ShotOwner))

	fed := false
	for i := 0; i < 50 && r.sub.Owner() == ShotOwner; i++ {
		r.tick()
		if r.sub.Sequencer().State() == shooter.Feeding {
			fed = true
			g.Expect(r.bench.Get(31).AppliedOutput()).To(BeNumerically("~", 0.5, 1e-9))
		}
	}

	g.Expect(fed).To(BeTrue())
	g.Expect(r.sub.Owner()).To(Equal(NoOwner))
	g.Expect(r.allStopped()).To(BeTrue())

	v, ok := r.table.Number(params.Velocity)
	g.Expect(ok).To(BeTrue())
	g.Expect(v).To(BeNumerically(">", 0))
}

func TestCancelStopsWithinOneTick(t *testing.T) {
	g := NewWithT(t)
	r := newRig(t, shooter.Config{SpinUp: shooter.ClosedLoop, Transition: shooter.TimeBased, Feed: shooter.FeedUntilCancelled})

	r.sub.StartShot()
	for i := 0; i < 20; i++ {
		r.tick()
	}
	g.Expect(r.sub.Sequencer().State()).To(Equal(shooter.Feeding))
	g.Expect(r.allStopped()).To(BeFalse())

	r.sub.Cancel()

	g.Expect(r.sub.Owner()).To(Equal(NoOwner))
	g.Expect(r.sub.Sequencer().State()).To(Equal(shooter.Idle))
	g.Expect(r.allStopped()).To(BeTrue())
	g.Expect(r.status()).To(Equal(shooter.StatusStopped))
}

func TestCharacterizationExcludesShot(t *testing.T) {
	g := NewWithT(t)
	r := newRig(t, timedShot)

	r.sub.StartShot()
	r.tick()

	err := r.sub.StartCharacterization(Top, characterize.Dynamic, characterize.Forward)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(r.sub.Owner()).To(Equal(CharacterizationOwner))
	g.Expect(r.sub.Sequencer().State()).To(Equal(shooter.Idle))

	r.tick()
	g.Expect(r.bench.Get(32).AppliedOutput()).To(BeNumerically("~", 7.0/12.0, 1e-9))
	g.Expect(r.bench.Get(33).AppliedOutput()).To(BeZero())
	g.Expect(r.bench.Get(31).AppliedOutput()).To(BeZero())
	g.Expect(r.sub.Snapshot().Phase).To(Equal(PhaseCharacterizing))

	r.sub.StartShot()
	g.Expect(r.sub.Owner()).To(Equal(ShotOwner))
	g.Expect(r.sub.Characterizer().Active()).To(BeFalse())
	g.Expect(r.sub.Characterizer().Logs(Top)).To(HaveLen(1))
	g.Expect(r.bench.Get(33).Following()).NotTo(BeNil())
}

func TestCharacterizationFinishesAndRestores(t *testing.T) {
	g := NewWithT(t)
	r := newRig(t, timedShot)

	g.Expect(r.sub.StartCharacterization(Bottom, characterize.Dynamic, characterize.Reverse)).To(Succeed())
	g.Expect(r.bench.Get(33).Following()).To(BeNil())

	// 3 s dynamic step at 20 ms
	for i := 0; i < 200 && r.sub.Owner() == CharacterizationOwner; i++ {
		r.tick()
	}

	g.Expect(r.sub.Owner()).To(Equal(NoOwner))
	g.Expect(r.allStopped()).To(BeTrue())
	g.Expect(r.bench.Get(33).Following()).NotTo(BeNil())

	logs := r.sub.Characterizer().Logs(Bottom)
	g.Expect(logs).To(HaveLen(1))
	g.Expect(logs[0].Len()).To(Equal(149))
	g.Expect(r.bench.Get(32).Velocity()).To(BeZero())
}

func TestUnknownActuator(t *testing.T) {
	g := NewWithT(t)
	r := newRig(t, timedShot)

	err := r.sub.StartCharacterization("feeder", characterize.Dynamic, characterize.Forward)
	g.Expect(errors.Is(err, dynamo.ErrUnknownActuator)).To(BeTrue())
	g.Expect(r.sub.Owner()).To(Equal(NoOwner))
}

func TestStartupLogsChannels(t *testing.T) {
	g := NewWithT(t)
	r := newRig(t, timedShot)

	var buf bytes.Buffer
	New(r.sub.Group(), r.sub.Sequencer(), r.sub.Characterizer(), nil, r.clock, log.New(&buf, "", 0))

	g.Expect(buf.String()).To(ContainSubstring("CAN IDs:"))
	g.Expect(buf.String()).To(ContainSubstring("32"))
	g.Expect(buf.String()).To(ContainSubstring("31"))
}
