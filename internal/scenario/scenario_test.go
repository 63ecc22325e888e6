package scenario

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/san-kum/flywheel/internal/config"
	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/hal"
	"github.com/san-kum/flywheel/internal/motor"
	"github.com/san-kum/flywheel/internal/params"
	"github.com/san-kum/flywheel/internal/physics"
	"github.com/san-kum/flywheel/internal/subsystem"
)

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	sc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return sc
}

func TestCancelDuringFeed(t *testing.T) {
	g := NewWithT(t)
	sc := mustParse(t, `
name: cancel mid feed
preset: velocity-tolerance
duration: 4
events:
  - {at: 0, action: start}
  - {at: 3, action: cancel}
checks:
  - {at: 1, phase: SpinningUp}
  - {at: 2.9, phase: Feeding}
  - {at: 3, phase: Stopped}
  - {at: 4, phase: Stopped}
`)

	out, err := RunScenario(context.Background(), sc, nil, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out.Failures).To(BeEmpty())
	g.Expect(out.Passed()).To(BeTrue())

	g.Expect(out.Fired).To(HaveLen(2))
	g.Expect(out.Fired[1].Tick).To(Equal(150))
	g.Expect(out.Fired[1].Time).To(Equal(3 * time.Second))

	final := out.Result.Final()
	g.Expect(final.Leader).To(BeZero())
	g.Expect(final.Feeder).To(BeZero())
}

func TestLiveParameterEdit(t *testing.T) {
	g := NewWithT(t)
	sc := mustParse(t, `
preset: velocity-timed
duration: 2
events:
  - {at: 0, action: start}
  - {at: 0.5, action: set, param: "Spin-up Time", value: 1}
checks:
  - {at: 0.98, phase: SpinningUp}
  - {at: 1.0, phase: Feeding}
`)

	out, err := RunScenario(context.Background(), sc, nil, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out.Failures).To(BeEmpty())
	g.Expect(out.Rig.Store.Get(params.SpinUpTime, 0)).To(Equal(1.0))
}

func TestPlantChange(t *testing.T) {
	g := NewWithT(t)
	sc := mustParse(t, `
preset: velocity-timed
duration: 0.1
events:
  - {at: 0, action: plant, actuator: top, param: kv, value: 0.2}
  - {at: 0, action: plant, actuator: feeder, param: KA, value: 0.05}
  - {at: 0.02, action: plant, actuator: side, param: kv, value: 0.2}
  - {at: 0.04, action: plant, actuator: top, param: jerk, value: 1}
`)

	out, err := RunScenario(context.Background(), sc, nil, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out.Fired).To(HaveLen(4))
	g.Expect(out.Fired[0].Err).NotTo(HaveOccurred())
	g.Expect(out.Fired[1].Err).NotTo(HaveOccurred())
	g.Expect(errors.Is(out.Fired[2].Err, dynamo.ErrUnknownActuator)).To(BeTrue())
	g.Expect(out.Fired[3].Err).To(HaveOccurred())
	g.Expect(out.Passed()).To(BeFalse())

	top := out.Rig.Group.Actuator(motor.Leader).(*hal.SimMotor)
	g.Expect(top.Plant().(*physics.Flywheel).Kv).To(Equal(0.2))
	feeder := out.Rig.Group.Actuator(motor.Feeder).(*hal.SimMotor)
	g.Expect(feeder.Plant().(*physics.Flywheel).Ka).To(Equal(0.05))
}

func TestFailedCheckIsReported(t *testing.T) {
	g := NewWithT(t)
	sc := mustParse(t, `
preset: velocity-timed
duration: 1
events:
  - {at: 0, action: start}
checks:
  - {at: 0.5, phase: Feeding}
  - {at: 9, phase: Stopped}
`)

	out, err := RunScenario(context.Background(), sc, config.DefaultConfig(), nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out.Passed()).To(BeFalse())
	g.Expect(out.Failures).To(HaveLen(2))
	g.Expect(out.Failures[0]).To(ContainSubstring("phase SpinningUp, want Feeding"))
}

func TestShotPreemptsCharacterization(t *testing.T) {
	g := NewWithT(t)
	sc := mustParse(t, `
duration: 1
events:
  - {at: 0, action: characterize, actuator: bottom, mode: dynamic}
  - {at: 0.6, action: start}
checks:
  - {at: 0.5, phase: Characterizing}
  - {at: 0.7, phase: SpinningUp}
`)

	out, err := RunScenario(context.Background(), sc, nil, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out.Passed()).To(BeTrue())

	logs := out.Rig.Characterizer.Logs(subsystem.Bottom)
	g.Expect(logs).To(HaveLen(1))
	g.Expect(logs[0].Len()).To(Equal(30))
}

func TestEventErrorsAreRecorded(t *testing.T) {
	g := NewWithT(t)
	sc := mustParse(t, `
duration: 0.1
events:
  - {at: 0, action: characterize, actuator: feeder, mode: dynamic}
`)

	out, err := RunScenario(context.Background(), sc, nil, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out.Fired).To(HaveLen(1))
	g.Expect(out.Fired[0].Err).To(HaveOccurred())
	g.Expect(out.Passed()).To(BeFalse())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no duration", "events: []", "duration"},
		{"late event", "duration: 1\nevents:\n  - {at: 2, action: start}", "outside"},
		{"unknown action", "duration: 1\nevents:\n  - {at: 0, action: fire}", "unknown action"},
		{"set without param", "duration: 1\nevents:\n  - {at: 0, action: set, value: 3}", "param"},
		{"bad mode", "duration: 1\nevents:\n  - {at: 0, action: characterize, actuator: top, mode: sine}", "mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestUnknownPreset(t *testing.T) {
	sc := &Scenario{Preset: "prototype", Duration: 1}
	if _, err := RunScenario(context.Background(), sc, nil, nil); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestRunSweep(t *testing.T) {
	g := NewWithT(t)

	results, err := RunSweep(context.Background(), &ParameterSweep{
		Param:    params.SpinUpTime,
		Min:      0.5,
		Max:      1.5,
		NumSteps: 3,
		Limit:    5 * time.Second,
	}, config.GetPreset("velocity-timed"), nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(3))

	for i, want := range []float64{0.5, 1.0, 1.5} {
		g.Expect(results[i].ParamValue).To(BeNumerically("~", want, 1e-12))
		g.Expect(results[i].Metrics["spin_up_time"]).To(BeNumerically("~", want, 1e-9))
	}
}

func TestRunMonteCarlo(t *testing.T) {
	g := NewWithT(t)

	base := config.GetPreset("velocity-timed")
	mc := &MonteCarloConfig{Perturbation: 0.05, NumTrials: 4, Limit: 5 * time.Second, Seed: 7}

	first, err := RunMonteCarlo(context.Background(), mc, base, nil)
	g.Expect(err).NotTo(HaveOccurred())
	second, err := RunMonteCarlo(context.Background(), mc, base, nil)
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(first).To(HaveLen(4))
	for i := range first {
		g.Expect(first[i].Plant).To(Equal(second[i].Plant))
		g.Expect(first[i].Plant).NotTo(Equal(base.Plant.Top))
	}

	reached, missed := MonteCarloStats(first)
	g.Expect(reached + missed).To(Equal(4))
	// time-based spin-up always feeds
	g.Expect(reached).To(Equal(4))
	g.Expect(base.Plant.Bottom.IsZero()).To(BeTrue())
}
