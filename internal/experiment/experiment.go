// Package experiment assembles a complete simulated shooter from a config:
// plant, motor group, sequencer, characterizer, subsystem and tick runner.
package experiment

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/san-kum/flywheel/internal/characterize"
	"github.com/san-kum/flywheel/internal/config"
	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/hal"
	"github.com/san-kum/flywheel/internal/integrators"
	"github.com/san-kum/flywheel/internal/loop"
	"github.com/san-kum/flywheel/internal/motor"
	"github.com/san-kum/flywheel/internal/params"
	"github.com/san-kum/flywheel/internal/shooter"
	"github.com/san-kum/flywheel/internal/subsystem"
	"github.com/san-kum/flywheel/internal/telemetry"
)

type Options struct {
	// Sink receives telemetry in addition to the rig's own table.
	Sink   telemetry.Sink
	Logger *log.Logger
	// Store lets a caller share live parameters with the rig.
	Store *params.Store
	// Realtime paces procedures at the tick period instead of running flat out.
	Realtime bool
}

type Rig struct {
	Config        *config.Config
	Clock         *dynamo.ManualClock
	Bench         *hal.Bench
	Group         *motor.Group
	Store         *params.Store
	Table         *telemetry.Table
	Sequencer     *shooter.Sequencer
	Characterizer *characterize.Characterizer
	Subsystem     *subsystem.Subsystem
	Runner        *loop.Runner

	realtime bool
}

func Build(cfg *config.Config, opts Options) (*Rig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Rig{
		Config: cfg,
		Clock:  &dynamo.ManualClock{},
		Bench:  &hal.Bench{},
		Store:  opts.Store,
		Table:  telemetry.NewTable(),

		realtime: opts.Realtime,
	}
	if r.Store == nil {
		r.Store = params.New()
	}
	cfg.Defaults.Install(r.Store)

	var sink telemetry.Sink = r.Table
	if opts.Sink != nil {
		sink = telemetry.Multi{r.Table, opts.Sink}
	}

	group, err := motor.New(cfg.Coupling, cfg.Gains, cfg.Channels, r.open)
	if err != nil {
		return nil, err
	}
	r.Group = group

	seq, err := shooter.New(cfg.Sequence, group, r.Store, cfg.Defaults, sink, r.Clock)
	if err != nil {
		return nil, err
	}
	r.Sequencer = seq
	r.Characterizer = characterize.New(cfg.Characterization, r.Clock)
	r.Subsystem = subsystem.New(group, seq, r.Characterizer, sink, r.Clock, opts.Logger)

	r.Runner = loop.New(r.Subsystem, r.Bench, r.Clock)
	for _, m := range DefaultMetrics(cfg.Defaults.VelocityTolerance) {
		r.Runner.AddMetric(m)
	}
	return r, nil
}

func (r *Rig) open(ch motor.Channel) hal.Actuator {
	var wheel config.WheelConfig
	switch ch.Role {
	case motor.Leader:
		wheel = r.Config.Plant.Top
	case motor.Follower:
		wheel = r.Config.BottomPlant()
	default:
		wheel = r.Config.Plant.Feeder
	}
	m := hal.NewSimMotor(ch.ID, wheel.Flywheel(), r.Config.Encoder)
	if integ, err := integrators.Get(r.Config.Plant.Integrator); err == nil {
		m.SetIntegrator(integ)
	}
	if r.Config.Plant.BusVoltage > 0 {
		m.SetBusVoltage(r.Config.Plant.BusVoltage)
	}
	return r.Bench.Add(m)
}

func (r *Rig) Period() time.Duration {
	return seconds(r.Config.TickPeriod)
}

func seconds(v float64) time.Duration {
	return time.Duration(math.Round(v * float64(time.Second)))
}

// Shoot starts a shot on the first tick and runs until the subsystem is
// back in its safety stop, or for at most limit.
func (r *Rig) Shoot(ctx context.Context, limit time.Duration) (*loop.Result, error) {
	r.Runner.AddHook(func(tick int, _ time.Duration) {
		if tick == 0 {
			r.Subsystem.StartShot()
		}
	})
	r.Runner.StopWhen(func(tick int, snap dynamo.Snapshot) bool {
		return tick > 0 && snap.Phase == subsystem.PhaseStopped
	})
	return r.Runner.Run(ctx, loop.Config{Period: r.Period(), Duration: limit, Realtime: r.realtime})
}

// Characterize runs one procedure to completion and returns its log.
func (r *Rig) Characterize(ctx context.Context, actuator string, mode characterize.Mode, dir characterize.Direction) (*characterize.Log, *loop.Result, error) {
	var startErr error
	r.Runner.AddHook(func(tick int, _ time.Duration) {
		if tick == 0 {
			startErr = r.Subsystem.StartCharacterization(actuator, mode, dir)
		}
	})
	r.Runner.StopWhen(func(tick int, snap dynamo.Snapshot) bool {
		return startErr != nil || (tick > 0 && snap.Phase != subsystem.PhaseCharacterizing)
	})

	d := r.Config.Characterization.DynamicDuration
	if mode == characterize.QuasiStatic {
		d = r.Config.Characterization.QuasiStaticDuration
	}
	result, err := r.Runner.Run(ctx, loop.Config{Period: r.Period(), Duration: seconds(d) + 2*r.Period(), Realtime: r.realtime})
	if startErr != nil {
		return nil, result, startErr
	}
	if err != nil {
		return nil, result, err
	}

	logs := r.Characterizer.Logs(actuator)
	if len(logs) == 0 {
		return nil, result, fmt.Errorf("characterize %s: no samples captured", actuator)
	}
	return logs[len(logs)-1], result, nil
}
