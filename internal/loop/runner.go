// Package loop is the fixed-period cooperative scheduler. Every component
// is driven from one tick; nothing runs on its own goroutine.
package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/flywheel/internal/dynamo"
)

// Subsystem is what the runner ticks.
type Subsystem interface {
	OnTick()
	Periodic()
	Snapshot() dynamo.Snapshot
}

// Plant advances the simulated hardware by dt seconds.
type Plant interface {
	Step(dt float64)
}

// Hook runs before the subsystem on every tick. Scenario events and
// operator input enter here.
type Hook func(tick int, now time.Duration)

type Config struct {
	Period   time.Duration
	Duration time.Duration
	// Realtime paces ticks against the wall clock instead of running as
	// fast as possible.
	Realtime bool
}

type Result struct {
	Snapshots []dynamo.Snapshot
	Metrics   map[string]float64
	Ticks     int
}

// Final is the last snapshot, or the zero value for an empty run.
func (r *Result) Final() dynamo.Snapshot {
	if len(r.Snapshots) == 0 {
		return dynamo.Snapshot{}
	}
	return r.Snapshots[len(r.Snapshots)-1]
}

type Runner struct {
	sub       Subsystem
	plant     Plant
	clock     *dynamo.ManualClock
	hooks     []Hook
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	until     func(tick int, snap dynamo.Snapshot) bool
}

func New(sub Subsystem, plant Plant, clock *dynamo.ManualClock) *Runner {
	return &Runner{
		sub:       sub,
		plant:     plant,
		clock:     clock,
		hooks:     make([]Hook, 0),
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
}

func (r *Runner) AddHook(h Hook)                { r.hooks = append(r.hooks, h) }
func (r *Runner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }

// StopWhen ends a run early once fn reports true for a tick's snapshot.
func (r *Runner) StopWhen(fn func(tick int, snap dynamo.Snapshot) bool) { r.until = fn }

// Run ticks from time zero. Tick i happens at i*Period; the plant is
// stepped after the subsystem has commanded it.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Period)
	result := &Result{
		Snapshots: make([]dynamo.Snapshot, 0, steps),
		Metrics:   make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	var ticker *time.Ticker
	if cfg.Realtime {
		ticker = time.NewTicker(cfg.Period)
		defer ticker.Stop()
	}

	for i := 0; i < steps; i++ {
		if ticker != nil && i > 0 {
			select {
			case <-ctx.Done():
				r.collect(result)
				return result, ctx.Err()
			case <-ticker.C:
			}
		} else {
			select {
			case <-ctx.Done():
				r.collect(result)
				return result, ctx.Err()
			default:
			}
		}

		snap := r.Tick(i, cfg.Period)
		result.Snapshots = append(result.Snapshots, snap)
		result.Ticks++

		if r.until != nil && r.until(i, snap) {
			break
		}
	}

	r.collect(result)
	return result, nil
}

// Tick runs tick i by itself. Run uses it for every tick; interactive
// callers drive it directly.
func (r *Runner) Tick(i int, period time.Duration) dynamo.Snapshot {
	now := time.Duration(i) * period
	r.clock.Set(now)
	for _, h := range r.hooks {
		h(i, now)
	}

	r.sub.OnTick()
	r.sub.Periodic()
	snap := r.sub.Snapshot()

	for _, m := range r.metrics {
		m.Observe(snap)
	}
	for _, obs := range r.observers {
		obs.OnTick(snap)
	}

	r.plant.Step(period.Seconds())
	return snap
}

// Metrics reports the current value of every metric.
func (r *Runner) Metrics() map[string]float64 {
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (r *Runner) collect(result *Result) {
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if cfg.Period <= 0 {
		return fmt.Errorf("tick period must be positive, got %v", cfg.Period)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", cfg.Duration)
	}
	return nil
}
