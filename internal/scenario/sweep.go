package scenario

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/san-kum/flywheel/internal/config"
	"github.com/san-kum/flywheel/internal/experiment"
)

// ParameterSweep shoots once per value of a live parameter.
type ParameterSweep struct {
	Param    string
	Min      float64
	Max      float64
	NumSteps int
	Limit    time.Duration
}

// SweepResult holds the shot metrics for one parameter value.
type SweepResult struct {
	ParamValue float64
	Metrics    map[string]float64
	Ticks      int
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, base *config.Config, logger *log.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step")
	}
	results := make([]SweepResult, 0, sweep.NumSteps)

	step := 0.0
	if sweep.NumSteps > 1 {
		step = (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		val := sweep.Min + float64(i)*step

		rig, err := experiment.Build(base, experiment.Options{})
		if err != nil {
			return nil, err
		}
		rig.Store.Set(sweep.Param, val)

		result, err := rig.Shoot(ctx, sweep.Limit)
		if err != nil {
			return results, err
		}
		results = append(results, SweepResult{ParamValue: val, Metrics: result.Metrics, Ticks: result.Ticks})

		if logger != nil {
			logger.Printf("sweep %d/%d: %s=%.4f", i+1, sweep.NumSteps, sweep.Param, val)
		}
	}
	return results, nil
}

// MonteCarloConfig perturbs the simulated plant to see how the tuned gains
// hold up against wheels that differ from the model.
type MonteCarloConfig struct {
	Perturbation float64 // relative, e.g. 0.1 for +/-10%
	NumTrials    int
	Limit        time.Duration
	Seed         int64
}

type MonteCarloResult struct {
	TrialID int
	Plant   config.WheelConfig
	Metrics map[string]float64
	// Reached is false when the wheel never got to Feeding.
	Reached bool
}

// RunMonteCarlo executes multiple shots with random plant perturbations
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, base *config.Config, logger *log.Logger) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, 0, mc.NumTrials)

	rng := rand.New(rand.NewSource(mc.Seed))
	if mc.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	perturb := func(v float64) float64 {
		return v * (1 + (rng.Float64()-0.5)*2*mc.Perturbation)
	}

	for trial := 0; trial < mc.NumTrials; trial++ {
		cfg := *base
		cfg.Channels = append(cfg.Channels[:0:0], base.Channels...)
		cfg.Plant.Top = config.WheelConfig{
			Ks: perturb(base.Plant.Top.Ks),
			Kv: perturb(base.Plant.Top.Kv),
			Ka: perturb(base.Plant.Top.Ka),
		}
		bottom := base.BottomPlant()
		cfg.Plant.Bottom = config.WheelConfig{
			Ks: perturb(bottom.Ks),
			Kv: perturb(bottom.Kv),
			Ka: perturb(bottom.Ka),
		}

		rig, err := experiment.Build(&cfg, experiment.Options{})
		if err != nil {
			return nil, err
		}
		result, err := rig.Shoot(ctx, mc.Limit)
		if err != nil {
			return results, err
		}

		results = append(results, MonteCarloResult{
			TrialID: trial,
			Plant:   cfg.Plant.Top,
			Metrics: result.Metrics,
			Reached: reachedFeeding(result.Snapshots),
		})

		if logger != nil && (trial+1)%10 == 0 {
			logger.Printf("monte carlo: %d/%d trials complete", trial+1, mc.NumTrials)
		}
	}
	return results, nil
}

// MonteCarloStats counts trials that did and did not reach Feeding.
func MonteCarloStats(results []MonteCarloResult) (reached int, missed int) {
	for _, r := range results {
		if r.Reached {
			reached++
		} else {
			missed++
		}
	}
	return
}
