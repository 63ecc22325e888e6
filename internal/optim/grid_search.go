// Package optim tunes loop gains by searching over simulated shots.
package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/san-kum/flywheel/internal/config"
	"github.com/san-kum/flywheel/internal/experiment"
)

// Objective scores one parameter set; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	// Workers bounds concurrent evaluations; zero means GOMAXPROCS.
	Workers int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

type Candidate struct {
	Params map[string]float64
	Score  float64
	Err    error
}

// Candidates expands the grid in order, first parameter slowest.
func (g *GridSearch) Candidates() []map[string]float64 {
	out := make([]map[string]float64, 0)
	g.expand(0, make(map[string]float64), &out)
	return out
}

func (g *GridSearch) expand(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[paramName] = val
		g.expand(depth+1, next, out)
	}
}

// Evaluate scores every candidate. Each evaluation runs on its own rig, so
// they proceed in parallel.
func (g *GridSearch) Evaluate(ctx context.Context, objective Objective) []Candidate {
	grid := g.Candidates()
	results := make([]Candidate, len(grid))

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, params := range grid {
		wg.Add(1)
		go func(idx int, params map[string]float64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			score, err := objective(ctx, params)
			results[idx] = Candidate{Params: params, Score: score, Err: err}
		}(i, params)
	}
	wg.Wait()

	return results
}

// Search returns the lowest-scoring parameters. Ties go to the earlier
// grid point. Failed evaluations are skipped unless every one failed.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var lastErr error

	for _, c := range g.Evaluate(ctx, objective) {
		if c.Err != nil {
			lastErr = c.Err
			continue
		}
		if c.Score < best {
			best = c.Score
			bestParams = c.Params
		}
	}

	if bestParams == nil {
		if lastErr == nil {
			lastErr = fmt.Errorf("empty grid")
		}
		return nil, 0, lastErr
	}
	return bestParams, best, nil
}

// ShotObjective scores gains by shooting once on a fresh rig built from base
// with the candidate gains applied. in_band is inverted so that lower is
// better for every metric.
func ShotObjective(base *config.Config, metric string, limit time.Duration) Objective {
	return func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg := *base
		cfg.Channels = append(cfg.Channels[:0:0], base.Channels...)
		for name, val := range params {
			if err := cfg.Gains.SetParam(name, val); err != nil {
				return 0, err
			}
		}

		rig, err := experiment.Build(&cfg, experiment.Options{})
		if err != nil {
			return 0, err
		}
		result, err := rig.Shoot(ctx, limit)
		if err != nil {
			return 0, err
		}

		v, ok := result.Metrics[metric]
		if !ok {
			return 0, fmt.Errorf("unknown metric: %s", metric)
		}
		if metric == "in_band" {
			return 1 - v, nil
		}
		return v, nil
	}
}

// Linspace returns n evenly spaced values from min to max inclusive.
func Linspace(min, max float64, n int) []float64 {
	if n <= 1 {
		return []float64{min}
	}
	out := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	return out
}
