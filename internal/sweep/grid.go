// Package sweep runs grids of tracking experiments to rank tuning choices.
package sweep

import (
	"context"
	"math"

	"github.com/pr-riad/MPPT-P-O/internal/experiment"
)

// Grid searches combinations of named parameter values, scoring each
// combination by one metric of a full tracking run.
type Grid struct {
	paramNames []string
	ranges     [][]float64
}

func NewGrid(params []string, ranges [][]float64) *Grid {
	return &Grid{paramNames: params, ranges: ranges}
}

// Outcome is one evaluated grid point.
type Outcome struct {
	Params map[string]float64
	Score  float64
}

// Search evaluates the full grid and returns the best outcome plus every
// evaluated point. When maximize is false, lower scores win.
func (g *Grid) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
	maximize bool,
) (Outcome, []Outcome, error) {

	best := Outcome{Score: math.Inf(1)}
	if maximize {
		best.Score = math.Inf(-1)
	}
	all := make([]Outcome, 0)

	err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, maximize, &best, &all)
	return best, all, err
}

func (g *Grid) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	maximize bool,
	best *Outcome,
	all *[]Outcome,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		exp, err := buildExperiment(current)
		if err != nil {
			return nil
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return nil
		}

		score := result.Metrics[metricName]
		outcome := Outcome{Params: cloneParams(current), Score: score}
		*all = append(*all, outcome)

		if (maximize && score > best.Score) || (!maximize && score < best.Score) {
			*best = outcome
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := cloneParams(current)
		next[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, next, buildExperiment, metricName, maximize, best, all); err != nil {
			return err
		}
	}
	return nil
}

func cloneParams(params map[string]float64) map[string]float64 {
	c := make(map[string]float64, len(params))
	for k, v := range params {
		c[k] = v
	}
	return c
}
