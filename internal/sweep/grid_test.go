package sweep

import (
	"context"
	"testing"

	"github.com/pr-riad/MPPT-P-O/internal/config"
	"github.com/pr-riad/MPPT-P-O/internal/experiment"
)

func buildStepExperiment(t *testing.T) func(map[string]float64) (*experiment.Experiment, error) {
	t.Helper()
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := config.DefaultConfig()
		cfg.Sim.NoiseSigma = 0
		cfg.Sim.Duration = 20
		if v, ok := params["step_size"]; ok {
			cfg.Tracker.StepSize = v
		}

		e := experiment.New(cfg)
		if err := e.Setup(experiment.NewRegistry()); err != nil {
			return nil, err
		}
		return e, nil
	}
}

func TestSearchEvaluatesFullGrid(t *testing.T) {
	g := NewGrid([]string{"step_size"}, [][]float64{{0.25, 0.5, 1.0}})

	best, all, err := g.Search(context.Background(), buildStepExperiment(t), "efficiency", true)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(all) != 3 {
		t.Fatalf("expected 3 evaluated points, got %d", len(all))
	}
	for _, o := range all {
		if o.Score > best.Score {
			t.Errorf("outcome %+v beats reported best %+v", o, best)
		}
	}
	if best.Params["step_size"] == 0 {
		t.Error("expected best outcome to carry its parameters")
	}
}

func TestSearchMinimize(t *testing.T) {
	g := NewGrid([]string{"step_size"}, [][]float64{{0.25, 1.0}})

	best, all, err := g.Search(context.Background(), buildStepExperiment(t), "ripple", false)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	for _, o := range all {
		if o.Score < best.Score {
			t.Errorf("outcome %+v beats reported best %+v", o, best)
		}
	}
	// A finer perturbation step leaves a smaller steady-state ripple.
	if best.Params["step_size"] != 0.25 {
		t.Errorf("expected step 0.25 to minimize ripple, got %f", best.Params["step_size"])
	}
}

func TestSearchMultipleParams(t *testing.T) {
	g := NewGrid([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4, 5}})

	seen := 0
	_, all, err := g.Search(context.Background(), func(params map[string]float64) (*experiment.Experiment, error) {
		seen++
		if params["a"] == 0 || params["b"] == 0 {
			t.Errorf("missing parameter in %+v", params)
		}
		cfg := config.DefaultConfig()
		cfg.Sim.Duration = 1
		e := experiment.New(cfg)
		if err := e.Setup(experiment.NewRegistry()); err != nil {
			return nil, err
		}
		return e, nil
	}, "efficiency", true)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if seen != 6 || len(all) != 6 {
		t.Errorf("expected 2x3 grid points, built %d, evaluated %d", seen, len(all))
	}
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGrid([]string{"step_size"}, [][]float64{{0.5}})
	_, _, err := g.Search(ctx, buildStepExperiment(t), "efficiency", true)
	if err == nil {
		t.Error("expected error from cancelled context")
	}
}
