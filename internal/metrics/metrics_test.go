package metrics

import (
	"math"
	"testing"

	"github.com/pr-riad/MPPT-P-O/internal/sim"
)

func TestEfficiencyMeanFraction(t *testing.T) {
	e := NewEfficiency(100)

	for _, p := range []float64{80, 90, 100} {
		e.Observe(sim.Sample{Power: p})
	}

	if got := e.Value(); math.Abs(got-0.9) > 1e-12 {
		t.Errorf("expected efficiency 0.9, got %f", got)
	}
}

func TestEfficiencyEmptyAndZeroMax(t *testing.T) {
	if got := NewEfficiency(100).Value(); got != 0 {
		t.Errorf("expected 0 with no samples, got %f", got)
	}

	e := NewEfficiency(0)
	e.Observe(sim.Sample{Power: 50})
	if got := e.Value(); got != 0 {
		t.Errorf("expected 0 with zero max power, got %f", got)
	}
}

func TestEfficiencyReset(t *testing.T) {
	e := NewEfficiency(100)
	e.Observe(sim.Sample{Power: 50})
	e.Reset()
	e.Observe(sim.Sample{Power: 100})

	if got := e.Value(); math.Abs(got-1) > 1e-12 {
		t.Errorf("expected 1 after reset, got %f", got)
	}
}

func TestConvergenceFirstLastingEntry(t *testing.T) {
	c := NewConvergence(100, 0.05)

	// Enters the 95-watt band at t=1, falls out at t=2, re-enters at t=3.
	c.Observe(sim.Sample{Time: 0, Power: 50})
	c.Observe(sim.Sample{Time: 1, Power: 96})
	c.Observe(sim.Sample{Time: 2, Power: 80})
	c.Observe(sim.Sample{Time: 3, Power: 97})
	c.Observe(sim.Sample{Time: 4, Power: 98})

	if got := c.Value(); got != 3 {
		t.Errorf("expected convergence at t=3, got %f", got)
	}
}

func TestConvergenceNeverSettles(t *testing.T) {
	c := NewConvergence(100, 0.05)

	c.Observe(sim.Sample{Time: 0, Power: 50})
	c.Observe(sim.Sample{Time: 5, Power: 60})

	if got := c.Value(); got != 5 {
		t.Errorf("expected last sample time 5, got %f", got)
	}
}

func TestRippleConstantReference(t *testing.T) {
	r := NewRipple(10)

	for i := 0; i < 20; i++ {
		r.Observe(sim.Sample{Reference: 17})
	}

	if got := r.Value(); got != 0 {
		t.Errorf("expected zero ripple for constant reference, got %f", got)
	}
}

func TestRippleWindowedStdDev(t *testing.T) {
	r := NewRipple(4)

	// Old out-of-window samples must not contribute.
	r.Observe(sim.Sample{Reference: 100})
	for _, v := range []float64{16, 18, 16, 18} {
		r.Observe(sim.Sample{Reference: v})
	}

	if got := r.Value(); math.Abs(got-1) > 1e-12 {
		t.Errorf("expected ripple 1, got %f", got)
	}
}

func TestRippleTooFewSamples(t *testing.T) {
	r := NewRipple(10)
	r.Observe(sim.Sample{Reference: 17})

	if got := r.Value(); got != 0 {
		t.Errorf("expected zero ripple with one sample, got %f", got)
	}
}
