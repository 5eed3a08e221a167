package metrics

import (
	"github.com/pr-riad/MPPT-P-O/internal/sim"
)

// Convergence reports the first time the harvested power entered the band
// around the maximum power point and stayed there for the rest of the run.
// A run that never settles reports the last sample time.
type Convergence struct {
	name     string
	maxPower float64
	band     float64
	entered  float64
	inside   bool
	lastTime float64
}

// NewConvergence tracks settling into band (e.g. 0.05 for 5%) of maxPower.
func NewConvergence(maxPower, band float64) *Convergence {
	return &Convergence{
		name:     "convergence_time",
		maxPower: maxPower,
		band:     band,
	}
}

func (c *Convergence) Name() string { return c.name }

func (c *Convergence) Observe(s sim.Sample) {
	c.lastTime = s.Time

	if c.maxPower == 0 {
		return
	}
	within := s.Power >= c.maxPower*(1-c.band)
	if within && !c.inside {
		c.entered = s.Time
		c.inside = true
	} else if !within {
		c.inside = false
	}
}

func (c *Convergence) Value() float64 {
	if c.inside {
		return c.entered
	}
	return c.lastTime
}

func (c *Convergence) Reset() {
	c.entered = 0
	c.inside = false
	c.lastTime = 0
}
