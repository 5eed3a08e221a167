package metrics

import (
	"github.com/pr-riad/MPPT-P-O/internal/sim"
)

// Efficiency reports mean harvested power as a fraction of the panel's
// maximum power point.
type Efficiency struct {
	name     string
	maxPower float64
	sum      float64
	samples  int
}

func NewEfficiency(maxPower float64) *Efficiency {
	return &Efficiency{
		name:     "efficiency",
		maxPower: maxPower,
	}
}

func (e *Efficiency) Name() string { return e.name }

func (e *Efficiency) Observe(s sim.Sample) {
	e.sum += s.Power
	e.samples++
}

func (e *Efficiency) Value() float64 {
	if e.samples == 0 || e.maxPower == 0 {
		return 0
	}
	return e.sum / float64(e.samples) / e.maxPower
}

func (e *Efficiency) Reset() {
	e.sum = 0
	e.samples = 0
}
