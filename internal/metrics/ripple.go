package metrics

import (
	"math"

	"github.com/pr-riad/MPPT-P-O/internal/sim"
)

// Ripple reports the standard deviation of the reference voltage over the
// final window of a run, the steady-state oscillation P&O trades for
// convergence.
type Ripple struct {
	name   string
	window int
	refs   []float64
}

// NewRipple measures over the last window samples.
func NewRipple(window int) *Ripple {
	if window <= 0 {
		window = 50
	}
	return &Ripple{
		name:   "ripple",
		window: window,
		refs:   make([]float64, 0, window),
	}
}

func (r *Ripple) Name() string { return r.name }

func (r *Ripple) Observe(s sim.Sample) {
	if len(r.refs) == r.window {
		r.refs = r.refs[1:]
	}
	r.refs = append(r.refs, s.Reference)
}

func (r *Ripple) Value() float64 {
	n := len(r.refs)
	if n < 2 {
		return 0
	}

	mean := 0.0
	for _, v := range r.refs {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range r.refs {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(n))
}

func (r *Ripple) Reset() {
	r.refs = r.refs[:0]
}
