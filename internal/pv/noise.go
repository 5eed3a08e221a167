package pv

import "math/rand"

// Noisy wraps a source with additive gaussian current noise, emulating
// sensor jitter. The generator is seeded so runs reproduce.
type Noisy struct {
	src   Source
	sigma float64
	rng   *rand.Rand
}

// NewNoisy wraps src with noise of standard deviation sigma amperes.
func NewNoisy(src Source, sigma float64, seed int64) *Noisy {
	return &Noisy{
		src:   src,
		sigma: sigma,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (n *Noisy) Current(voltage float64) float64 {
	return n.src.Current(voltage) + n.rng.NormFloat64()*n.sigma
}

// Unwrap returns the underlying noise-free source.
func (n *Noisy) Unwrap() Source { return n.src }

// GetParams implements Tunable by delegating to the wrapped source.
func (n *Noisy) GetParams() map[string]float64 {
	if t, ok := n.src.(Tunable); ok {
		return t.GetParams()
	}
	return nil
}

// SetParam implements Tunable by delegating to the wrapped source.
func (n *Noisy) SetParam(name string, value float64) {
	if t, ok := n.src.(Tunable); ok {
		t.SetParam(name, value)
	}
}
