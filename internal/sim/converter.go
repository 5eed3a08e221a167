package sim

// Converter models the DC-DC actuator that moves the panel's operating
// voltage toward the controller's reference.
type Converter interface {
	// Track consumes the new reference and returns the operating voltage
	// reached by the next sample instant.
	Track(ref float64) float64
}

// Ideal reaches the reference in a single period, which is what the
// controller's design assumes of its actuator.
type Ideal struct{}

func NewIdeal() *Ideal { return &Ideal{} }

func (c *Ideal) Track(ref float64) float64 { return ref }

// Lag approaches the reference with a first-order response, closing a fixed
// fraction of the remaining gap each period. Gain 1 degenerates to Ideal.
type Lag struct {
	Gain    float64
	voltage float64
	primed  bool
}

// NewLag creates a converter that closes gain (0, 1] of the error per period.
func NewLag(gain float64) *Lag {
	if gain <= 0 || gain > 1 {
		gain = 1
	}
	return &Lag{Gain: gain}
}

func (c *Lag) Track(ref float64) float64 {
	if !c.primed {
		c.voltage = ref
		c.primed = true
		return c.voltage
	}
	c.voltage += c.Gain * (ref - c.voltage)
	return c.voltage
}
