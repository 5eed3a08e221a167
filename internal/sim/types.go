package sim

import (
	"github.com/pr-riad/MPPT-P-O/internal/mppt"
)

// Sample is one period of the tracking loop: the measurements fed to the
// controller and the reference it answered with.
type Sample struct {
	Step      int
	Time      float64
	Voltage   float64
	Current   float64
	Power     float64
	Reference float64
	Action    mppt.Action
}

// Observer receives every sample as the loop produces it.
type Observer interface {
	OnSample(s Sample)
}

// Metric accumulates a scalar over a run.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Config drives one tracking run. Randomness is seeded where the noise
// source is constructed, not here.
type Config struct {
	Duration float64 // Simulated seconds
	RealTime bool    // Pace iterations at the controller's sample time
}

// Result collects the trace and metric values of a run.
type Result struct {
	Samples []Sample
	Metrics map[string]float64
}
