package mppt

import (
	"fmt"
	"math"
)

// Action records the decision taken on one Update call.
type Action string

const (
	// ActionInit marks the first sample, which seeds the previous-sample
	// memory without perturbing the reference.
	ActionInit Action = "init"

	// ActionIncrease and ActionDecrease mark a perturbation by one step.
	ActionIncrease Action = "increase"
	ActionDecrease Action = "decrease"

	// ActionHold marks a rejected non-finite sample; the reference and the
	// previous-sample memory are left untouched.
	ActionHold Action = "hold"
)

// Config holds the immutable controller parameters.
type Config struct {
	// StepSize is the voltage perturbation applied per iteration (V).
	StepSize float64

	// MinVoltage and MaxVoltage bound the reference voltage (V), inclusive.
	MinVoltage float64
	MaxVoltage float64

	// SampleTime is the nominal period between Update calls (s). The
	// controller performs no timing itself; the value paces the caller.
	SampleTime float64

	// HistoryLimit caps the diagnostic history. Zero means unbounded; when
	// positive, the oldest entries are dropped once the cap is reached.
	HistoryLimit int
}

// Validate reports the first configuration contract violation, if any.
func (c Config) Validate() error {
	if c.StepSize <= 0 {
		return fmt.Errorf("%w (got %g)", ErrStepSize, c.StepSize)
	}
	if c.MinVoltage >= c.MaxVoltage {
		return fmt.Errorf("%w (got [%g, %g])", ErrVoltageBounds, c.MinVoltage, c.MaxVoltage)
	}
	if c.SampleTime <= 0 {
		return fmt.Errorf("%w (got %g)", ErrSampleTime, c.SampleTime)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("%w (got %d)", ErrHistoryLimit, c.HistoryLimit)
	}
	return nil
}

// History is an ordered log of observed samples and chosen actions.
// All four slices grow in lockstep, one entry per Update call.
type History struct {
	V      []float64
	I      []float64
	P      []float64
	Action []Action
}

// Len returns the number of recorded samples.
func (h History) Len() int { return len(h.Action) }

// Controller tracks the maximum power point of a photovoltaic source by
// perturbing a voltage reference and observing the resulting power change.
type Controller struct {
	cfg Config

	ref      float64
	prevV    float64
	prevP    float64
	tracking bool

	history History
}

// New validates cfg and returns a controller with the reference seeded to
// the minimum voltage and no prior sample.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		cfg: cfg,
		ref: cfg.MinVoltage,
	}, nil
}

// Config returns the controller configuration.
func (c *Controller) Config() Config { return c.cfg }

// Reference returns the current reference voltage.
func (c *Controller) Reference() float64 { return c.ref }

// Tracking reports whether the controller has observed its first sample.
func (c *Controller) Tracking() bool { return c.tracking }

// LastAction returns the action of the most recent Update, or the empty
// string before the first call.
func (c *Controller) LastAction() Action {
	if n := len(c.history.Action); n > 0 {
		return c.history.Action[n-1]
	}
	return ""
}

// Update consumes one measurement pair and returns the next reference
// voltage, always within [MinVoltage, MaxVoltage]. The first call seeds the
// previous-sample memory and returns the reference unchanged. Non-finite
// measurements are recorded and otherwise ignored, so a sensor glitch never
// corrupts the tracked state or unbounds the reference.
func (c *Controller) Update(voltage, current float64) float64 {
	power := voltage * current

	if !isFinite(voltage) || !isFinite(current) {
		c.record(voltage, current, power, ActionHold)
		return c.ref
	}

	if !c.tracking {
		c.prevV = voltage
		c.prevP = power
		c.tracking = true
		c.record(voltage, current, power, ActionInit)
		return c.ref
	}

	deltaV := voltage - c.prevV
	deltaP := power - c.prevP

	// P&O rule: keep moving while power climbs, reverse when it falls.
	var action Action
	if (deltaP > 0) == (deltaV > 0) {
		c.ref += c.cfg.StepSize
		action = ActionIncrease
	} else {
		c.ref -= c.cfg.StepSize
		action = ActionDecrease
	}

	c.ref = clamp(c.ref, c.cfg.MinVoltage, c.cfg.MaxVoltage)

	c.prevV = voltage
	c.prevP = power
	c.record(voltage, current, power, action)

	return c.ref
}

// History returns a snapshot of the diagnostic log. The returned slices are
// copies; mutating them does not affect the controller.
func (c *Controller) History() History {
	return History{
		V:      append([]float64(nil), c.history.V...),
		I:      append([]float64(nil), c.history.I...),
		P:      append([]float64(nil), c.history.P...),
		Action: append([]Action(nil), c.history.Action...),
	}
}

func (c *Controller) record(v, i, p float64, action Action) {
	if c.cfg.HistoryLimit > 0 && len(c.history.Action) >= c.cfg.HistoryLimit {
		c.history.V = c.history.V[1:]
		c.history.I = c.history.I[1:]
		c.history.P = c.history.P[1:]
		c.history.Action = c.history.Action[1:]
	}
	c.history.V = append(c.history.V, v)
	c.history.I = append(c.history.I, i)
	c.history.P = append(c.history.P, p)
	c.history.Action = append(c.history.Action, action)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
