package pv

import "math"

// Gaussian models a panel with a bell-shaped I-V curve:
//
//	I(v) = Irradiance · Imax · exp(−Width·(v − PeakVoltage)²)
//
// With the defaults the power peak sits near 17 V.
type Gaussian struct {
	Imax        float64 // Short-circuit-scale current (A)
	PeakVoltage float64 // Voltage of maximum current (V)
	Width       float64 // Curve narrowness
	Irradiance  float64 // Relative irradiance, 1.0 = full sun
}

func NewGaussian() *Gaussian {
	return &Gaussian{
		Imax:        5.0,
		PeakVoltage: 17.0,
		Width:       0.05,
		Irradiance:  1.0,
	}
}

func (g *Gaussian) Current(voltage float64) float64 {
	d := voltage - g.PeakVoltage
	return g.Irradiance * g.Imax * math.Exp(-g.Width*d*d)
}

// GetParams implements Tunable
func (g *Gaussian) GetParams() map[string]float64 {
	return map[string]float64{
		"imax":       g.Imax,
		"peak":       g.PeakVoltage,
		"width":      g.Width,
		"irradiance": g.Irradiance,
	}
}

// SetParam implements Tunable
func (g *Gaussian) SetParam(name string, value float64) {
	switch name {
	case "imax":
		g.Imax = value
	case "peak":
		g.PeakVoltage = value
	case "width":
		g.Width = value
	case "irradiance":
		g.Irradiance = value
	}
}
