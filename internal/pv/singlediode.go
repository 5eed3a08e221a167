package pv

import "math"

// SingleDiode approximates a real cell string with the classic
// exponential-knee curve:
//
//	I(v) = Irradiance · Isc · (1 − exp((v − Voc)/a))
//
// Current holds near Isc until the knee, then falls steeply to zero at the
// open-circuit voltage. Negative results past Voc are clipped to zero.
type SingleDiode struct {
	Isc        float64 // Short-circuit current (A)
	Voc        float64 // Open-circuit voltage (V)
	Shape      float64 // Thermal-voltage-scale knee sharpness (V)
	Irradiance float64 // Relative irradiance, 1.0 = full sun
}

func NewSingleDiode() *SingleDiode {
	return &SingleDiode{
		Isc:        5.0,
		Voc:        21.0,
		Shape:      1.2,
		Irradiance: 1.0,
	}
}

func (s *SingleDiode) Current(voltage float64) float64 {
	i := s.Irradiance * s.Isc * (1 - math.Exp((voltage-s.Voc)/s.Shape))
	if i < 0 {
		return 0
	}
	return i
}

// GetParams implements Tunable
func (s *SingleDiode) GetParams() map[string]float64 {
	return map[string]float64{
		"isc":        s.Isc,
		"voc":        s.Voc,
		"shape":      s.Shape,
		"irradiance": s.Irradiance,
	}
}

// SetParam implements Tunable
func (s *SingleDiode) SetParam(name string, value float64) {
	switch name {
	case "isc":
		s.Isc = value
	case "voc":
		s.Voc = value
	case "shape":
		s.Shape = value
	case "irradiance":
		s.Irradiance = value
	}
}
