package pv

// Source models a photovoltaic panel as a voltage-to-current map.
type Source interface {
	Current(voltage float64) float64
}

// Tunable exposes model parameters for runtime adjustment.
type Tunable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64)
}

// MaxPower scans [vmin, vmax] and returns the panel's maximum power point.
// The scan resolution is fixed at 1000 points, plenty for the smooth curves
// the models produce.
func MaxPower(src Source, vmin, vmax float64) (voltage, power float64) {
	const points = 1000

	voltage = vmin
	step := (vmax - vmin) / points
	for i := 0; i <= points; i++ {
		v := vmin + float64(i)*step
		p := v * src.Current(v)
		if p > power {
			power = p
			voltage = v
		}
	}
	return voltage, power
}
