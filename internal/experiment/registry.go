package experiment

import (
	"fmt"

	"github.com/pr-riad/MPPT-P-O/internal/config"
	"github.com/pr-riad/MPPT-P-O/internal/pv"
	"github.com/pr-riad/MPPT-P-O/internal/sim"
)

type Registry struct {
	panels     map[string]func(config.PanelConfig) pv.Source
	converters map[string]func(gain float64) sim.Converter
}

func NewRegistry() *Registry {
	r := &Registry{
		panels:     make(map[string]func(config.PanelConfig) pv.Source),
		converters: make(map[string]func(float64) sim.Converter),
	}

	r.panels["gaussian"] = func(p config.PanelConfig) pv.Source {
		g := pv.NewGaussian()
		if p.Imax > 0 {
			g.Imax = p.Imax
		}
		if p.Peak > 0 {
			g.PeakVoltage = p.Peak
		}
		if p.Width > 0 {
			g.Width = p.Width
		}
		if p.Irradiance > 0 {
			g.Irradiance = p.Irradiance
		}
		return g
	}
	r.panels["singlediode"] = func(p config.PanelConfig) pv.Source {
		s := pv.NewSingleDiode()
		if p.Isc > 0 {
			s.Isc = p.Isc
		}
		if p.Voc > 0 {
			s.Voc = p.Voc
		}
		if p.Shape > 0 {
			s.Shape = p.Shape
		}
		if p.Irradiance > 0 {
			s.Irradiance = p.Irradiance
		}
		return s
	}

	r.converters["ideal"] = func(float64) sim.Converter { return sim.NewIdeal() }
	r.converters["lag"] = func(gain float64) sim.Converter { return sim.NewLag(gain) }

	return r
}

func (r *Registry) GetPanel(name string, params config.PanelConfig) (pv.Source, error) {
	fn, ok := r.panels[name]
	if !ok {
		return nil, fmt.Errorf("unknown panel model: %s", name)
	}
	return fn(params), nil
}

func (r *Registry) GetConverter(name string, gain float64) (sim.Converter, error) {
	fn, ok := r.converters[name]
	if !ok {
		return nil, fmt.Errorf("unknown converter: %s", name)
	}
	return fn(gain), nil
}

func (r *Registry) ListPanels() []string {
	names := make([]string, 0, len(r.panels))
	for name := range r.panels {
		names = append(names, name)
	}
	return names
}
