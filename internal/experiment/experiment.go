package experiment

import (
	"context"
	"fmt"

	"github.com/pr-riad/MPPT-P-O/internal/config"
	"github.com/pr-riad/MPPT-P-O/internal/metrics"
	"github.com/pr-riad/MPPT-P-O/internal/mppt"
	"github.com/pr-riad/MPPT-P-O/internal/pv"
	"github.com/pr-riad/MPPT-P-O/internal/sim"
)

// Experiment wires a configured tracking run: panel, controller, converter,
// default metrics. The run, sweep and bench commands all build through here.
type Experiment struct {
	cfg    *config.Config
	runner *sim.Runner
	panel  pv.Source
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup constructs the loop components from the configuration. The noisy
// wrapper is applied after the max-power scan so metrics are measured
// against the clean curve.
func (e *Experiment) Setup(registry *Registry) error {
	panel, err := registry.GetPanel(e.cfg.Panel, e.cfg.PanelParams)
	if err != nil {
		return err
	}
	e.panel = panel

	conv, err := registry.GetConverter(e.cfg.Converter, e.cfg.Sim.ConverterGain)
	if err != nil {
		return err
	}

	ctrl, err := mppt.New(e.cfg.MPPTConfig())
	if err != nil {
		return err
	}

	e.runner = sim.New(ApplyNoise(panel, e.cfg.Sim), ctrl, conv)
	for _, m := range e.defaultMetrics() {
		e.runner.AddMetric(m)
	}
	return nil
}

// ApplyNoise wraps panel with the configured, seeded measurement noise.
// A zero sigma returns the panel unchanged.
func ApplyNoise(panel pv.Source, simCfg config.SimConfig) pv.Source {
	if simCfg.NoiseSigma > 0 {
		return pv.NewNoisy(panel, simCfg.NoiseSigma, simCfg.Seed)
	}
	return panel
}

func (e *Experiment) defaultMetrics() []sim.Metric {
	_, pmax := pv.MaxPower(e.panel, e.cfg.Tracker.MinVoltage, e.cfg.Tracker.MaxVoltage)
	return []sim.Metric{
		metrics.NewEfficiency(pmax),
		metrics.NewConvergence(pmax, 0.05),
		metrics.NewRipple(50),
	}
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.runner == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.runner.Run(ctx, sim.Config{
		Duration: e.cfg.Sim.Duration,
		RealTime: e.cfg.Sim.RealTime,
	})
}

// Runner returns the underlying runner for adding observers.
func (e *Experiment) Runner() *sim.Runner { return e.runner }

// MaxPowerPoint returns the clean panel's maximum power point within the
// tracker's voltage window.
func (e *Experiment) MaxPowerPoint() (voltage, power float64) {
	return pv.MaxPower(e.panel, e.cfg.Tracker.MinVoltage, e.cfg.Tracker.MaxVoltage)
}
