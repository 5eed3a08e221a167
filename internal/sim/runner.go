package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/pr-riad/MPPT-P-O/internal/mppt"
	"github.com/pr-riad/MPPT-P-O/internal/pv"
)

// Runner closes the tracking loop around a controller: each period it reads
// the source at the converter's operating voltage, feeds the measurement to
// the controller, and hands the returned reference to the converter.
type Runner struct {
	src       pv.Source
	ctrl      *mppt.Controller
	conv      Converter
	metrics   []Metric
	observers []Observer
}

func New(src pv.Source, ctrl *mppt.Controller, conv Converter) *Runner {
	return &Runner{
		src:       src,
		ctrl:      ctrl,
		conv:      conv,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Controller returns the wrapped controller, for history readout after a run.
func (r *Runner) Controller() *mppt.Controller { return r.ctrl }

// Run executes the loop for cfg.Duration simulated seconds. The operating
// voltage starts at the controller's reference. When cfg.RealTime is set the
// loop is paced by the controller's sample time; otherwise it runs flat out.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := r.validateConfig(cfg); err != nil {
		return nil, err
	}

	dt := r.ctrl.Config().SampleTime
	steps := int(cfg.Duration / dt)
	result := &Result{
		Samples: make([]Sample, 0, steps),
		Metrics: make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	var ticker *time.Ticker
	if cfg.RealTime {
		ticker = time.NewTicker(time.Duration(dt * float64(time.Second)))
		defer ticker.Stop()
	}

	operating := r.ctrl.Reference()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		s := r.step(i, float64(i)*dt, operating)
		operating = r.conv.Track(s.Reference)
		result.Samples = append(result.Samples, s)

		if cfg.RealTime {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// RunWithCallback executes the loop until the callback returns false or the
// duration elapses. Metrics and observers still fire per sample, and
// cfg.RealTime paces iterations just as Run does.
func (r *Runner) RunWithCallback(ctx context.Context, cfg Config, callback func(Sample) bool) error {
	if err := r.validateConfig(cfg); err != nil {
		return err
	}

	dt := r.ctrl.Config().SampleTime
	operating := r.ctrl.Reference()

	var ticker *time.Ticker
	if cfg.RealTime {
		ticker = time.NewTicker(time.Duration(dt * float64(time.Second)))
		defer ticker.Stop()
	}

	for i, t := 0, 0.0; t < cfg.Duration; i, t = i+1, t+dt {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s := r.step(i, t, operating)
		operating = r.conv.Track(s.Reference)

		if !callback(s) {
			return nil
		}

		if cfg.RealTime {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}

// step performs one measure-update-observe cycle at the given operating point.
func (r *Runner) step(i int, t, operating float64) Sample {
	current := r.src.Current(operating)
	ref := r.ctrl.Update(operating, current)

	s := Sample{
		Step:      i,
		Time:      t,
		Voltage:   operating,
		Current:   current,
		Power:     operating * current,
		Reference: ref,
		Action:    r.ctrl.LastAction(),
	}

	for _, m := range r.metrics {
		m.Observe(s)
	}
	for _, obs := range r.observers {
		obs.OnSample(s)
	}
	return s
}

func (r *Runner) validateConfig(cfg Config) error {
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
