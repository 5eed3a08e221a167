package sim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pr-riad/MPPT-P-O/internal/mppt"
	"github.com/pr-riad/MPPT-P-O/internal/pv"
)

func newTestRunner(t *testing.T, conv Converter) *Runner {
	t.Helper()
	ctrl, err := mppt.New(mppt.Config{StepSize: 0.5, MinVoltage: 10, MaxVoltage: 45, SampleTime: 0.2})
	if err != nil {
		t.Fatalf("controller setup failed: %v", err)
	}
	return New(pv.NewGaussian(), ctrl, conv)
}

// countMetric counts samples, enough to prove the metric lifecycle fires.
type countMetric struct{ n int }

func (m *countMetric) Name() string   { return "count" }
func (m *countMetric) Observe(Sample) { m.n++ }
func (m *countMetric) Value() float64 { return float64(m.n) }
func (m *countMetric) Reset()         { m.n = 0 }

type recordObserver struct{ samples []Sample }

func (o *recordObserver) OnSample(s Sample) { o.samples = append(o.samples, s) }

func TestRunProducesExpectedSampleCount(t *testing.T) {
	r := newTestRunner(t, NewIdeal())

	result, err := r.Run(context.Background(), Config{Duration: 10})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// 10 s at 0.2 s per step.
	if len(result.Samples) != 50 {
		t.Errorf("expected 50 samples, got %d", len(result.Samples))
	}
	if result.Samples[0].Step != 0 || result.Samples[0].Time != 0 {
		t.Error("expected first sample at step 0, time 0")
	}
	last := result.Samples[len(result.Samples)-1]
	if math.Abs(last.Time-49*0.2) > 1e-9 {
		t.Errorf("expected final sample time 9.8, got %f", last.Time)
	}
}

func TestRunConvergesTowardMaxPower(t *testing.T) {
	r := newTestRunner(t, NewIdeal())
	_, pmax := pv.MaxPower(pv.NewGaussian(), 10, 45)

	result, err := r.Run(context.Background(), Config{Duration: 30})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	tail := result.Samples[len(result.Samples)-20:]
	var mean float64
	for _, s := range tail {
		mean += s.Power
	}
	mean /= float64(len(tail))

	if mean < 0.9*pmax {
		t.Errorf("expected steady-state power above 90%% of %f, got %f", pmax, mean)
	}
}

func TestRunRejectsBadDuration(t *testing.T) {
	r := newTestRunner(t, NewIdeal())

	for _, d := range []float64{0, -5} {
		if _, err := r.Run(context.Background(), Config{Duration: d}); err == nil {
			t.Errorf("expected error for duration %f", d)
		}
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	r := newTestRunner(t, NewIdeal())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Run(ctx, Config{Duration: 10})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(result.Samples) != 0 {
		t.Errorf("expected no samples after immediate cancel, got %d", len(result.Samples))
	}
}

func TestRunCollectsMetricsAndObservers(t *testing.T) {
	r := newTestRunner(t, NewIdeal())
	m := &countMetric{n: 99} // stale value must be reset by Run
	obs := &recordObserver{}
	r.AddMetric(m)
	r.AddObserver(obs)

	result, err := r.Run(context.Background(), Config{Duration: 2})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Metrics["count"] != 10 {
		t.Errorf("expected metric count 10, got %f", result.Metrics["count"])
	}
	if len(obs.samples) != 10 {
		t.Errorf("expected observer to see 10 samples, got %d", len(obs.samples))
	}
}

func TestRunWithCallbackStopsEarly(t *testing.T) {
	r := newTestRunner(t, NewIdeal())

	seen := 0
	err := r.RunWithCallback(context.Background(), Config{Duration: 100}, func(Sample) bool {
		seen++
		return seen < 5
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if seen != 5 {
		t.Errorf("expected callback stopped at 5 samples, got %d", seen)
	}
}

func TestRunWithCallbackRealTimePacing(t *testing.T) {
	ctrl, err := mppt.New(mppt.Config{StepSize: 0.5, MinVoltage: 10, MaxVoltage: 45, SampleTime: 0.01})
	if err != nil {
		t.Fatalf("controller setup failed: %v", err)
	}
	r := New(pv.NewGaussian(), ctrl, NewIdeal())

	start := time.Now()
	err = r.RunWithCallback(context.Background(), Config{Duration: 0.05, RealTime: true}, func(Sample) bool {
		return true
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Five steps ticked at 10 ms apiece.
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected the loop paced to at least 40ms, finished in %v", elapsed)
	}
}

func TestIdealTracksImmediately(t *testing.T) {
	c := NewIdeal()
	if c.Track(17) != 17 {
		t.Error("expected ideal converter to reach the reference in one period")
	}
}

func TestLagApproachesReference(t *testing.T) {
	c := NewLag(0.5)

	if got := c.Track(10); got != 10 {
		t.Fatalf("expected first call to prime at the reference, got %f", got)
	}
	if got := c.Track(20); math.Abs(got-15) > 1e-12 {
		t.Errorf("expected half the gap closed, got %f", got)
	}
	if got := c.Track(20); math.Abs(got-17.5) > 1e-12 {
		t.Errorf("expected another half gap closed, got %f", got)
	}
}

func TestLagClampsBadGain(t *testing.T) {
	for _, gain := range []float64{0, -1, 1.5} {
		c := NewLag(gain)
		if c.Gain != 1 {
			t.Errorf("expected gain %f coerced to 1, got %f", gain, c.Gain)
		}
	}
}
