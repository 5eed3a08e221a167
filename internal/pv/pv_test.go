package pv

import (
	"math"
	"testing"
)

func TestGaussianPeakCurrent(t *testing.T) {
	g := NewGaussian()

	if got := g.Current(g.PeakVoltage); math.Abs(got-g.Imax) > 1e-12 {
		t.Errorf("expected peak current %f at %f V, got %f", g.Imax, g.PeakVoltage, got)
	}
	if g.Current(0) >= g.Current(g.PeakVoltage) {
		t.Error("expected current to fall off away from the peak")
	}
}

func TestGaussianMaxPowerNearPeak(t *testing.T) {
	g := NewGaussian()

	v, p := MaxPower(g, 10, 45)
	// The power peak sits slightly above the current peak because P = V·I.
	if v < 17 || v > 20 {
		t.Errorf("expected maximum power between 17 and 20 V, got %f", v)
	}
	if p <= 0 {
		t.Errorf("expected positive maximum power, got %f", p)
	}
}

func TestGaussianIrradianceScaling(t *testing.T) {
	g := NewGaussian()
	full := g.Current(17)

	g.SetParam("irradiance", 0.5)
	if got := g.Current(17); math.Abs(got-full/2) > 1e-12 {
		t.Errorf("expected half current at half irradiance, got %f", got)
	}
}

func TestSingleDiodeShape(t *testing.T) {
	s := NewSingleDiode()

	if got := s.Current(0); math.Abs(got-s.Isc) > 0.01 {
		t.Errorf("expected short-circuit current near %f at 0 V, got %f", s.Isc, got)
	}
	if got := s.Current(s.Voc); math.Abs(got) > 0.01 {
		t.Errorf("expected near-zero current at open-circuit voltage, got %f", got)
	}
	if got := s.Current(s.Voc + 10); got != 0 {
		t.Errorf("expected clipped current above open circuit, got %f", got)
	}
}

func TestSingleDiodeMaxPower(t *testing.T) {
	s := NewSingleDiode()

	v, p := MaxPower(s, 0, s.Voc)
	if v <= 0 || v >= s.Voc {
		t.Errorf("expected maximum power strictly inside (0, Voc), got %f", v)
	}
	if p <= 0 {
		t.Errorf("expected positive maximum power, got %f", p)
	}
}

func TestNoisyReproducible(t *testing.T) {
	a := NewNoisy(NewGaussian(), 0.05, 42)
	b := NewNoisy(NewGaussian(), 0.05, 42)

	for i := 0; i < 100; i++ {
		v := 10 + float64(i)*0.3
		if a.Current(v) != b.Current(v) {
			t.Fatal("same seed produced different noise sequences")
		}
	}
}

func TestNoisyZeroSigma(t *testing.T) {
	g := NewGaussian()
	n := NewNoisy(g, 0, 1)

	for _, v := range []float64{10, 17, 30} {
		if n.Current(v) != g.Current(v) {
			t.Errorf("expected zero-sigma wrapper to pass through at %f V", v)
		}
	}
}

func TestNoisyDelegatesTunable(t *testing.T) {
	n := NewNoisy(NewGaussian(), 0.05, 1)

	params := n.GetParams()
	if params["peak"] != 17 {
		t.Fatalf("expected delegated peak param 17, got %f", params["peak"])
	}

	n.SetParam("peak", 20)
	if n.Unwrap().(*Gaussian).PeakVoltage != 20 {
		t.Error("expected SetParam to reach the wrapped source")
	}
}
