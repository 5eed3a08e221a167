// Package mppt implements Perturb-and-Observe maximum power point tracking.
//
// The package provides a single stateful controller driven once per sample
// period by the owning control loop:
//
//	ctrl, err := mppt.New(mppt.Config{StepSize: 0.5, MinVoltage: 10, MaxVoltage: 45, SampleTime: 0.2})
//	ref := ctrl.Update(vMeasured, iMeasured)
//
// Each call perturbs the reference voltage by one step in the direction
// suggested by the sign pattern of the last power and voltage deltas, and
// saturates the result at the configured bounds. The controller keeps an
// append-only history of samples and decisions for diagnostics; the decision
// rule never reads it back.
//
// # Thread Safety
//
// Controller instances are NOT thread-safe. The intended caller is a single
// periodic control task; wrap the controller behind one owning goroutine or a
// mutex when embedding in a concurrent system.
package mppt
