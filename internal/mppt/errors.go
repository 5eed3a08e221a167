package mppt

import "errors"

// Configuration errors reported by New.
var (
	// ErrStepSize indicates a zero or negative perturbation step.
	ErrStepSize = errors.New("mppt: step size must be positive")

	// ErrVoltageBounds indicates min voltage is not strictly below max voltage.
	ErrVoltageBounds = errors.New("mppt: min voltage must be below max voltage")

	// ErrSampleTime indicates a zero or negative sample period.
	ErrSampleTime = errors.New("mppt: sample time must be positive")

	// ErrHistoryLimit indicates a negative history cap.
	ErrHistoryLimit = errors.New("mppt: history limit must not be negative")
)
