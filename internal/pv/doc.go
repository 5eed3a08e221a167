// Package pv provides photovoltaic source models for the tracking loop.
//
// Each model implements the [Source] interface, mapping an operating voltage
// to the current the panel delivers at that voltage:
//
//   - [Gaussian]: bell-shaped I-V curve with a single power peak
//   - [SingleDiode]: exponential-knee curve shaped like a real cell
//   - [Noisy]: wraps any source with seeded gaussian measurement noise
//
// Models also implement [Tunable] for runtime parameter adjustment from the
// live view (irradiance, peak position).
package pv
