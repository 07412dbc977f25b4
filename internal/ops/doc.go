// Package ops defines the concrete accelerated operations: numeric
// reductions and vector transforms over float64 slices, a spectral FFT, and
// a descriptive-statistics pipeline.
//
// Each operation pairs a native path, which calls an entry point of the
// loaded native module, with a portable Go fallback that defines the
// operation's reference semantics. Operations are exposed both as typed
// accelerators (NewSum, NewFFT, ...) and as name-addressable Runners held by
// a Factory, which is how the CLI, calibration and server drive them.
package ops
