// Package kernels provides the in-process native entry points served by
// native.KernelRuntime. Every kernel operates on flat []float64 arguments
// and returns a flat []float64, the same calling convention used by the
// WebAssembly runtime, so a kernel can be replaced by a compiled module
// entry of the same name without touching its callers.
//
// Kernels are tuned variants (unrolled accumulators, iterative transforms,
// blocked loops) of the portable implementations in package ops. Scalar
// results are returned as one-element slices.
package kernels
