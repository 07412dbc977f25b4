// Package native is the boundary to the accelerated execution runtime.
//
// A Runtime answers capability probes and loads a Module; a Module resolves
// named entry points that take and return flat []float64 arrays. Loader
// memoizes the first resolution so every dispatcher shares one module, and a
// nil module from the runtime marks native execution unavailable until an
// explicit Reload.
//
// Two runtimes are provided: KernelRuntime serves the in-process kernels
// from package kernels behind CPU feature probes, and WasmRuntime runs a
// compiled WebAssembly module through wazero.
package native
