package native

import (
	"context"
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/agbru/tieraccel/internal/kernels"
)

// KernelRuntime serves the in-process kernels as a native module. Feature
// probes reflect the host CPU as reported by golang.org/x/sys/cpu.
type KernelRuntime struct {
	catalog  kernels.Catalog
	features map[Feature]bool
}

// KernelOption configures a KernelRuntime.
type KernelOption func(*KernelRuntime)

// WithFeature overrides the detected value of one feature.
func WithFeature(f Feature, supported bool) KernelOption {
	return func(r *KernelRuntime) { r.features[f] = supported }
}

// NewKernelRuntime creates a runtime over catalog.
func NewKernelRuntime(catalog kernels.Catalog, opts ...KernelOption) *KernelRuntime {
	r := &KernelRuntime{catalog: catalog, features: DetectFeatures()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultRuntime returns a KernelRuntime over the built-in kernel catalog.
func DefaultRuntime() Runtime {
	return NewKernelRuntime(kernels.Default())
}

// DetectFeatures probes the host CPU.
func DetectFeatures() map[Feature]bool {
	arm64 := runtime.GOARCH == "arm64"
	return map[Feature]bool{
		FeatureSIMD:    cpu.X86.HasSSE2 || cpu.ARM64.HasASIMD || arm64,
		FeatureAVX2:    cpu.X86.HasAVX2,
		FeatureAVX512:  cpu.X86.HasAVX512F,
		FeatureNEON:    cpu.ARM64.HasASIMD || arm64,
		FeatureFMA:     cpu.X86.HasFMA || arm64,
		FeatureThreads: runtime.NumCPU() > 1,
	}
}

// IsFeatureSupported implements Runtime.
func (r *KernelRuntime) IsFeatureSupported(f Feature) bool {
	return r.features[f]
}

// LoadModule implements Runtime. An empty catalog yields no module.
func (r *KernelRuntime) LoadModule(ctx context.Context) (Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(r.catalog) == 0 {
		return nil, nil
	}
	return &kernelModule{catalog: r.catalog}, nil
}

type kernelModule struct {
	catalog kernels.Catalog
}

func (m *kernelModule) Name() string { return "kernels" }

func (m *kernelModule) Lookup(name string) (EntryPoint, bool) {
	fn, ok := m.catalog[name]
	if !ok {
		return nil, false
	}
	return func(ctx context.Context, args ...[]float64) ([]float64, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fn(args...)
	}, true
}

func (m *kernelModule) Close(context.Context) error { return nil }
