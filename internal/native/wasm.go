package native

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// WebAssembly module ABI.
//
// The module exports linear memory as "memory" and an allocator
// "alloc(bytes i32) i32". Every entry point takes a (ptr i32, len i32) pair
// per argument array, where len counts float64 elements stored little
// endian, and returns an i64 packing (outPtr << 32) | outLen. A negative
// return value signals failure.
//
// An optional "reset() -> ()" export releases everything alloc handed out.
// It is called at the start of every entry point call, once the previous
// result has been copied out. Modules without it must free or reuse memory
// on their own; a bump allocator without reset eventually runs out of
// pages and every later call fails.
const (
	wasmMemoryExport = "memory"
	wasmAllocExport  = "alloc"
	wasmResetExport  = "reset"
	wasiModuleName   = "wasi_snapshot_preview1"
	maxDecodedModule = 256 << 20
)

// WasmRuntime runs a compiled WebAssembly module through wazero.
type WasmRuntime struct {
	name   string
	source func() ([]byte, error)
}

// NewWasmRuntime creates a runtime over an in-memory module binary.
func NewWasmRuntime(name string, wasm []byte) *WasmRuntime {
	return &WasmRuntime{name: name, source: func() ([]byte, error) { return wasm, nil }}
}

// NewWasmRuntimeFromFile creates a runtime that reads its module from path
// when first loaded. Files ending in ".zst" are zstd-decompressed. A missing
// file means native execution is unavailable rather than an error.
func NewWasmRuntimeFromFile(path string) *WasmRuntime {
	return &WasmRuntime{
		name:   strings.TrimSuffix(filepath.Base(path), ".zst"),
		source: func() ([]byte, error) { return readModuleFile(path) },
	}
}

func readModuleFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return raw, nil
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(maxDecodedModule))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	return out, nil
}

// IsFeatureSupported implements Runtime. wazero implements the fixed-width
// SIMD proposal but not shared-memory threads; host-specific vector
// extensions are not visible to guest code.
func (r *WasmRuntime) IsFeatureSupported(f Feature) bool {
	return f == FeatureSIMD
}

// LoadModule implements Runtime.
func (r *WasmRuntime) LoadModule(ctx context.Context) (Module, error) {
	code, err := r.source()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read wasm module: %w", err)
	}

	// Calls check their context before entering the guest. Closing the module
	// on context done would take it down for every later caller.
	rt := wazero.NewRuntime(ctx)
	compiled, err := rt.CompileModule(ctx, code)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("compile wasm module: %w", err)
	}
	if importsWASI(compiled) {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("instantiate wasi: %w", err)
		}
	}
	mod, err := rt.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName(r.name).WithStartFunctions("_initialize"))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("instantiate wasm module: %w", err)
	}
	return &wasmModule{name: r.name, runtime: rt, mod: mod}, nil
}

func importsWASI(compiled wazero.CompiledModule) bool {
	for _, def := range compiled.ImportedFunctions() {
		if module, _, ok := def.Import(); ok && module == wasiModuleName {
			return true
		}
	}
	return false
}

type wasmModule struct {
	name    string
	runtime wazero.Runtime
	mod     api.Module

	// Guest memory and the bump allocator are not safe for concurrent
	// calls.
	mu sync.Mutex
}

func (m *wasmModule) Name() string { return m.name }

func (m *wasmModule) Lookup(name string) (EntryPoint, bool) {
	fn := m.mod.ExportedFunction(name)
	alloc := m.mod.ExportedFunction(wasmAllocExport)
	mem := m.mod.ExportedMemory(wasmMemoryExport)
	if fn == nil || alloc == nil || mem == nil {
		return nil, false
	}
	def := fn.Definition()
	params, results := def.ParamTypes(), def.ResultTypes()
	if len(params)%2 != 0 || len(results) != 1 || results[0] != api.ValueTypeI64 {
		return nil, false
	}
	for _, p := range params {
		if p != api.ValueTypeI32 {
			return nil, false
		}
	}
	arity := len(params) / 2
	reset := m.mod.ExportedFunction(wasmResetExport)
	if reset != nil {
		rd := reset.Definition()
		if len(rd.ParamTypes()) != 0 || len(rd.ResultTypes()) != 0 {
			reset = nil
		}
	}

	return func(ctx context.Context, args ...[]float64) ([]float64, error) {
		if len(args) != arity {
			return nil, fmt.Errorf("%w: %s takes %d arrays, got %d", ErrMalformedResult, name, arity, len(args))
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		m.mu.Lock()
		defer m.mu.Unlock()

		if reset != nil {
			if _, err := reset.Call(ctx); err != nil {
				return nil, fmt.Errorf("%s: reset: %w", name, err)
			}
		}
		stack := make([]uint64, 0, len(params))
		for _, arg := range args {
			ptr, err := m.write(ctx, alloc, mem, arg)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			stack = append(stack, api.EncodeU32(ptr), api.EncodeU32(uint32(len(arg))))
		}

		res, err := fn.Call(ctx, stack...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		packed := int64(res[0])
		if packed < 0 {
			return nil, fmt.Errorf("%s: guest returned error code %d", name, packed)
		}
		outPtr, outLen := uint32(uint64(packed)>>32), uint32(packed)
		return m.read(mem, outPtr, outLen)
	}, true
}

func (m *wasmModule) write(ctx context.Context, alloc api.Function, mem api.Memory, values []float64) (uint32, error) {
	size := uint64(len(values)) * 8
	if size > math.MaxUint32 {
		return 0, fmt.Errorf("argument of %d elements exceeds guest address space", len(values))
	}
	res, err := alloc.Call(ctx, api.EncodeU32(uint32(size)))
	if err != nil {
		return 0, fmt.Errorf("alloc: %w", err)
	}
	ptr := api.DecodeU32(res[0])
	buf := make([]byte, size)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	if !mem.Write(ptr, buf) {
		return 0, fmt.Errorf("%w: alloc returned out-of-range pointer %d", ErrMalformedResult, ptr)
	}
	return ptr, nil
}

func (m *wasmModule) read(mem api.Memory, ptr, n uint32) ([]float64, error) {
	if uint64(n)*8 > math.MaxUint32 {
		return nil, fmt.Errorf("%w: result length %d", ErrMalformedResult, n)
	}
	buf, ok := mem.Read(ptr, n*8)
	if !ok {
		return nil, fmt.Errorf("%w: result [%d, +%d) outside guest memory", ErrMalformedResult, ptr, n*8)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out, nil
}

func (m *wasmModule) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}
