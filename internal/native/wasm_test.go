package native_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/tieraccel/internal/native"
)

// emptyModule is the smallest valid WebAssembly binary: magic and version.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// echoModule follows the module ABI and exports:
//
//	memory                 one page
//	alloc(n i32) i32       bump allocator starting at 1024
//	echo_f64(p, n) i64     returns (p << 32) | n, i.e. its input unchanged
//	fail_f64(p, n) i64     returns -1
var echoModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type section: (i32)->i32, (i32 i32)->i64
	0x01, 0x0c, 0x02,
	0x60, 0x01, 0x7f, 0x01, 0x7f,
	0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7e,
	// function section: alloc:t0, echo:t1, fail:t1
	0x03, 0x04, 0x03, 0x00, 0x01, 0x01,
	// memory section: min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// global section: mut i32 = 1024
	0x06, 0x07, 0x01, 0x7f, 0x01, 0x41, 0x80, 0x08, 0x0b,
	// export section
	0x07, 0x28, 0x04,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x05, 'a', 'l', 'l', 'o', 'c', 0x00, 0x00,
	0x08, 'e', 'c', 'h', 'o', '_', 'f', '6', '4', 0x00, 0x01,
	0x08, 'f', 'a', 'i', 'l', '_', 'f', '6', '4', 0x00, 0x02,
	// code section
	0x0a, 0x1f, 0x03,
	// alloc: old := heap; heap += n; return old
	0x0b, 0x00, 0x23, 0x00, 0x23, 0x00, 0x20, 0x00, 0x6a, 0x24, 0x00, 0x0b,
	// echo: (i64(p) << 32) | i64(n)
	0x0c, 0x00, 0x20, 0x00, 0xad, 0x42, 0x20, 0x86, 0x20, 0x01, 0xad, 0x84, 0x0b,
	// fail: -1
	0x04, 0x00, 0x42, 0x7f, 0x0b,
}

// resetModule is echoModule plus a "reset() -> ()" export that rewinds the
// bump allocator to 1024.
var resetModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type section: (i32)->i32, (i32 i32)->i64, ()->()
	0x01, 0x0f, 0x03, 0x60, 0x01, 0x7f, 0x01, 0x7f, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7e, 0x60, 0x00, 0x00,
	// function section: alloc:t0, echo:t1, fail:t1, reset:t2
	0x03, 0x05, 0x04, 0x00, 0x01, 0x01, 0x02,
	// memory section: min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// global section: mut i32 = 1024
	0x06, 0x07, 0x01, 0x7f, 0x01, 0x41, 0x80, 0x08, 0x0b,
	// export section, as echoModule plus reset
	0x07, 0x30, 0x05, 0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00, 0x05, 0x61, 0x6c, 0x6c, 0x6f, 0x63, 0x00, 0x00, 0x08, 0x65, 0x63, 0x68, 0x6f, 0x5f, 0x66, 0x36, 0x34, 0x00, 0x01, 0x08, 0x66, 0x61, 0x69, 0x6c, 0x5f, 0x66, 0x36, 0x34, 0x00, 0x02, 0x05, 0x72, 0x65, 0x73, 0x65, 0x74, 0x00, 0x03,
	// code section
	0x0a, 0x27, 0x04,
	0x0b, 0x00, 0x23, 0x00, 0x23, 0x00, 0x20, 0x00, 0x6a, 0x24, 0x00, 0x0b,
	0x0c, 0x00, 0x20, 0x00, 0xad, 0x42, 0x20, 0x86, 0x20, 0x01, 0xad, 0x84, 0x0b,
	0x04, 0x00, 0x42, 0x7f, 0x0b,
	// reset: heap = 1024
	0x07, 0x00, 0x41, 0x80, 0x08, 0x24, 0x00, 0x0b,
}

func TestWasmRuntimeRejectsInvalidBinary(t *testing.T) {
	t.Parallel()
	m, err := native.NewWasmRuntime("bad", []byte("not wasm")).LoadModule(context.Background())
	assert.Nil(t, m)
	assert.Error(t, err)
}

func TestWasmRuntimeEmptyModuleHasNoEntryPoints(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, err := native.NewWasmRuntime("empty", emptyModule).LoadModule(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	defer m.Close(ctx)

	_, ok := m.Lookup("numeric_sum_f64")
	assert.False(t, ok)
}

func TestWasmRuntimeCallsEntryPoints(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rt := native.NewWasmRuntime("echo", echoModule)
	assert.True(t, rt.IsFeatureSupported(native.FeatureSIMD))
	assert.False(t, rt.IsFeatureSupported(native.FeatureThreads))

	m, err := rt.LoadModule(ctx)
	require.NoError(t, err)
	defer m.Close(ctx)
	assert.Equal(t, "echo", m.Name())

	in := []float64{1.5, -2, 3.25, 1e300}
	out, err := native.Call(ctx, m, "echo_f64", in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out, err = native.Call(ctx, m, "echo_f64", nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = native.Call(ctx, m, "echo_f64", in, in)
	assert.ErrorIs(t, err, native.ErrMalformedResult)

	_, err = native.Call(ctx, m, "fail_f64", in)
	assert.Error(t, err)

	// alloc has the wrong signature to be an entry point.
	_, ok := m.Lookup("alloc")
	assert.False(t, ok)
}

func TestWasmRuntimeFromFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll(echoModule, nil)
	require.NoError(t, enc.Close())

	path := filepath.Join(dir, "kernels.wasm.zst")
	require.NoError(t, os.WriteFile(path, compressed, 0o600))

	m, err := native.NewWasmRuntimeFromFile(path).LoadModule(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	defer m.Close(ctx)
	assert.Equal(t, "kernels.wasm", m.Name())

	out, err := native.Call(ctx, m, "echo_f64", []float64{42})
	require.NoError(t, err)
	assert.Equal(t, []float64{42}, out)
}

func TestWasmRuntimeMissingFileIsUnavailable(t *testing.T) {
	t.Parallel()
	m, err := native.NewWasmRuntimeFromFile(filepath.Join(t.TempDir(), "absent.wasm")).LoadModule(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestWasmRuntimeSurvivesCanceledCall(t *testing.T) {
	t.Parallel()
	m, err := native.NewWasmRuntime("echo", echoModule).LoadModule(context.Background())
	require.NoError(t, err)
	defer m.Close(context.Background())

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = native.Call(canceled, m, "echo_f64", []float64{1})
	assert.ErrorIs(t, err, context.Canceled)

	out, err := native.Call(context.Background(), m, "echo_f64", []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, out)
}

func TestWasmRuntimeResetReclaimsGuestMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	// 4 KiB per call: a single 64 KiB page holds fewer than 16 calls
	// without reset.
	in := make([]float64, 512)
	for i := range in {
		in[i] = float64(i)
	}

	tests := []struct {
		name    string
		wasm    []byte
		wantErr bool
	}{
		{"with reset", resetModule, false},
		{"without reset", echoModule, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m, err := native.NewWasmRuntime(tc.name, tc.wasm).LoadModule(ctx)
			require.NoError(t, err)
			defer m.Close(ctx)

			var callErr error
			for range 32 {
				out, err := native.Call(ctx, m, "echo_f64", in)
				if err != nil {
					callErr = err
					break
				}
				require.Equal(t, in, out)
			}
			if tc.wantErr {
				assert.ErrorIs(t, callErr, native.ErrMalformedResult)
			} else {
				assert.NoError(t, callErr)
			}
		})
	}
}
