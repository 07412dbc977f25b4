package accel_test

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/tieraccel/internal/accel"
	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/native"
	"github.com/agbru/tieraccel/internal/operation"
)

var renderKey = operation.New("text", "int", "render_sum")

// renderStrategy doubles every element, sums the result natively and
// renders it as a string.
func renderStrategy() accel.HybridStrategy[[]int, []int, int, string] {
	return accel.HybridStrategy[[]int, []int, int, string]{
		Key:       renderKey,
		Size:      func(in []int) int { return len(in) },
		HighValue: func([]int) bool { return true },
		Preprocess: func(_ context.Context, in []int) ([]int, error) {
			out := make([]int, len(in))
			for i, v := range in {
				out[i] = 2 * v
			}
			return out, nil
		},
		Core: func(ctx context.Context, _ native.Module, mid []int) (int, error) {
			return sumFallback(ctx, mid)
		},
		Postprocess: func(_ context.Context, res int) (string, error) {
			return "native:" + strconv.Itoa(res), nil
		},
		Fallback: func(ctx context.Context, in []int) (string, error) {
			total, _ := sumFallback(ctx, in)
			return "fallback:" + strconv.Itoa(2*total), nil
		},
	}
}

func TestHybridRunsPipeline(t *testing.T) {
	t.Parallel()
	rc := newContext(t, native.DefaultRuntime())
	h, err := accel.NewHybrid(rc, renderStrategy())
	require.NoError(t, err)

	assert.Equal(t, accel.HighValue, h.DetermineTier([]int{1}))
	got, err := h.Execute(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "native:12", got)
	assert.Equal(t, int64(1), rc.Counters.GetMetrics(renderKey).NativeExecutions)
}

func TestHybridStageFailureIsAtomic(t *testing.T) {
	t.Parallel()
	boom := errors.New("stage broke")

	tests := []struct {
		name   string
		stage  string
		mutate func(*accel.HybridStrategy[[]int, []int, int, string], *bool)
	}{
		{
			name:  "preprocess error",
			stage: accel.StagePreprocess,
			mutate: func(s *accel.HybridStrategy[[]int, []int, int, string], _ *bool) {
				s.Preprocess = func(context.Context, []int) ([]int, error) { return nil, boom }
			},
		},
		{
			name:  "core panic",
			stage: accel.StageCore,
			mutate: func(s *accel.HybridStrategy[[]int, []int, int, string], _ *bool) {
				s.Core = func(context.Context, native.Module, []int) (int, error) { panic("native crash") }
			},
		},
		{
			name:  "core error after preprocess",
			stage: accel.StageCore,
			mutate: func(s *accel.HybridStrategy[[]int, []int, int, string], _ *bool) {
				s.Core = func(context.Context, native.Module, []int) (int, error) { return 0, boom }
			},
		},
		{
			name:  "postprocess error discards core result",
			stage: accel.StagePostprocess,
			mutate: func(s *accel.HybridStrategy[[]int, []int, int, string], ran *bool) {
				core := s.Core
				s.Core = func(ctx context.Context, m native.Module, mid []int) (int, error) {
					*ran = true
					return core(ctx, m, mid)
				}
				s.Postprocess = func(context.Context, int) (string, error) { return "partial", boom }
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			rc := newContext(t, native.DefaultRuntime(), accel.WithLogger(zerolog.New(&buf)))

			var coreRan bool
			s := renderStrategy()
			tt.mutate(&s, &coreRan)
			h, err := accel.NewHybrid(rc, s)
			require.NoError(t, err)

			got, err := h.Execute(context.Background(), []int{1, 2, 3})
			require.NoError(t, err)
			assert.Equal(t, "fallback:12", got)
			assert.Equal(t, int64(1), rc.NativeFailures())
			assert.Contains(t, buf.String(), "hybrid "+tt.stage+" stage failed")
			if tt.stage == accel.StagePostprocess {
				assert.True(t, coreRan)
			}
		})
	}
}

func TestHybridSamplingTimesWholePipeline(t *testing.T) {
	t.Parallel()
	rc := newContext(t, native.DefaultRuntime(), accel.WithSampling(accel.AlwaysSample()))

	s := renderStrategy()
	s.Equal = func(a, b string) bool { return a[len(a)-2:] == b[len(b)-2:] }
	h, err := accel.NewHybrid(rc, s)
	require.NoError(t, err)

	got, err := h.Execute(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "native:12", got)
	assert.Len(t, rc.Thresholds.GetSamples(renderKey), 1)
	assert.Zero(t, rc.Divergences())
}

func TestNewHybridValidatesStages(t *testing.T) {
	t.Parallel()
	rc := newContext(t, native.DefaultRuntime())

	s := renderStrategy()
	s.Core = nil
	_, err := accel.NewHybrid(rc, s)
	var verr apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Core", verr.Field)

	s = renderStrategy()
	s.Fallback = nil
	_, err = accel.NewHybrid(rc, s)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Fallback", verr.Field)
}
