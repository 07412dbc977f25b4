package calibration

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/tieraccel/internal/accel"
	"github.com/agbru/tieraccel/internal/native"
	"github.com/agbru/tieraccel/internal/operation"
	"github.com/agbru/tieraccel/internal/ops"
	"github.com/agbru/tieraccel/internal/orchestration"
	"github.com/agbru/tieraccel/internal/ui"
)

func newCalibrationContext(t *testing.T, rt native.Runtime) *accel.RuntimeContext {
	t.Helper()
	rc, err := accel.NewRuntimeContext(rt, accel.WithSampling(accel.AlwaysSample()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close(context.Background()) })
	return rc
}

func TestWarmup(t *testing.T) {
	t.Parallel()
	for name, rt := range map[string]native.Runtime{
		"native":      native.DefaultRuntime(),
		"unavailable": native.Unavailable(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			rc := newCalibrationContext(t, rt)
			factory, err := ops.NewDefaultFactory(rc)
			require.NoError(t, err)

			runners := factory.GetAll()
			results := Warmup(context.Background(), rc, runners, []int{16, 2000}, orchestration.RandomInputs(1), Options{Rounds: 2})
			require.Len(t, results, len(runners))

			for _, res := range results {
				assert.NoError(t, res.Err, res.Name)
				assert.Equal(t, 4, res.Calls, res.Name)
				assert.LessOrEqual(t, res.Samples, res.Calls, res.Name)
				assert.Equal(t, rc.Thresholds.GetThreshold(res.Key), res.Threshold, res.Name)
				if name == "unavailable" {
					assert.Zero(t, res.Samples, res.Name)
					assert.Equal(t, res.InitialThreshold, res.Threshold, res.Name)
				}
			}
			assert.Zero(t, rc.Divergences())
		})
	}
}

type failingRunner struct{ calls int }

func (f *failingRunner) Name() string           { return "test/f64/broken" }
func (f *failingRunner) Key() operation.Key     { return operation.New("test", "f64", "broken") }
func (f *failingRunner) Profile() accel.Profile { return accel.Profile{} }
func (f *failingRunner) Run(context.Context, []float64) (ops.Outcome, error) {
	f.calls++
	if f.calls > 1 {
		return ops.Outcome{}, errors.New("boom")
	}
	return ops.Outcome{Matched: true}, nil
}

func TestWarmupRecordsFailures(t *testing.T) {
	t.Parallel()
	rc := newCalibrationContext(t, native.Unavailable())
	r := &failingRunner{}

	results := Warmup(context.Background(), rc, []ops.Runner{r}, []int{8, 16}, orchestration.RandomInputs(1), Options{Rounds: 1, PerTrial: time.Second})
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Calls)
	assert.ErrorContains(t, results[0].Err, "size 16: boom")
	assert.Empty(t, Thresholds(results))
}

func TestWarmupStopsOnCancel(t *testing.T) {
	t.Parallel()
	rc := newCalibrationContext(t, native.Unavailable())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runners := []ops.Runner{&failingRunner{}, &failingRunner{}}
	results := Warmup(ctx, rc, runners, []int{8}, orchestration.RandomInputs(1), Options{})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Zero(t, results[0].Calls)
}

func TestThresholds(t *testing.T) {
	t.Parallel()
	got := Thresholds([]Result{
		{Name: "numeric/f64/sort", Threshold: 4000},
		{Name: "numeric/f64/sum", Threshold: 9000, Err: errors.New("x")},
	})
	assert.Equal(t, map[string]int{"numeric/f64/sort": 4000}, got)
}

func TestPrintResults(t *testing.T) {
	ui.InitTheme(true)
	defer ui.InitTheme(false)

	var buf bytes.Buffer
	PrintResults(&buf, []Result{
		{Name: "numeric/f64/sort", InitialThreshold: 1000, Threshold: 2500, Samples: 6, Duration: time.Millisecond},
		{Name: "signal/f64/fft", Err: errors.New("native crashed")},
	})
	output := buf.String()
	for _, want := range []string{"Calibration Summary", "numeric/f64/sort", "2500 (from 1000)", "N/A", "signal/f64/fft: native crashed"} {
		assert.Contains(t, output, want)
	}
}
