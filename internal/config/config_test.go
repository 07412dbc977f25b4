package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/operation"
	"github.com/agbru/tieraccel/internal/threshold"
)

var availableOps = []string{"convolve", "describe", "fft", "sort", "sum"}

func validConfig() AppConfig {
	return AppConfig{
		Ops:          "all",
		Sizes:        []int{10, 100},
		Iterations:   1,
		Timeout:      time.Second,
		SampleRate:   0.05,
		WarmupCalls:  5,
		MaxSize:      threshold.DefaultMaxInputSize,
		MinSpeedup:   threshold.DefaultMinSpeedupRatio,
		MaxSamples:   threshold.DefaultMaxSamples,
		LearningRate: threshold.DefaultLearningRate,
		Adaptive:     true,
	}
}

func TestParseConfig(t *testing.T) {
	t.Run("DefaultValues", func(t *testing.T) {
		t.Parallel()
		cfg, err := ParseConfig("tieraccel", []string{}, io.Discard, availableOps)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Ops != "all" {
			t.Errorf("Expected default Ops 'all', got %s", cfg.Ops)
		}
		if !slices.Equal(cfg.Sizes, DefaultSizes) {
			t.Errorf("Expected default sizes %v, got %v", DefaultSizes, cfg.Sizes)
		}
		if cfg.Timeout != 5*time.Minute {
			t.Errorf("Expected default Timeout 5m, got %v", cfg.Timeout)
		}
		if cfg.SampleRate != 0.05 || cfg.WarmupCalls != 5 {
			t.Errorf("Expected default sampling 5 calls / 0.05, got %d / %g", cfg.WarmupCalls, cfg.SampleRate)
		}
		if !cfg.Adaptive {
			t.Error("Expected Adaptive true by default")
		}
		if cfg.SelectedOps() != nil {
			t.Errorf("Expected all operations selected, got %v", cfg.SelectedOps())
		}
	})

	t.Run("ValidFlags", func(t *testing.T) {
		t.Parallel()
		args := []string{
			"-ops", "Sum,sort",
			"-sizes", "10,2_000",
			"-iterations", "3",
			"-timeout", "10s",
			"-sample-rate", "0.5",
			"-min-size", "64",
			"-verify",
			"-serve",
			"-listen", ":9090",
			"-v",
		}
		cfg, err := ParseConfig("tieraccel", args, io.Discard, availableOps)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got := cfg.SelectedOps(); !slices.Equal(got, []string{"sum", "sort"}) {
			t.Errorf("Expected ops [sum sort], got %v", got)
		}
		if !slices.Equal(cfg.Sizes, []int{10, 2000}) {
			t.Errorf("Expected sizes [10 2000], got %v", cfg.Sizes)
		}
		if cfg.Iterations != 3 {
			t.Errorf("Expected Iterations 3, got %d", cfg.Iterations)
		}
		if cfg.Timeout != 10*time.Second {
			t.Errorf("Expected Timeout 10s, got %v", cfg.Timeout)
		}
		if cfg.SampleRate != 0.5 {
			t.Errorf("Expected SampleRate 0.5, got %g", cfg.SampleRate)
		}
		if cfg.MinSize != 64 {
			t.Errorf("Expected MinSize 64, got %d", cfg.MinSize)
		}
		if !cfg.Verify || !cfg.Serve || !cfg.Verbose {
			t.Error("Expected Verify, Serve and Verbose true")
		}
		if cfg.Listen != ":9090" {
			t.Errorf("Expected Listen :9090, got %s", cfg.Listen)
		}
	})

	t.Run("InvalidFlags", func(t *testing.T) {
		t.Parallel()
		_, err := ParseConfig("tieraccel", []string{"-unknown"}, io.Discard, availableOps)
		if err == nil {
			t.Error("Expected error for unknown flag")
		}
	})

	t.Run("InvalidSizes", func(t *testing.T) {
		t.Parallel()
		_, err := ParseConfig("tieraccel", []string{"-sizes", "10,abc"}, io.Discard, availableOps)
		if err == nil {
			t.Error("Expected error for malformed sizes")
		}
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		_, err := ParseConfig("tieraccel", []string{"-ops", "invalid"}, &buf, availableOps)
		if err == nil {
			t.Fatal("Expected error for invalid operation")
		}
		if !strings.Contains(buf.String(), "unrecognized operation") {
			t.Errorf("Expected the validation message on the error writer, got %q", buf.String())
		}
	})
}

func TestEnvOverrides(t *testing.T) {
	env := map[string]string{
		"TIERACCEL_OPS":           "fft",
		"TIERACCEL_SIZES":         "128,256",
		"TIERACCEL_ITERATIONS":    "7",
		"TIERACCEL_TIMEOUT":       "2m",
		"TIERACCEL_SAMPLE_RATE":   "0.25",
		"TIERACCEL_WARMUP_CALLS":  "2",
		"TIERACCEL_MIN_SIZE":      "50",
		"TIERACCEL_MAX_SIZE":      "5000",
		"TIERACCEL_MIN_SPEEDUP":   "1.5",
		"TIERACCEL_MAX_SAMPLES":   "40",
		"TIERACCEL_LEARNING_RATE": "0.2",
		"TIERACCEL_ADAPTIVE":      "no",
		"TIERACCEL_VERIFY":        "yes",
		"TIERACCEL_CALIBRATE":     "1",
		"TIERACCEL_SERVE":         "true",
		"TIERACCEL_LISTEN":        ":7070",
		"TIERACCEL_WASM":          "kernels.wasm",
		"TIERACCEL_PROFILE":       "calib.json",
		"TIERACCEL_QUIET":         "true",
		"TIERACCEL_NO_COLOR":      "true",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := ParseConfig("tieraccel", []string{}, io.Discard, availableOps)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Ops != "fft" {
		t.Errorf("Expected Ops 'fft' from env, got %s", cfg.Ops)
	}
	if !slices.Equal(cfg.Sizes, []int{128, 256}) {
		t.Errorf("Expected sizes [128 256], got %v", cfg.Sizes)
	}
	if cfg.Iterations != 7 || cfg.Timeout != 2*time.Minute {
		t.Errorf("Expected Iterations 7 and Timeout 2m, got %d and %v", cfg.Iterations, cfg.Timeout)
	}
	want := threshold.Config{
		MinInputSize:    50,
		MaxInputSize:    5000,
		MinSpeedupRatio: 1.5,
		MaxSamples:      40,
		LearningRate:    0.2,
		AdaptiveEnabled: false,
	}
	if got := cfg.ThresholdConfig(); got != want {
		t.Errorf("ThresholdConfig() = %+v, want %+v", got, want)
	}
	if p := cfg.SamplingPolicy(); p.Rate != 0.25 || p.WarmupCalls != 2 || !p.Verify {
		t.Errorf("unexpected sampling policy %+v", p)
	}
	if !cfg.Calibrate || !cfg.Serve || !cfg.Quiet || !cfg.NoColor {
		t.Error("Expected Calibrate, Serve, Quiet and NoColor true from env")
	}
	if cfg.Listen != ":7070" || cfg.WasmPath != "kernels.wasm" || cfg.ProfilePath != "calib.json" {
		t.Errorf("unexpected string overrides: listen=%q wasm=%q profile=%q", cfg.Listen, cfg.WasmPath, cfg.ProfilePath)
	}
}

func TestFlagPrecedenceOverEnv(t *testing.T) {
	t.Setenv("TIERACCEL_ITERATIONS", "9")
	t.Setenv("TIERACCEL_QUIET", "true")

	cfg, err := ParseConfig("tieraccel", []string{"-iterations", "2", "-q=false"}, io.Discard, availableOps)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Iterations != 2 {
		t.Errorf("Expected Iterations 2 from flag, got %d", cfg.Iterations)
	}
	if cfg.Quiet {
		t.Error("Expected the -q flag to win over TIERACCEL_QUIET")
	}
}

func TestInvalidEnvValueIsIgnored(t *testing.T) {
	t.Setenv("TIERACCEL_ITERATIONS", "many")

	cfg, err := ParseConfig("tieraccel", []string{}, io.Discard, availableOps)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Iterations != DefaultIterations {
		t.Errorf("Expected default Iterations, got %d", cfg.Iterations)
	}
}

const sampleFile = `
ops: sum,fft
sizes: [32, 64]
iterations: 4
timeout: 90s
sampling:
  rate: 0.5
  verify: true
threshold:
  min_input_size: 300
  learning_rate: 0.3
operations:
  numeric/f64/sort:
    min_input_size: 5000
    adaptive_enabled: false
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tieraccel.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigFile(t *testing.T) {
	path := writeFile(t, sampleFile)
	t.Setenv("TIERACCEL_ITERATIONS", "6")

	cfg, err := ParseConfig("tieraccel", []string{"-config", path, "-sizes", "8"}, io.Discard, availableOps)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := cfg.SelectedOps(); !slices.Equal(got, []string{"sum", "fft"}) {
		t.Errorf("Expected ops from file, got %v", got)
	}
	if !slices.Equal(cfg.Sizes, []int{8}) {
		t.Errorf("Expected the -sizes flag to win over the file, got %v", cfg.Sizes)
	}
	if cfg.Iterations != 6 {
		t.Errorf("Expected env to win over the file, got %d", cfg.Iterations)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Expected Timeout 90s from file, got %v", cfg.Timeout)
	}
	if cfg.SampleRate != 0.5 || !cfg.Verify {
		t.Errorf("Expected sampling from file, got rate=%g verify=%v", cfg.SampleRate, cfg.Verify)
	}
	if cfg.MinSize != 300 || cfg.LearningRate != 0.3 {
		t.Errorf("Expected threshold block from file, got min=%d rate=%g", cfg.MinSize, cfg.LearningRate)
	}

	overrides, err := cfg.ThresholdOverrides()
	if err != nil {
		t.Fatalf("ThresholdOverrides: %v", err)
	}
	sortCfg, ok := overrides[operation.New("numeric", "f64", "sort")]
	if !ok {
		t.Fatalf("missing sort override in %v", overrides)
	}
	if sortCfg.MinInputSize != 5000 || sortCfg.AdaptiveEnabled {
		t.Errorf("unexpected sort override %+v", sortCfg)
	}
	if sortCfg.LearningRate != 0.3 {
		t.Errorf("override should inherit the file-wide learning rate, got %g", sortCfg.LearningRate)
	}
}

func TestConfigFileFromEnv(t *testing.T) {
	t.Setenv("TIERACCEL_CONFIG", writeFile(t, "iterations: 11\n"))

	cfg, err := ParseConfig("tieraccel", []string{}, io.Discard, availableOps)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Iterations != 11 {
		t.Errorf("Expected Iterations 11 from the env-named file, got %d", cfg.Iterations)
	}
}

func TestConfigFileErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "iterationz: 3\n"},
		{"bad type", "sizes: many\n"},
		{"bad duration", "timeout: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeFile([]byte(tt.content))
			var cfgErr apperrors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := ParseConfig("tieraccel", []string{"-config", filepath.Join(t.TempDir(), "nope.yaml")}, io.Discard, availableOps)
		if err == nil {
			t.Error("Expected error for a missing config file")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		fc, err := DecodeFile(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fc.Ops != nil || len(fc.Operations) != 0 {
			t.Errorf("expected an empty FileConfig, got %+v", fc)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"Valid", func(*AppConfig) {}, false},
		{"SelectedOps", func(c *AppConfig) { c.Ops = "sum, fft" }, false},
		{"InvalidTimeout", func(c *AppConfig) { c.Timeout = 0 }, true},
		{"ZeroIterations", func(c *AppConfig) { c.Iterations = 0 }, true},
		{"NoSizes", func(c *AppConfig) { c.Sizes = nil }, true},
		{"NegativeSize", func(c *AppConfig) { c.Sizes = []int{10, -1} }, true},
		{"SampleRateAboveOne", func(c *AppConfig) { c.SampleRate = 1.5 }, true},
		{"NegativeWarmup", func(c *AppConfig) { c.WarmupCalls = -1 }, true},
		{"NegativeMinSize", func(c *AppConfig) { c.MinSize = -5 }, true},
		{"MaxBelowMin", func(c *AppConfig) { c.MinSize, c.MaxSize = 500, 100 }, true},
		{"LearningRateTooLarge", func(c *AppConfig) { c.LearningRate = 2 }, true},
		{"UnknownOp", func(c *AppConfig) { c.Ops = "sum,nope" }, true},
		{"ServeWithoutListen", func(c *AppConfig) { c.Serve, c.Listen = true, "" }, true},
		{"BadOverrideKey", func(c *AppConfig) {
			c.Overrides = map[string]ThresholdOverride{"sort": {}}
		}, true},
		{"InvalidOverride", func(c *AppConfig) {
			zero := 0
			c.Overrides = map[string]ThresholdOverride{"numeric/f64/sort": {MaxSamples: &zero}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate(availableOps)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var cfgErr apperrors.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("expected ConfigError, got %T", err)
				}
			}
		})
	}
}

func TestApplyAdaptiveDefaults(t *testing.T) {
	t.Parallel()

	t.Run("EstimatesZeroMinSize", func(t *testing.T) {
		t.Parallel()
		cfg := ApplyAdaptiveDefaults(validConfig())
		if cfg.MinSize != EstimateMinInputSize() {
			t.Errorf("MinSize = %d, want estimate %d", cfg.MinSize, EstimateMinInputSize())
		}
	})

	t.Run("KeepsUserValue", func(t *testing.T) {
		t.Parallel()
		c := validConfig()
		c.MinSize = 42
		if got := ApplyAdaptiveDefaults(c).MinSize; got != 42 {
			t.Errorf("MinSize = %d, want 42", got)
		}
	})

	t.Run("RaisesMaxSize", func(t *testing.T) {
		t.Parallel()
		c := validConfig()
		c.MaxSize = 1
		got := ApplyAdaptiveDefaults(c)
		if got.MaxSize < got.MinSize {
			t.Errorf("MaxSize %d below MinSize %d", got.MaxSize, got.MinSize)
		}
	})

	if n := EstimateWarmupSizeCount(); n < 4 || n > 8 {
		t.Errorf("EstimateWarmupSizeCount() = %d, want 4..8", n)
	}
}

func TestUsage(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	_, err := ParseConfig("tieraccel", []string{"-h"}, &buf, availableOps)
	if err == nil {
		t.Fatal("Expected flag.ErrHelp")
	}
	out := buf.String()
	for _, want := range []string{"Tier Accelerator", "-sample-rate", EnvPrefix} {
		if !strings.Contains(out, want) {
			t.Errorf("usage output missing %q", want)
		}
	}
}
