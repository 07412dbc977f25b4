// Package config provides the configuration management for the tieraccel
// application. It defines the data structure for the configuration, handles
// the parsing of command-line arguments, environment variables and the
// optional YAML file, and performs validation on the resulting values.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/agbru/tieraccel/internal/accel"
	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/operation"
	"github.com/agbru/tieraccel/internal/threshold"
)

const (
	// EnvPrefix is the prefix for all environment variables used by tieraccel.
	EnvPrefix = "TIERACCEL_"
)

// Default configuration values.
// These can be overridden via the configuration file, environment variables
// or command-line flags.
const (
	// DefaultOps selects every registered operation.
	DefaultOps = "all"
	// DefaultIterations is the number of calls made per operation and size.
	DefaultIterations = 5
	// DefaultTimeout bounds a whole run.
	DefaultTimeout = 5 * time.Minute
	// DefaultListen is the diagnostics server address.
	DefaultListen = ":8080"
)

// DefaultSizes are the input sizes exercised when none are given.
var DefaultSizes = []int{100, 1_000, 10_000, 100_000}

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Ops is "all" or a comma-separated list of operation names.
	Ops string
	// Sizes are the input lengths each operation is run against.
	Sizes []int
	// Iterations is the number of calls per operation and size.
	Iterations int
	// Timeout sets the maximum duration of a run.
	Timeout time.Duration

	// SampleRate is the probability that a call past warm-up is sampled.
	SampleRate float64
	// WarmupCalls is the number of initial calls per operation that are
	// always sampled.
	WarmupCalls int
	// Verify compares native and fallback outputs of sampled calls.
	Verify bool

	// MinSize is the lower clamp and initial value of every threshold.
	// Zero selects a hardware estimate, see ApplyAdaptiveDefaults.
	MinSize int
	// MaxSize is the upper clamp of every threshold.
	MaxSize int
	// MinSpeedup is the fallback/native time ratio at which native pays off.
	MinSpeedup float64
	// MaxSamples is the sample history kept per operation.
	MaxSamples int
	// LearningRate is the fraction of the gap covered by one adjustment.
	LearningRate float64
	// Adaptive enables threshold learning.
	Adaptive bool
	// Overrides holds per-operation threshold settings from the config file,
	// keyed by "domain/type/operation".
	Overrides map[string]ThresholdOverride

	// WasmPath, if set, loads native entry points from a WebAssembly module
	// instead of the built-in kernels.
	WasmPath string
	// ProfilePath is the calibration profile file. A valid profile seeds
	// thresholds at start-up and calibration writes it. Empty disables
	// persistence.
	ProfilePath string

	// Calibrate runs the warm-up calibration instead of a workload run.
	Calibrate bool
	// Serve starts the diagnostics HTTP server.
	Serve bool
	// Listen is the diagnostics server address.
	Listen string

	// Verbose enables debug logging and per-size details.
	Verbose bool
	// Quiet mode - minimal output for scripting purposes.
	Quiet bool
	// NoColor disables all color output. Also respects NO_COLOR.
	NoColor bool
	// ConfigFile is the path of the optional YAML configuration file.
	ConfigFile string
}

// SelectedOps returns the requested operation names, or nil when every
// operation is selected.
func (c AppConfig) SelectedOps() []string {
	if c.Ops == "" || c.Ops == DefaultOps {
		return nil
	}
	var names []string
	for _, name := range strings.Split(c.Ops, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ThresholdConfig returns the default threshold configuration for every
// operation without an override.
func (c AppConfig) ThresholdConfig() threshold.Config {
	cfg := threshold.Config{
		MinInputSize:    c.MinSize,
		MaxInputSize:    c.MaxSize,
		MinSpeedupRatio: c.MinSpeedup,
		MaxSamples:      c.MaxSamples,
		LearningRate:    c.LearningRate,
		AdaptiveEnabled: c.Adaptive,
	}
	if cfg.MinInputSize == 0 {
		cfg.MinInputSize = threshold.DefaultMinInputSize
	}
	return cfg
}

// ThresholdOverrides resolves the per-operation overrides on top of
// ThresholdConfig.
func (c AppConfig) ThresholdOverrides() (map[operation.Key]threshold.Config, error) {
	base := c.ThresholdConfig()
	out := make(map[operation.Key]threshold.Config, len(c.Overrides))
	for name, o := range c.Overrides {
		key, err := operation.Parse(name)
		if err != nil {
			return nil, apperrors.NewConfigError("threshold override: %v", err)
		}
		out[key] = o.apply(base)
	}
	return out, nil
}

// SamplingPolicy returns the configured sampling policy.
func (c AppConfig) SamplingPolicy() accel.SamplingPolicy {
	return accel.SamplingPolicy{
		WarmupCalls: c.WarmupCalls,
		Rate:        c.SampleRate,
		Verify:      c.Verify,
	}
}

// Validate checks the semantic consistency of the configuration parameters.
// It ensures that numerical values are within valid ranges and that every
// selected operation is registered.
//
// Returns a ConfigError if the configuration is invalid, nil otherwise.
func (c AppConfig) Validate(availableOps []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.Iterations < 1 {
		return apperrors.NewConfigError("iterations must be at least 1, got %d", c.Iterations)
	}
	if len(c.Sizes) == 0 {
		return apperrors.NewConfigError("at least one input size is required")
	}
	for _, n := range c.Sizes {
		if n <= 0 {
			return apperrors.NewConfigError("input sizes must be positive, got %d", n)
		}
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return apperrors.NewConfigError("sample rate must be in [0, 1], got %g", c.SampleRate)
	}
	if c.WarmupCalls < 0 {
		return apperrors.NewConfigError("warm-up calls cannot be negative: %d", c.WarmupCalls)
	}
	if c.MinSize < 0 {
		return apperrors.NewConfigError("minimum threshold cannot be negative: %d", c.MinSize)
	}
	if err := c.ThresholdConfig().Validate(); err != nil {
		return apperrors.NewConfigError("threshold configuration: %v", err)
	}
	overrides, err := c.ThresholdOverrides()
	if err != nil {
		return err
	}
	for key, cfg := range overrides {
		if err := cfg.Validate(); err != nil {
			return apperrors.NewConfigError("threshold override %s: %v", key, err)
		}
	}
	if c.Serve && c.Listen == "" {
		return apperrors.NewConfigError("a listen address is required in server mode")
	}
	for _, name := range c.SelectedOps() {
		if !slices.Contains(availableOps, name) {
			return apperrors.NewConfigError("unrecognized operation: '%s'. Valid operations are: 'all' or [%s]", name, strings.Join(availableOps, ", "))
		}
	}
	return nil
}

// ParseConfig parses the command-line arguments and populates an AppConfig.
// Values come, from lowest to highest priority, from the built-in defaults,
// the YAML file named by -config (or TIERACCEL_CONFIG), TIERACCEL_*
// environment variables, and explicit flags. The result is validated.
//
// The input arguments and output writer are parameters so the parser can be
// exercised from tests.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableOps []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	opsHelp := fmt.Sprintf("Operations to run: 'all' (default) or a comma list of [%s].", strings.Join(availableOps, ", "))

	config := AppConfig{Sizes: slices.Clone(DefaultSizes)}
	fs.StringVar(&config.Ops, "ops", DefaultOps, opsHelp)
	fs.Var((*intList)(&config.Sizes), "sizes", "Comma-separated input sizes.")
	fs.IntVar(&config.Iterations, "iterations", DefaultIterations, "Calls per operation and size.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the run.")
	fs.Float64Var(&config.SampleRate, "sample-rate", accel.DefaultSamplingPolicy().Rate, "Probability of timing both paths after warm-up.")
	fs.IntVar(&config.WarmupCalls, "warmup-calls", accel.DefaultSamplingPolicy().WarmupCalls, "Initial calls per operation that are always sampled.")
	fs.BoolVar(&config.Verify, "verify", false, "Compare native and fallback outputs of sampled calls.")
	fs.IntVar(&config.MinSize, "min-size", 0, "Initial and minimum threshold (0 estimates from the hardware).")
	fs.IntVar(&config.MaxSize, "max-size", threshold.DefaultMaxInputSize, "Maximum threshold.")
	fs.Float64Var(&config.MinSpeedup, "min-speedup", threshold.DefaultMinSpeedupRatio, "Speedup at which the native path pays off.")
	fs.IntVar(&config.MaxSamples, "max-samples", threshold.DefaultMaxSamples, "Samples kept per operation.")
	fs.Float64Var(&config.LearningRate, "learning-rate", threshold.DefaultLearningRate, "Fraction of the gap covered by one threshold adjustment.")
	fs.BoolVar(&config.Adaptive, "adaptive", true, "Learn thresholds from sampled calls.")
	fs.StringVar(&config.WasmPath, "wasm", "", "WebAssembly module providing native entry points (.wasm or .wasm.zst).")
	fs.StringVar(&config.ProfilePath, "profile", "", "Calibration profile to load at start-up and write after -calibrate.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Run calibration to seed thresholds, then report them.")
	fs.BoolVar(&config.Serve, "serve", false, "Start the diagnostics HTTP server.")
	fs.StringVar(&config.Listen, "listen", DefaultListen, "Diagnostics server address.")
	fs.BoolVar(&config.Verbose, "v", false, "Verbose output with debug logging.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.ConfigFile, "config", "", "Path of a YAML configuration file.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	if !isFlagSet(fs, "config") {
		config.ConfigFile = getEnvString("CONFIG", "")
	}
	if config.ConfigFile != "" {
		file, err := LoadFile(config.ConfigFile)
		if err != nil {
			fmt.Fprintln(errorWriter, "Configuration error:", err)
			return AppConfig{}, err
		}
		applyFile(&config, file, fs)
	}

	// Apply environment variable overrides for flags not explicitly set
	applyEnvOverrides(&config, fs)

	config.Ops = strings.ToLower(config.Ops)
	if err := config.Validate(availableOps); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.New("invalid configuration")
	}
	return config, nil
}

// intList is a flag.Value holding a comma-separated list of integers.
type intList []int

func (l *intList) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, len(*l))
	for i, n := range *l {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(s string) error {
	parsed, err := parseIntList(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func parseIntList(s string) ([]int, error) {
	var out []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(strings.ReplaceAll(field, "_", ""))
		if err != nil {
			return nil, fmt.Errorf("invalid size %q", field)
		}
		out = append(out, n)
	}
	return out, nil
}
