// This file contains environment variable utilities for configuration override.

package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// getEnvString returns the value of the environment variable with the given key
// (prefixed with EnvPrefix), or the default value if not set.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks if any of the specified flags were explicitly set.
// This is useful for aliased flags where either the short or long form may be used.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// envOverride declares a single environment variable override.
// Each entry maps an env key (without the TIERACCEL_ prefix) to the CLI flag
// name(s) it corresponds to and a function that applies the env value.
// Values that fail to parse leave the configuration unchanged.
type envOverride struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string)
}

// envOverrides is the declarative table of all environment variable overrides,
// grouped as numeric, duration, string and bool.
var envOverrides = []envOverride{
	// Numeric overrides
	{"SIZES", []string{"sizes"}, func(c *AppConfig, v string) {
		if parsed, err := parseIntList(v); err == nil && len(parsed) > 0 {
			c.Sizes = parsed
		}
	}},
	{"ITERATIONS", []string{"iterations"}, intOverride(func(c *AppConfig) *int { return &c.Iterations })},
	{"WARMUP_CALLS", []string{"warmup-calls"}, intOverride(func(c *AppConfig) *int { return &c.WarmupCalls })},
	{"MIN_SIZE", []string{"min-size"}, intOverride(func(c *AppConfig) *int { return &c.MinSize })},
	{"MAX_SIZE", []string{"max-size"}, intOverride(func(c *AppConfig) *int { return &c.MaxSize })},
	{"MAX_SAMPLES", []string{"max-samples"}, intOverride(func(c *AppConfig) *int { return &c.MaxSamples })},
	{"SAMPLE_RATE", []string{"sample-rate"}, floatOverride(func(c *AppConfig) *float64 { return &c.SampleRate })},
	{"MIN_SPEEDUP", []string{"min-speedup"}, floatOverride(func(c *AppConfig) *float64 { return &c.MinSpeedup })},
	{"LEARNING_RATE", []string{"learning-rate"}, floatOverride(func(c *AppConfig) *float64 { return &c.LearningRate })},

	// Duration overrides
	{"TIMEOUT", []string{"timeout"}, func(c *AppConfig, v string) {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.Timeout = parsed
		}
	}},

	// String overrides
	{"OPS", []string{"ops"}, func(c *AppConfig, v string) {
		c.Ops = v
	}},
	{"WASM", []string{"wasm"}, func(c *AppConfig, v string) {
		c.WasmPath = v
	}},
	{"PROFILE", []string{"profile"}, func(c *AppConfig, v string) {
		c.ProfilePath = v
	}},
	{"LISTEN", []string{"listen"}, func(c *AppConfig, v string) {
		c.Listen = v
	}},

	// Boolean overrides
	{"VERIFY", []string{"verify"}, func(c *AppConfig, v string) {
		c.Verify = parseBoolEnv(v, c.Verify)
	}},
	{"ADAPTIVE", []string{"adaptive"}, func(c *AppConfig, v string) {
		c.Adaptive = parseBoolEnv(v, c.Adaptive)
	}},
	{"CALIBRATE", []string{"calibrate"}, func(c *AppConfig, v string) {
		c.Calibrate = parseBoolEnv(v, c.Calibrate)
	}},
	{"SERVE", []string{"serve"}, func(c *AppConfig, v string) {
		c.Serve = parseBoolEnv(v, c.Serve)
	}},
	{"VERBOSE", []string{"v"}, func(c *AppConfig, v string) {
		c.Verbose = parseBoolEnv(v, c.Verbose)
	}},
	{"QUIET", []string{"quiet", "q"}, func(c *AppConfig, v string) {
		c.Quiet = parseBoolEnv(v, c.Quiet)
	}},
	{"NO_COLOR", []string{"no-color"}, func(c *AppConfig, v string) {
		c.NoColor = parseBoolEnv(v, c.NoColor)
	}},
}

func intOverride(field func(*AppConfig) *int) func(*AppConfig, string) {
	return func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			*field(c) = parsed
		}
	}
}

func floatOverride(field func(*AppConfig) *float64) func(*AppConfig, string) {
	return func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*field(c) = parsed
		}
	}
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > File > Defaults.
//
// Supported environment variables (all prefixed with TIERACCEL_):
//   - OPS, SIZES, ITERATIONS, TIMEOUT, SAMPLE_RATE, WARMUP_CALLS, VERIFY,
//     MIN_SIZE, MAX_SIZE, MIN_SPEEDUP, MAX_SAMPLES, LEARNING_RATE, ADAPTIVE,
//     WASM, PROFILE, CALIBRATE, SERVE, LISTEN, VERBOSE, QUIET, NO_COLOR, CONFIG
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}
}
