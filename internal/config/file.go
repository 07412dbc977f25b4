package config

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/threshold"
)

// FileConfig is the YAML configuration file. Every field is optional; absent
// fields leave the defaults in place.
//
//	ops: sum,sort
//	sizes: [1000, 100000]
//	sampling:
//	  rate: 0.1
//	threshold:
//	  min_input_size: 2000
//	operations:
//	  numeric/f64/sort:
//	    adaptive_enabled: false
type FileConfig struct {
	Ops        *string        `yaml:"ops"`
	Sizes      []int          `yaml:"sizes"`
	Iterations *int           `yaml:"iterations"`
	Timeout    *time.Duration `yaml:"timeout"`
	Wasm       *string        `yaml:"wasm"`
	Profile    *string        `yaml:"profile"`
	Listen     *string        `yaml:"listen"`

	Sampling   SamplingSection              `yaml:"sampling"`
	Threshold  ThresholdOverride            `yaml:"threshold"`
	Operations map[string]ThresholdOverride `yaml:"operations"`
}

// SamplingSection is the "sampling" block of the file.
type SamplingSection struct {
	WarmupCalls *int     `yaml:"warmup_calls"`
	Rate        *float64 `yaml:"rate"`
	Verify      *bool    `yaml:"verify"`
}

// ThresholdOverride holds optional threshold settings. It is used both for
// the file-wide "threshold" block and for per-operation entries.
type ThresholdOverride struct {
	MinInputSize    *int     `yaml:"min_input_size"`
	MaxInputSize    *int     `yaml:"max_input_size"`
	MinSpeedupRatio *float64 `yaml:"min_speedup_ratio"`
	MaxSamples      *int     `yaml:"max_samples"`
	LearningRate    *float64 `yaml:"learning_rate"`
	AdaptiveEnabled *bool    `yaml:"adaptive_enabled"`
}

func (o ThresholdOverride) apply(cfg threshold.Config) threshold.Config {
	set(&cfg.MinInputSize, o.MinInputSize)
	set(&cfg.MaxInputSize, o.MaxInputSize)
	set(&cfg.MinSpeedupRatio, o.MinSpeedupRatio)
	set(&cfg.MaxSamples, o.MaxSamples)
	set(&cfg.LearningRate, o.LearningRate)
	set(&cfg.AdaptiveEnabled, o.AdaptiveEnabled)
	return cfg
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// LoadFile reads and decodes a YAML configuration file. Unknown keys are
// rejected so typos do not go unnoticed.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("reading config file: %v", err)
	}
	return DecodeFile(data)
}

// DecodeFile decodes YAML configuration data. Empty data yields an empty
// FileConfig.
func DecodeFile(data []byte) (*FileConfig, error) {
	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewConfigError("parsing config file: %v", err)
	}
	return &fc, nil
}

// fileOverride maps one file setting to the flag(s) that take precedence
// over it.
type fileOverride struct {
	flags []string
	apply func(*AppConfig, *FileConfig)
}

var fileOverrides = []fileOverride{
	{[]string{"ops"}, func(c *AppConfig, f *FileConfig) { set(&c.Ops, f.Ops) }},
	{[]string{"sizes"}, func(c *AppConfig, f *FileConfig) {
		if len(f.Sizes) > 0 {
			c.Sizes = append([]int(nil), f.Sizes...)
		}
	}},
	{[]string{"iterations"}, func(c *AppConfig, f *FileConfig) { set(&c.Iterations, f.Iterations) }},
	{[]string{"timeout"}, func(c *AppConfig, f *FileConfig) { set(&c.Timeout, f.Timeout) }},
	{[]string{"wasm"}, func(c *AppConfig, f *FileConfig) { set(&c.WasmPath, f.Wasm) }},
	{[]string{"profile"}, func(c *AppConfig, f *FileConfig) { set(&c.ProfilePath, f.Profile) }},
	{[]string{"listen"}, func(c *AppConfig, f *FileConfig) { set(&c.Listen, f.Listen) }},
	{[]string{"warmup-calls"}, func(c *AppConfig, f *FileConfig) { set(&c.WarmupCalls, f.Sampling.WarmupCalls) }},
	{[]string{"sample-rate"}, func(c *AppConfig, f *FileConfig) { set(&c.SampleRate, f.Sampling.Rate) }},
	{[]string{"verify"}, func(c *AppConfig, f *FileConfig) { set(&c.Verify, f.Sampling.Verify) }},
	{[]string{"min-size"}, func(c *AppConfig, f *FileConfig) { set(&c.MinSize, f.Threshold.MinInputSize) }},
	{[]string{"max-size"}, func(c *AppConfig, f *FileConfig) { set(&c.MaxSize, f.Threshold.MaxInputSize) }},
	{[]string{"min-speedup"}, func(c *AppConfig, f *FileConfig) { set(&c.MinSpeedup, f.Threshold.MinSpeedupRatio) }},
	{[]string{"max-samples"}, func(c *AppConfig, f *FileConfig) { set(&c.MaxSamples, f.Threshold.MaxSamples) }},
	{[]string{"learning-rate"}, func(c *AppConfig, f *FileConfig) { set(&c.LearningRate, f.Threshold.LearningRate) }},
	{[]string{"adaptive"}, func(c *AppConfig, f *FileConfig) { set(&c.Adaptive, f.Threshold.AdaptiveEnabled) }},
}

// applyFile copies file settings into config for every flag that was not set
// explicitly. Per-operation overrides have no flag and are always taken.
func applyFile(config *AppConfig, file *FileConfig, fs *flag.FlagSet) {
	for _, o := range fileOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		o.apply(config, file)
	}
	if len(file.Operations) > 0 {
		config.Overrides = make(map[string]ThresholdOverride, len(file.Operations))
		for name, o := range file.Operations {
			config.Overrides[name] = o
		}
	}
}
