package config

import "runtime"

// Threshold resolution chain (highest priority first):
//   1. CLI flags (--min-size, --max-size, ...)
//   2. Environment variables (TIERACCEL_MIN_SIZE, etc.)
//   3. Configuration file (threshold block, then per-operation entries)
//   4. Adaptive hardware estimation (this file)
//   5. Static defaults in threshold/config.go

// ApplyAdaptiveDefaults fills configuration values left at their zero
// default with estimates based on hardware characteristics, so a machine
// starts from a sensible initial threshold without calibration.
//
// Values set by the user are preserved. MaxSize is raised when the estimate
// would exceed it.
func ApplyAdaptiveDefaults(cfg AppConfig) AppConfig {
	if cfg.MinSize == 0 {
		cfg.MinSize = EstimateMinInputSize()
	}
	if cfg.MaxSize < cfg.MinSize {
		cfg.MaxSize = cfg.MinSize
	}
	return cfg
}

// EstimateMinInputSize provides a heuristic estimate of the input size at
// which native kernels start paying for their call overhead. Machines with
// more cores keep the portable path busy for longer, so fewer elements are
// needed before the tuned kernels win.
func EstimateMinInputSize() int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU == 1:
		return 4096 // Kernel setup dominates on a single core
	case numCPU <= 2:
		return 2048
	case numCPU <= 4:
		return 1000 // Default
	case numCPU <= 8:
		return 768
	case numCPU <= 16:
		return 512
	default:
		return 256
	}
}

// EstimateWarmupSizeCount returns how many distinct sizes calibration
// should sample between the threshold bounds.
func EstimateWarmupSizeCount() int {
	numCPU := runtime.NumCPU()

	if numCPU >= 8 {
		return 8
	}
	if numCPU >= 4 {
		return 6
	}
	return 4
}
