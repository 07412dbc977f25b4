package accel

import (
	"math/rand/v2"
	"sync"

	"github.com/agbru/tieraccel/internal/operation"
)

// SamplingPolicy controls how often both implementations are timed.
//
// The first WarmupCalls calls of every operation are always sampled so the
// threshold model has data early; afterwards each call is sampled with
// probability Rate. Sampling every call would cost more than tiering saves,
// so Rate should stay small in production.
type SamplingPolicy struct {
	WarmupCalls int     `yaml:"warmup_calls"`
	Rate        float64 `yaml:"rate"`
	// Verify compares the native and fallback outputs of sampled calls and
	// logs divergences.
	Verify bool `yaml:"verify"`
}

// DefaultSamplingPolicy samples the first five calls per operation and 5%
// of calls thereafter, without output verification.
func DefaultSamplingPolicy() SamplingPolicy {
	return SamplingPolicy{WarmupCalls: 5, Rate: 0.05}
}

// AlwaysSample returns a policy that times both paths on every call, used by
// calibration runs.
func AlwaysSample() SamplingPolicy {
	return SamplingPolicy{Rate: 1, Verify: true}
}

// sampler makes sampling decisions. Calls for one operation are counted
// separately from every other operation.
type sampler struct {
	policy SamplingPolicy

	mu    sync.Mutex
	calls map[operation.Key]int
	rng   *rand.Rand
}

func newSampler(policy SamplingPolicy, rng *rand.Rand) *sampler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &sampler{policy: policy, calls: make(map[operation.Key]int), rng: rng}
}

func (s *sampler) shouldSample(key operation.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.calls[key]
	s.calls[key] = n + 1
	switch {
	case n < s.policy.WarmupCalls:
		return true
	case s.policy.Rate >= 1:
		return true
	case s.policy.Rate <= 0:
		return false
	default:
		return s.rng.Float64() < s.policy.Rate
	}
}

func (s *sampler) reset() {
	s.mu.Lock()
	clear(s.calls)
	s.mu.Unlock()
}
