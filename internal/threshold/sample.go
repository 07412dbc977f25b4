package threshold

import (
	"math"
	"time"
)

// Sample is one paired timing of the native and fallback paths for the same
// input. Samples are only created when both paths actually ran and are never
// mutated afterwards.
type Sample struct {
	InputSize      int
	NativeTimeMs   float64
	FallbackTimeMs float64
	Timestamp      time.Time
}

// Speedup returns FallbackTimeMs / NativeTimeMs. A native time that rounds
// to zero yields +Inf when the fallback took measurable time, and NaN when
// neither did.
func (s Sample) Speedup() float64 {
	if s.NativeTimeMs <= 0 {
		if s.FallbackTimeMs > 0 {
			return math.Inf(1)
		}
		return math.NaN()
	}
	return s.FallbackTimeMs / s.NativeTimeMs
}

// SampleStore is a fixed-capacity ring buffer of samples. Once full, each
// Add overwrites the oldest entry. It is not safe for concurrent use; the
// owning Manager serializes access.
type SampleStore struct {
	buf   []Sample
	head  int // index of the next slot to write
	count int // number of valid entries, <= len(buf)
}

// NewSampleStore returns a store holding at most capacity samples.
// Capacities below one are raised to one.
func NewSampleStore(capacity int) *SampleStore {
	if capacity < 1 {
		capacity = 1
	}
	return &SampleStore{buf: make([]Sample, capacity)}
}

// Add inserts s, evicting the oldest sample when the store is full.
func (s *SampleStore) Add(sample Sample) {
	s.buf[s.head] = sample
	s.head = (s.head + 1) % len(s.buf)
	if s.count < len(s.buf) {
		s.count++
	}
}

// Samples returns a copy of the retained samples, oldest first.
func (s *SampleStore) Samples() []Sample {
	out := make([]Sample, s.count)
	if s.count < len(s.buf) {
		copy(out, s.buf[:s.count])
		return out
	}
	// Wrapped: [head..end] followed by [0..head-1].
	n := copy(out, s.buf[s.head:])
	copy(out[n:], s.buf[:s.head])
	return out
}

// Len returns the number of retained samples.
func (s *SampleStore) Len() int { return s.count }

// Cap returns the store capacity.
func (s *SampleStore) Cap() int { return len(s.buf) }

// Reset discards every sample.
func (s *SampleStore) Reset() {
	clear(s.buf)
	s.head = 0
	s.count = 0
}
