package threshold

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSampleSpeedup(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		native   float64
		fallback float64
		want     float64
	}{
		{"faster native", 2, 5, 2.5},
		{"slower native", 4, 2, 0.5},
		{"zero native", 0, 3, math.Inf(1)},
		{"both zero", 0, 0, math.NaN()},
		{"negative native", -1, 0, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Sample{NativeTimeMs: tt.native, FallbackTimeMs: tt.fallback}.Speedup()
			if math.IsNaN(tt.want) {
				if !math.IsNaN(got) {
					t.Errorf("Speedup() = %v, want NaN", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Speedup() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSampleStoreOrderAndEviction(t *testing.T) {
	t.Parallel()
	s := NewSampleStore(3)
	if s.Cap() != 3 || s.Len() != 0 {
		t.Fatalf("new store: cap=%d len=%d", s.Cap(), s.Len())
	}

	for i := 1; i <= 5; i++ {
		s.Add(Sample{InputSize: i})
	}

	got := s.Samples()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []int{3, 4, 5} {
		if got[i].InputSize != want {
			t.Errorf("Samples()[%d].InputSize = %d, want %d", i, got[i].InputSize, want)
		}
	}

	// The returned slice is a copy.
	got[0].InputSize = 99
	if s.Samples()[0].InputSize != 3 {
		t.Error("Samples() must not alias the ring buffer")
	}

	s.Reset()
	if s.Len() != 0 || len(s.Samples()) != 0 {
		t.Error("Reset() should empty the store")
	}
}

func TestSampleStoreMinimumCapacity(t *testing.T) {
	t.Parallel()
	s := NewSampleStore(0)
	s.Add(Sample{InputSize: 1})
	s.Add(Sample{InputSize: 2})
	if got := s.Samples(); len(got) != 1 || got[0].InputSize != 2 {
		t.Errorf("Samples() = %+v, want the single newest sample", got)
	}
}

// TestSampleStoreBoundedMemory_PropertyBased verifies that after inserting
// capacity+k samples only the capacity most recent remain, in order.
func TestSampleStoreBoundedMemory_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("retains exactly the most recent samples", prop.ForAll(
		func(capacity, extra int) bool {
			s := NewSampleStore(capacity)
			base := time.Unix(0, 0)
			total := capacity + extra
			for i := 0; i < total; i++ {
				s.Add(Sample{InputSize: i, Timestamp: base.Add(time.Duration(i) * time.Millisecond)})
			}
			got := s.Samples()
			if len(got) != capacity {
				return false
			}
			for i, smp := range got {
				if smp.InputSize != total-capacity+i {
					return false
				}
				if i > 0 && !smp.Timestamp.After(got[i-1].Timestamp) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 64),
		gen.IntRange(0, 200),
	))

	properties.TestingRun(t)
}
