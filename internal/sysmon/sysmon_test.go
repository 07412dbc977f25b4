package sysmon

import (
	"context"
	"strings"
	"testing"
)

func TestSample_ReturnsValidRanges(t *testing.T) {
	s := Sample()
	if s.CPUPercent < 0 || s.CPUPercent > 100 {
		t.Errorf("CPUPercent out of range: %f", s.CPUPercent)
	}
	if s.MemPercent < 0 || s.MemPercent > 100 {
		t.Errorf("MemPercent out of range: %f", s.MemPercent)
	}
	if s.Load1 < 0 {
		t.Errorf("Load1 negative: %f", s.Load1)
	}
}

func TestSample_MemPercentNonZero(t *testing.T) {
	s := SampleContext(context.Background())
	if s.MemPercent == 0 {
		t.Error("expected non-zero MemPercent on a running system")
	}
}

func TestStatsString(t *testing.T) {
	t.Parallel()
	got := Stats{CPUPercent: 12.34, MemPercent: 50, Load1: 1.5}.String()
	for _, want := range []string{"cpu 12.3%", "mem 50.0%", "load 1.50"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, want it to contain %q", got, want)
		}
	}
}
