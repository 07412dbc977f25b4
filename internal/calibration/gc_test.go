package calibration

import (
	"runtime/debug"
	"testing"
)

func TestNewGCControllerActivation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		mode  GCMode
		sizes []int
		want  bool
	}{
		{"auto small sizes", GCModeAuto, []int{16, 1024}, false},
		{"auto large size", GCModeAuto, []int{16, GCAutoThreshold}, true},
		{"empty mode is auto", "", []int{GCAutoThreshold * 2}, true},
		{"auto no sizes", GCModeAuto, nil, false},
		{"aggressive", GCModeAggressive, []int{16}, true},
		{"disabled", GCModeDisabled, []int{GCAutoThreshold * 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NewGCController(tt.mode, tt.sizes).Active(); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Not parallel: the collector settings are process-wide.
func TestGCControllerRestoresSettings(t *testing.T) {
	original := debug.SetGCPercent(75)
	defer debug.SetGCPercent(original)

	gc := NewGCController(GCModeAggressive, nil)
	gc.Begin()
	if during := debug.SetGCPercent(-1); during != -1 {
		t.Errorf("GC percent during warm-up = %d, want -1", during)
	}
	gc.End()

	if after := debug.SetGCPercent(75); after != 75 {
		t.Errorf("GC percent after End = %d, want 75", after)
	}
	if s := gc.Stats(); s.HeapAlloc == 0 {
		t.Error("Stats().HeapAlloc should be recorded at End")
	}
}

func TestGCControllerInactiveIsNoop(t *testing.T) {
	gc := NewGCController(GCModeDisabled, nil)
	gc.Begin()
	gc.End()
	if s := gc.Stats(); s != (GCStats{}) {
		t.Errorf("Stats() = %+v, want zero", s)
	}
}
