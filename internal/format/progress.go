package format

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// MaxETA caps estimates so a stalled workload does not report absurd values.
const MaxETA = 24 * time.Hour

// ProgressState tracks the completion fraction of several concurrent
// workloads. It is safe for concurrent use.
type ProgressState struct {
	mu           sync.Mutex
	progresses   []float64
	numWorkloads int
}

// NewProgressState returns a state tracking numWorkloads workloads.
func NewProgressState(numWorkloads int) *ProgressState {
	if numWorkloads < 0 {
		numWorkloads = 0
	}
	return &ProgressState{progresses: make([]float64, numWorkloads), numWorkloads: numWorkloads}
}

// Update records the progress of one workload. Values are clamped to
// [0, 1] and out-of-range indexes are ignored.
func (p *ProgressState) Update(index int, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.update(index, value)
}

func (p *ProgressState) update(index int, value float64) {
	if index < 0 || index >= len(p.progresses) {
		return
	}
	p.progresses[index] = min(max(value, 0), 1)
}

// CalculateAverage returns the mean progress across all workloads.
func (p *ProgressState) CalculateAverage() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.average()
}

func (p *ProgressState) average() float64 {
	if p.numWorkloads == 0 {
		return 0
	}
	var total float64
	for _, v := range p.progresses {
		total += v
	}
	return total / float64(p.numWorkloads)
}

// ProgressWithETA extends ProgressState with an estimate of the time
// remaining, derived from the average progress rate since creation.
type ProgressWithETA struct {
	*ProgressState
	numWorkloads int
	startTime    time.Time
	progressRate float64 // average progress per second
}

// NewProgressWithETA starts tracking numWorkloads workloads from now.
func NewProgressWithETA(numWorkloads int) *ProgressWithETA {
	return &ProgressWithETA{
		ProgressState: NewProgressState(numWorkloads),
		numWorkloads:  numWorkloads,
		startTime:     time.Now(),
	}
}

// UpdateWithETA records one workload's progress and returns the new average
// together with the estimated time remaining.
func (p *ProgressWithETA) UpdateWithETA(index int, value float64) (float64, time.Duration) {
	p.mu.Lock()
	p.update(index, value)
	avg := p.average()
	if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 {
		p.progressRate = avg / elapsed
	}
	p.mu.Unlock()
	return avg, p.GetETA()
}

// GetETA returns the estimated time remaining, zero while no rate is known.
func (p *ProgressWithETA) GetETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.progressRate <= 0 {
		return 0
	}
	remaining := 1 - p.average()
	if remaining <= 0 {
		return 0
	}
	seconds := remaining / p.progressRate
	if seconds > MaxETA.Seconds() {
		return MaxETA
	}
	return time.Duration(seconds * float64(time.Second))
}

// FormatETA renders an ETA compactly: "45s", "2m30s", "1h15m".
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		m := int(eta.Minutes())
		s := int(eta.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		h := int(eta.Hours())
		m := int(eta.Minutes()) % 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	}
}

// ProgressBar renders progress as a bar of length cells.
func ProgressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(length))
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

// FormatProgressBarWithETA renders "[bar]  50.0% ETA: 30s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("[%s] %5.1f%% ETA: %s", ProgressBar(progress, width), min(max(progress, 0), 1)*100, FormatETA(eta))
}
