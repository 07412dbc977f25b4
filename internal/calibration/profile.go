// This file implements calibration profile persistence.

package calibration

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/agbru/tieraccel/internal/operation"
	"github.com/agbru/tieraccel/internal/threshold"
)

// Profile stores the results of a calibration run together with the
// hardware it was measured on, so cached thresholds are only reused on a
// matching machine.
type Profile struct {
	// Hardware identification
	NumCPU    int    `json:"num_cpu"`
	GOARCH    string `json:"goarch"`
	GOOS      string `json:"goos"`
	GoVersion string `json:"go_version"`
	WordSize  int    `json:"word_size"` // 32 or 64

	// Thresholds maps "domain/type/operation" to the calibrated threshold.
	Thresholds map[string]int `json:"thresholds"`

	CalibratedAt    time.Time `json:"calibrated_at"`
	CalibrationTime string    `json:"calibration_time"`

	ProfileVersion int `json:"profile_version"`
}

const (
	// CurrentProfileVersion is the current version of the profile format.
	CurrentProfileVersion = 1

	// DefaultProfileFileName is the default name for the calibration profile file.
	DefaultProfileFileName = ".tieraccel_calibration.json"
)

// GetDefaultProfilePath returns the default path for the calibration profile,
// in the user's home directory when it is known.
func GetDefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}

// NewProfile creates an empty profile describing the current hardware.
func NewProfile() *Profile {
	return &Profile{
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		WordSize:       32 << (^uint(0) >> 63),
		Thresholds:     make(map[string]int),
		CalibratedAt:   time.Now(),
		ProfileVersion: CurrentProfileVersion,
	}
}

// NewProfileFromResults builds a profile from a warm-up.
func NewProfileFromResults(results []Result, elapsed time.Duration) *Profile {
	p := NewProfile()
	p.Thresholds = Thresholds(results)
	p.CalibrationTime = elapsed.Round(time.Millisecond).String()
	return p
}

// LoadProfile loads a calibration profile from path, or from the default
// path when path is empty.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		path = GetDefaultProfilePath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile writes the profile to path, or to the default path when path
// is empty. Missing parent directories are created.
func (p *Profile) SaveProfile(path string) error {
	if path == "" {
		path = GetDefaultProfilePath()
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// IsValid reports whether the profile was written by the current format
// version on hardware matching this machine.
func (p *Profile) IsValid() bool {
	if p == nil {
		return false
	}
	return p.ProfileVersion == CurrentProfileVersion &&
		p.NumCPU == runtime.NumCPU() &&
		p.GOARCH == runtime.GOARCH &&
		p.WordSize == 32<<(^uint(0)>>63)
}

// IsStale reports whether the profile is older than maxAge.
func (p *Profile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

// Apply seeds reg with the profile's thresholds. Entries whose name is not
// a valid key are skipped. It returns the number of seeded operations.
func (p *Profile) Apply(reg *threshold.Registry) int {
	if p == nil {
		return 0
	}
	n := 0
	for name, v := range p.Thresholds {
		key, err := operation.Parse(name)
		if err != nil {
			continue
		}
		reg.Seed(key, v)
		n++
	}
	return n
}

// String returns a human-readable summary of the profile.
func (p *Profile) String() string {
	if p == nil {
		return "<nil profile>"
	}
	parts := make([]string, 0, len(p.Thresholds))
	for _, name := range slices.Sorted(maps.Keys(p.Thresholds)) {
		parts = append(parts, fmt.Sprintf("%s=%d", name, p.Thresholds[name]))
	}
	return fmt.Sprintf("Profile[%s/%s, %d CPUs, calibrated %s]: %s",
		p.GOOS, p.GOARCH, p.NumCPU, p.CalibratedAt.Format(time.RFC3339), strings.Join(parts, ", "))
}
