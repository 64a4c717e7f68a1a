// Package coupling holds the coupling-scheme parameters handed to the
// configuration template of every run.
package coupling

import "fmt"

// Template keys recognized by coupling-configuration templates.
const (
	KeyTimeWindowSize    = "time_window_size"
	KeyMaxTime           = "max_time"
	KeyWaveformDegree    = "waveform_degree"
	KeySubsteps          = "substeps"
	KeyMaxUsedIterations = "max_used_iterations"
	KeyTimeWindowsReused = "time_windows_reused"
)

// Parameters is an immutable set of coupling settings. A sweep keeps one base
// value and derives a fresh copy per sweep point, so a failed run never leaves
// stale values behind for the next one.
type Parameters struct {
	TimeWindowSize    float64 `yaml:"time_window_size"`
	MaxTime           float64 `yaml:"max_time"`
	WaveformDegree    int     `yaml:"waveform_degree"`
	Substeps          bool    `yaml:"substeps"`
	MaxUsedIterations int     `yaml:"max_used_iterations"`
	TimeWindowsReused int     `yaml:"time_windows_reused"`
}

// WithTimeWindowSize returns a copy with the time window size replaced.
func (p Parameters) WithTimeWindowSize(dt float64) Parameters {
	p.TimeWindowSize = dt
	return p
}

// WithSubsteps returns a copy with the subcycling flag replaced.
func (p Parameters) WithSubsteps(enabled bool) Parameters {
	p.Substeps = enabled
	return p
}

// Values returns the mapping passed to the template renderer.
func (p Parameters) Values() map[string]any {
	return map[string]any{
		KeyTimeWindowSize:    p.TimeWindowSize,
		KeyMaxTime:           p.MaxTime,
		KeyWaveformDegree:    p.WaveformDegree,
		KeySubsteps:          p.Substeps,
		KeyMaxUsedIterations: p.MaxUsedIterations,
		KeyTimeWindowsReused: p.TimeWindowsReused,
	}
}

// Validate checks the invariants every rendered configuration relies on.
func (p Parameters) Validate() error {
	if !(p.TimeWindowSize > 0) {
		return fmt.Errorf("time window size must be positive, got %g", p.TimeWindowSize)
	}
	if !(p.MaxTime > 0) {
		return fmt.Errorf("max time must be positive, got %g", p.MaxTime)
	}
	if p.WaveformDegree < 0 {
		return fmt.Errorf("waveform degree must not be negative, got %d", p.WaveformDegree)
	}
	if p.MaxUsedIterations < 0 || p.TimeWindowsReused < 0 {
		return fmt.Errorf("iteration limits must not be negative")
	}
	return nil
}
