package coupling

import (
	"strings"
	"testing"
)

func baseParameters() Parameters {
	return Parameters{
		TimeWindowSize:    0.1,
		MaxTime:           1.0,
		WaveformDegree:    1,
		MaxUsedIterations: 10,
		TimeWindowsReused: 5,
	}
}

func TestWithTimeWindowSize_DoesNotMutateBase(t *testing.T) {
	base := baseParameters()

	derived := base.WithTimeWindowSize(0.025)

	if derived.TimeWindowSize != 0.025 {
		t.Errorf("derived.TimeWindowSize = %g, want 0.025", derived.TimeWindowSize)
	}
	if base.TimeWindowSize != 0.1 {
		t.Errorf("base.TimeWindowSize = %g, want 0.1 (unchanged)", base.TimeWindowSize)
	}
	if derived.MaxTime != base.MaxTime || derived.WaveformDegree != base.WaveformDegree {
		t.Error("WithTimeWindowSize() dropped other fields")
	}
}

func TestWithSubsteps(t *testing.T) {
	base := baseParameters()
	if got := base.WithSubsteps(true); !got.Substeps {
		t.Error("WithSubsteps(true) did not set the flag")
	}
	if base.Substeps {
		t.Error("WithSubsteps() mutated the receiver")
	}
}

func TestValues(t *testing.T) {
	v := baseParameters().WithSubsteps(true).Values()

	want := map[string]any{
		KeyTimeWindowSize:    0.1,
		KeyMaxTime:           1.0,
		KeyWaveformDegree:    1,
		KeySubsteps:          true,
		KeyMaxUsedIterations: 10,
		KeyTimeWindowsReused: 5,
	}
	if len(v) != len(want) {
		t.Fatalf("Values() has %d keys, want %d", len(v), len(want))
	}
	for k, w := range want {
		if v[k] != w {
			t.Errorf("Values()[%q] = %v, want %v", k, v[k], w)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(p *Parameters)
		wantErr string
	}{
		{"valid", func(p *Parameters) {}, ""},
		{"zero window", func(p *Parameters) { p.TimeWindowSize = 0 }, "time window size"},
		{"negative max time", func(p *Parameters) { p.MaxTime = -1 }, "max time"},
		{"negative degree", func(p *Parameters) { p.WaveformDegree = -1 }, "waveform degree"},
		{"negative reuse", func(p *Parameters) { p.TimeWindowsReused = -1 }, "iteration limits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParameters()
			tt.modify(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
