package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/convstudy/internal/coupling"
	"github.com/AndreyAkinshin/convstudy/internal/participant"
	"github.com/AndreyAkinshin/convstudy/internal/provenance"
	"github.com/AndreyAkinshin/convstudy/internal/schema"
)

// LoadAndValidate reads a study file, checks it against the study schema,
// applies defaults, validates, and returns warnings.
func LoadAndValidate(path string) (*Study, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read study file: %w", err)
	}

	s, unknownWarnings, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}
	if err := s.setDir(path); err != nil {
		return nil, nil, err
	}

	applyDefaults(s)

	validationWarnings, err := Validate(s)

	// Combine warnings from both sources.
	allWarnings := make([]string, 0, len(unknownWarnings)+len(validationWarnings))
	allWarnings = append(allWarnings, unknownWarnings...)
	allWarnings = append(allWarnings, validationWarnings...)

	if err != nil {
		return nil, allWarnings, err
	}
	return s, allWarnings, nil
}

// Parse decodes study file content, validates its structure against the
// embedded schema and reports unknown fields as warnings. Relative paths of
// the result resolve against the working directory until a file location is
// known.
func Parse(data []byte) (*Study, []string, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse study file: %w", err)
	}
	if raw == nil {
		return nil, nil, fmt.Errorf("study file is empty")
	}

	if err := schema.ValidateStudyValue(raw); err != nil {
		return nil, nil, err
	}

	var s Study
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, nil, fmt.Errorf("failed to parse study file: %w", err)
	}

	return &s, detectUnknownFields(raw), nil
}

func (s *Study) setDir(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve study file path: %w", err)
	}
	s.dir = filepath.Dir(abs)
	return nil
}

// Dir returns the directory relative paths are resolved against.
func (s *Study) Dir() string {
	return s.dir
}

// resolve joins a relative path with the study directory.
func (s *Study) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.dir, path)
}

// TemplateRootPath returns the directory templates and the rendered
// configuration are resolved against.
func (s *Study) TemplateRootPath() string {
	return s.resolve(s.TemplateRoot)
}

// OutputPath returns the directory result files are written to.
func (s *Study) OutputPath() string {
	return s.resolve(s.OutputDir)
}

// BaseParameters returns the coupling parameters shared by every run,
// without a time window size.
func (s *Study) BaseParameters(maxTime float64, waveformDegree int) coupling.Parameters {
	p := coupling.Parameters{
		MaxTime:           maxTime,
		WaveformDegree:    waveformDegree,
		MaxUsedIterations: DefaultMaxUsedIterations,
		TimeWindowsReused: DefaultTimeWindowsReused,
	}
	if s.Coupling.MaxUsedIterations != nil {
		p.MaxUsedIterations = *s.Coupling.MaxUsedIterations
	}
	if s.Coupling.TimeWindowsReused != nil {
		p.TimeWindowsReused = *s.Coupling.TimeWindowsReused
	}
	return p
}

// ParticipantSpecs returns launchable participant descriptions in file order,
// each advancing one time step per window.
func (s *Study) ParticipantSpecs() []participant.Spec {
	specs := make([]participant.Spec, 0, len(s.Participants))
	for _, p := range s.Participants {
		kwargs := make(map[string]any, len(p.Kwargs))
		for k, v := range p.Kwargs {
			kwargs[k] = v
		}
		spec := participant.Spec{
			Name:        p.Name,
			Root:        s.resolve(p.Root),
			Exec:        append([]string(nil), p.Exec...),
			Params:      append([]string(nil), p.Params...),
			Kwargs:      kwargs,
			LogFile:     p.LogFile,
			ErrorsFile:  p.ErrorsFile,
			SubstepsKey: s.Keywords.Substeps,
		}
		specs = append(specs, spec.WithSubsteps(1))
	}
	return specs
}

// Probes returns the version probes for the provenance header.
func (s *Study) Probes() []provenance.Probe {
	probes := make([]provenance.Probe, 0, len(s.Versions))
	for _, v := range s.Versions {
		probes = append(probes, provenance.Probe{Name: v.Name, Command: v.Command})
	}
	return probes
}
