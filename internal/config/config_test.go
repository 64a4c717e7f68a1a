package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testStudy = `
template_root: templates
config_path: precice-config.xml
output_dir: results
coupling:
  max_used_iterations: 7
keywords:
  substeps: substeps
participants:
  - name: Dirichlet
    root: fenics
    exec: [python3, heat.py]
    params: [-d]
    kwargs:
      error-tol: 10e10
  - name: Neumann
    root: fenics
    exec: [python3, heat.py]
    params: [-n]
    log_file: neumann.log
versions:
  - name: fenics version
    command: echo 2019.1.0
`

// writeStudy writes content to convstudy.yaml in a temp dir and returns its path.
func writeStudy(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeStudy(t, testStudy)
	dir := filepath.Dir(path)

	s, warnings, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}

	if s.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", s.Dir(), dir)
	}
	if got := s.TemplateRootPath(); got != filepath.Join(dir, "templates") {
		t.Errorf("TemplateRootPath() = %q", got)
	}
	if got := s.OutputPath(); got != filepath.Join(dir, "results") {
		t.Errorf("OutputPath() = %q", got)
	}

	// Unset fields fall back to defaults.
	if s.Keywords.TimeStepping != DefaultTimeSteppingKey || s.Keywords.Experiment != DefaultExperimentKeyword {
		t.Errorf("Keywords = %+v, want defaults for unset keywords", s.Keywords)
	}
	p := s.BaseParameters(2, 1)
	if p.MaxUsedIterations != 7 || p.TimeWindowsReused != DefaultTimeWindowsReused {
		t.Errorf("BaseParameters() = %+v", p)
	}
	if p.MaxTime != 2 || p.WaveformDegree != 1 || p.TimeWindowSize != 0 {
		t.Errorf("BaseParameters() = %+v", p)
	}
}

func TestStudy_ParticipantSpecs(t *testing.T) {
	path := writeStudy(t, testStudy)
	dir := filepath.Dir(path)

	s, _, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate() error = %v", err)
	}

	specs := s.ParticipantSpecs()
	if len(specs) != 2 {
		t.Fatalf("ParticipantSpecs() = %d specs, want 2", len(specs))
	}

	d := specs[0]
	if d.Name != "Dirichlet" || d.Root != filepath.Join(dir, "fenics") {
		t.Errorf("spec = %+v", d)
	}
	if d.Substeps != 1 || d.SubstepsKey != "substeps" {
		t.Errorf("Substeps, SubstepsKey = %d, %q", d.Substeps, d.SubstepsKey)
	}
	want := "python3 heat.py -d --error-tol=1e+11 --substeps=1"
	if got := d.CommandLine(); got != want {
		t.Errorf("CommandLine() = %q, want %q", got, want)
	}

	n := specs[1]
	if n.LogPath() != filepath.Join(dir, "fenics", "neumann.log") {
		t.Errorf("LogPath() = %q", n.LogPath())
	}
	if n.ErrorsPath() != filepath.Join(dir, "fenics", "errors-Neumann.csv") {
		t.Errorf("ErrorsPath() = %q", n.ErrorsPath())
	}

	// Specs own their maps.
	specs[0].Kwargs["error-tol"] = 1
	if s.Participants[0].Kwargs["error-tol"] != 10e10 {
		t.Error("ParticipantSpecs() shares kwargs with the study")
	}
}

func TestStudy_Probes(t *testing.T) {
	s, _, err := LoadAndValidate(writeStudy(t, testStudy))
	if err != nil {
		t.Fatalf("LoadAndValidate() error = %v", err)
	}
	probes := s.Probes()
	if len(probes) != 1 || probes[0].Name != "fenics version" || probes[0].Command != "echo 2019.1.0" {
		t.Errorf("Probes() = %+v", probes)
	}
}

func TestLoadAndValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{"not yaml", "participants: [", "parse"},
		{"empty", "", "empty"},
		{"schema violation", "participants: []", "validation"},
		{"duplicate names", `
participants:
  - {name: A, exec: [s]}
  - {name: A, exec: [s]}
`, "duplicate"},
		{"invalid name", `
participants:
  - {name: "A B", exec: [s]}
`, "invalid participant name"},
		{"absolute log file", `
participants:
  - {name: A, exec: [s], log_file: /tmp/a.log}
`, "log_file"},
		{"keyword clash", `
keywords: {substeps: mode, experiment: mode}
participants:
  - {name: A, exec: [s]}
`, "already used"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadAndValidate(writeStudy(t, tt.content))
			if err == nil {
				t.Fatal("LoadAndValidate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error = %q, want it to mention %q", err, tt.errPart)
			}
		})
	}
}

func TestLoadAndValidate_MissingFile(t *testing.T) {
	_, _, err := LoadAndValidate(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("LoadAndValidate() error = %v, want read error", err)
	}
}

func TestLoadAndValidate_Warnings(t *testing.T) {
	content := `
participants:
  - name: Solo
    exec: [solver]
    kwargs:
      n-substeps: 4
`
	_, warnings, err := LoadAndValidate(writeStudy(t, content))
	if err != nil {
		t.Fatalf("LoadAndValidate() error = %v", err)
	}

	joined := strings.Join(warnings, "\n")
	if !strings.Contains(joined, "1 participants") {
		t.Errorf("warnings = %v, want participant count warning", warnings)
	}
	if !strings.Contains(joined, `"n-substeps" is set by the sweep`) {
		t.Errorf("warnings = %v, want substeps kwarg warning", warnings)
	}
}

func TestDefault(t *testing.T) {
	dir := t.TempDir()
	s := Default(dir)

	if _, err := Validate(s); err != nil {
		t.Fatalf("Validate(Default()) error = %v", err)
	}
	if s.Dir() != dir || s.TemplateRootPath() != dir {
		t.Errorf("Dir(), TemplateRootPath() = %q, %q; want %q", s.Dir(), s.TemplateRootPath(), dir)
	}
	if s.OutputPath() != filepath.Join(dir, DefaultOutputDir) {
		t.Errorf("OutputPath() = %q", s.OutputPath())
	}
	if s.ConfigPath != DefaultConfigPath {
		t.Errorf("ConfigPath = %q", s.ConfigPath)
	}

	specs := s.ParticipantSpecs()
	if len(specs) != 2 {
		t.Fatalf("ParticipantSpecs() = %d, want 2", len(specs))
	}
	want := []string{
		"python3 heat.py -d --error-tol=1e+11 --n-substeps=1",
		"python3 heat.py -n --error-tol=1e+11 --n-substeps=1",
	}
	for i, spec := range specs {
		if spec.Root != filepath.Join(dir, "fenics") {
			t.Errorf("%s root = %q", spec.Name, spec.Root)
		}
		if got := spec.CommandLine(); got != want[i] {
			t.Errorf("%s CommandLine() = %q, want %q", spec.Name, got, want[i])
		}
	}

	p := s.BaseParameters(1, 1)
	if p.MaxUsedIterations != 10 || p.TimeWindowsReused != 5 {
		t.Errorf("BaseParameters() = %+v, want 10 and 5", p)
	}
}
