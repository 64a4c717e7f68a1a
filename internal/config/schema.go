// Package config loads and validates convstudy study files.
//
// A study file (convstudy.yaml) describes the experiment family: where the
// coupling-configuration template lives, which participants take part and
// how they are invoked, and which version probes go into the provenance
// header. Relative paths are resolved against the directory of the file.
package config

// Study represents a complete study file.
type Study struct {
	TemplateRoot string              `yaml:"template_root,omitempty"`
	ConfigPath   string              `yaml:"config_path,omitempty"`
	OutputDir    string              `yaml:"output_dir,omitempty"`
	Coupling     CouplingConfig      `yaml:"coupling,omitempty"`
	Keywords     KeywordsConfig      `yaml:"keywords,omitempty"`
	Participants []ParticipantConfig `yaml:"participants"`
	Versions     []VersionConfig     `yaml:"versions,omitempty"`

	dir string // Directory relative paths are resolved against
}

// CouplingConfig holds coupling-scheme settings not swept by the CLI.
type CouplingConfig struct {
	MaxUsedIterations *int `yaml:"max_used_iterations,omitempty"`
	TimeWindowsReused *int `yaml:"time_windows_reused,omitempty"`
}

// KeywordsConfig names the keyword arguments the sweep passes to every
// participant.
type KeywordsConfig struct {
	Substeps     string `yaml:"substeps,omitempty"`
	TimeStepping string `yaml:"time_stepping,omitempty"`
	Experiment   string `yaml:"experiment,omitempty"`
}

// ParticipantConfig describes how one participant is launched.
type ParticipantConfig struct {
	Name       string         `yaml:"name"`
	Root       string         `yaml:"root,omitempty"`
	Exec       []string       `yaml:"exec"`
	Params     []string       `yaml:"params,omitempty"`
	Kwargs     map[string]any `yaml:"kwargs,omitempty"`
	LogFile    string         `yaml:"log_file,omitempty"`
	ErrorsFile string         `yaml:"errors_file,omitempty"`
}

// VersionConfig is a shell command printing a solver-framework version.
type VersionConfig struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command"`
}
