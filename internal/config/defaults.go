package config

// Default configuration values.
const (
	DefaultConfigPath        = "precice-config.xml"
	DefaultOutputDir         = "convergence-studies"
	DefaultMaxUsedIterations = 10
	DefaultTimeWindowsReused = 5
	DefaultSubstepsKeyword   = "n-substeps"
	DefaultTimeSteppingKey   = "time-stepping"
	DefaultExperimentKeyword = "experiment"
	DefaultErrorTolerance    = 10e10
)

// Default returns the built-in study rooted at dir: the partitioned heat
// equation with a Dirichlet and a Neumann participant solved by FEniCS.
func Default(dir string) *Study {
	heat := func(name, flag string) ParticipantConfig {
		return ParticipantConfig{
			Name:   name,
			Root:   "fenics",
			Exec:   []string{"python3", "heat.py"},
			Params: []string{flag},
			Kwargs: map[string]any{"error-tol": DefaultErrorTolerance},
		}
	}
	s := &Study{
		Participants: []ParticipantConfig{
			heat("Dirichlet", "-d"),
			heat("Neumann", "-n"),
		},
		Versions: []VersionConfig{
			{Name: "fenics version", Command: `python3 -c "import fenics; print(fenics.__version__)"`},
			{Name: "precice version", Command: `python3 -c "import precice; print(precice.get_version_information())"`},
		},
		dir: dir,
	}
	applyDefaults(s)
	return s
}

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(s *Study) {
	if s.ConfigPath == "" {
		s.ConfigPath = DefaultConfigPath
	}
	if s.OutputDir == "" {
		s.OutputDir = DefaultOutputDir
	}
	applyCouplingDefaults(&s.Coupling)
	applyKeywordDefaults(&s.Keywords)
}

func applyCouplingDefaults(c *CouplingConfig) {
	if c.MaxUsedIterations == nil {
		n := DefaultMaxUsedIterations
		c.MaxUsedIterations = &n
	}
	if c.TimeWindowsReused == nil {
		n := DefaultTimeWindowsReused
		c.TimeWindowsReused = &n
	}
}

func applyKeywordDefaults(k *KeywordsConfig) {
	if k.Substeps == "" {
		k.Substeps = DefaultSubstepsKeyword
	}
	if k.TimeStepping == "" {
		k.TimeStepping = DefaultTimeSteppingKey
	}
	if k.Experiment == "" {
		k.Experiment = DefaultExperimentKeyword
	}
}
