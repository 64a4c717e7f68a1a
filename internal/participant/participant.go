// Package participant describes the solver processes taking part in a run.
package participant

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Spec is the declarative description of one participant. Values are never
// modified in place: the With* methods return copies with their own maps and
// slices, so a sweep can derive per-point specs from a shared base.
type Spec struct {
	Name       string         `yaml:"name"`
	Root       string         `yaml:"root"`   // Working directory
	Exec       []string       `yaml:"exec"`   // Executable and interpreter arguments
	Params     []string       `yaml:"params"` // Positional parameters
	Kwargs     map[string]any `yaml:"kwargs"` // Flattened to --key=value
	LogFile    string         `yaml:"log_file"`
	ErrorsFile string         `yaml:"errors_file"`

	// Substeps is the number of participant time steps per time window.
	// When SubstepsKey is set it is also passed as --<SubstepsKey>=<Substeps>.
	Substeps    int    `yaml:"substeps"`
	SubstepsKey string `yaml:"substeps_key,omitempty"`
}

// DefaultLogFile returns the log file name used when none is configured.
func DefaultLogFile(name string) string {
	return fmt.Sprintf("stdout-%s.log", name)
}

// DefaultErrorsFile returns the error artifact name used when none is configured.
func DefaultErrorsFile(name string) string {
	return fmt.Sprintf("errors-%s.csv", name)
}

// clone returns a deep copy of s.
func (s Spec) clone() Spec {
	c := s
	c.Exec = append([]string(nil), s.Exec...)
	c.Params = append([]string(nil), s.Params...)
	c.Kwargs = make(map[string]any, len(s.Kwargs))
	for k, v := range s.Kwargs {
		c.Kwargs[k] = v
	}
	return c
}

// WithKwarg returns a copy of s with key set to value.
func (s Spec) WithKwarg(key string, value any) Spec {
	c := s.clone()
	c.Kwargs[key] = value
	return c
}

// WithSubsteps returns a copy of s advancing n time steps per time window.
func (s Spec) WithSubsteps(n int) Spec {
	c := s.clone()
	c.Substeps = n
	if c.SubstepsKey != "" {
		c.Kwargs[c.SubstepsKey] = n
	}
	return c
}

// LogPath returns the path of the participant's stdout log.
func (s Spec) LogPath() string {
	name := s.LogFile
	if name == "" {
		name = DefaultLogFile(s.Name)
	}
	return filepath.Join(s.Root, name)
}

// ErrorsPath returns the path of the error artifact written on success.
func (s Spec) ErrorsPath() string {
	name := s.ErrorsFile
	if name == "" {
		name = DefaultErrorsFile(s.Name)
	}
	return filepath.Join(s.Root, name)
}

// Args returns the full invocation: executable and interpreter arguments,
// positional parameters, then keyword arguments as --key=value in key order.
func (s Spec) Args() []string {
	args := make([]string, 0, len(s.Exec)+len(s.Params)+len(s.Kwargs))
	args = append(args, s.Exec...)
	args = append(args, s.Params...)

	keys := make([]string, 0, len(s.Kwargs))
	for k := range s.Kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, fmt.Sprintf("--%s=%s", strings.TrimLeft(k, "-"), FormatValue(s.Kwargs[k])))
	}
	return args
}

// CommandLine returns Args joined for display.
func (s Spec) CommandLine() string {
	return strings.Join(s.Args(), " ")
}

// Validate checks that the spec can be launched.
func (s Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("participant name is required")
	}
	if len(s.Exec) == 0 || s.Exec[0] == "" {
		return fmt.Errorf("participant %q: exec is required", s.Name)
	}
	if s.Substeps < 1 {
		return fmt.Errorf("participant %q: substeps must be at least 1, got %d", s.Name, s.Substeps)
	}
	return nil
}

// FormatValue renders a keyword-argument value canonically: integers in
// decimal, floats in their shortest round-trip form, booleans as true/false.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
