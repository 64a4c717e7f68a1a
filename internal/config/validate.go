package config

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// Participant names end up in file names and CSV column headers.
var participantNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ValidationError represents a study file validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a study for errors and returns warnings for non-fatal issues.
func Validate(s *Study) (warnings []string, err error) {
	if err := validateCoupling(s.Coupling); err != nil {
		return nil, err
	}
	if err := validateKeywords(s.Keywords); err != nil {
		return nil, err
	}
	if err := validateParticipants(s.Participants); err != nil {
		return nil, err
	}
	if err := validateVersions(s.Versions); err != nil {
		return nil, err
	}

	if n := len(s.Participants); n != 2 {
		warnings = append(warnings, fmt.Sprintf("study has %d participants; partitioned studies usually couple exactly 2", n))
	}
	for _, p := range s.Participants {
		if _, ok := p.Kwargs[s.Keywords.Substeps]; ok {
			warnings = append(warnings, fmt.Sprintf("participant %q: kwarg %q is set by the sweep (ignored)", p.Name, s.Keywords.Substeps))
		}
	}
	return warnings, nil
}

func validateCoupling(c CouplingConfig) error {
	if c.MaxUsedIterations != nil && *c.MaxUsedIterations < 0 {
		return &ValidationError{Field: "coupling.max_used_iterations", Message: "must not be negative"}
	}
	if c.TimeWindowsReused != nil && *c.TimeWindowsReused < 0 {
		return &ValidationError{Field: "coupling.time_windows_reused", Message: "must not be negative"}
	}
	return nil
}

func validateKeywords(k KeywordsConfig) error {
	seen := map[string]string{}
	for _, kw := range []struct{ field, value string }{
		{"keywords.substeps", k.Substeps},
		{"keywords.time_stepping", k.TimeStepping},
		{"keywords.experiment", k.Experiment},
	} {
		if other, ok := seen[kw.value]; ok {
			return &ValidationError{Field: kw.field, Message: fmt.Sprintf("%q is already used by %s", kw.value, other)}
		}
		seen[kw.value] = kw.field
	}
	return nil
}

func validateParticipants(participants []ParticipantConfig) error {
	if len(participants) == 0 {
		return &ValidationError{Field: "participants", Message: "at least one participant is required"}
	}
	seen := make(map[string]bool, len(participants))
	for i, p := range participants {
		field := fmt.Sprintf("participants[%d]", i)
		if !participantNamePattern.MatchString(p.Name) {
			return &ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("invalid participant name %q: must start with a letter and contain only letters, digits, '_' or '-'", p.Name),
			}
		}
		if seen[p.Name] {
			return &ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate participant name %q", p.Name)}
		}
		seen[p.Name] = true

		if len(p.Exec) == 0 || p.Exec[0] == "" {
			return &ValidationError{Field: field + ".exec", Message: "an executable is required"}
		}
		for _, f := range []struct{ name, value string }{
			{"log_file", p.LogFile},
			{"errors_file", p.ErrorsFile},
		} {
			if f.value != "" && filepath.IsAbs(f.value) {
				return &ValidationError{Field: field + "." + f.name, Message: "must be relative to the participant root"}
			}
		}
		if p.LogFile != "" && p.LogFile == p.ErrorsFile {
			return &ValidationError{Field: field + ".errors_file", Message: "must differ from log_file"}
		}
	}
	return nil
}

func validateVersions(versions []VersionConfig) error {
	for i, v := range versions {
		if v.Name == "" {
			return &ValidationError{Field: fmt.Sprintf("versions[%d].name", i), Message: "is required"}
		}
		if v.Command == "" {
			return &ValidationError{Field: fmt.Sprintf("versions[%d].command", i), Message: "is required"}
		}
	}
	return nil
}
