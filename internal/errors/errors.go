// Package errors provides structured error types and exit codes for convstudy.
//
// Every failure of a convergence study is reported as a *StudyError. The Kind
// field tags the failure (template, launch, run failure, artifact, ...) so that
// callers can branch on it without string matching. None of the kinds are
// retried: the sweep stops at the first error and the kind decides the exit code.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess          = 0 // Success
	ExitRuntimeError     = 1 // A run failed or produced no usable artifact
	ExitConfigError      = 2 // Invalid arguments, study file or template
	ExitEnvironmentError = 3 // A participant executable could not be started
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindTemplate
	KindLaunch
	KindRunFailure
	KindArtifact
)

// String returns the name used in diagnostics.
func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTemplate:
		return "template"
	case KindLaunch:
		return "launch"
	case KindRunFailure:
		return "run failure"
	case KindArtifact:
		return "artifact"
	default:
		return "runtime"
	}
}

// StudyError is the base error type for convstudy.
type StudyError struct {
	Kind        ErrorKind
	Message     string
	Participant string   // Participant name if applicable
	LogPaths    []string // Log files of every participant of the failed run
	Cause       error    // Underlying error
}

func (e *StudyError) Error() string {
	msg := e.Message
	if e.Participant != "" {
		msg = fmt.Sprintf("[%s] %s", e.Participant, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if len(e.LogPaths) > 0 {
		msg += "\n  logs:\n    " + strings.Join(e.LogPaths, "\n    ")
	}
	return msg
}

func (e *StudyError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *StudyError) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindTemplate:
		return ExitConfigError
	case KindLaunch:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// New creates a new runtime error.
func New(message string) *StudyError {
	return &StudyError{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *StudyError {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *StudyError {
	return &StudyError{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *StudyError {
	return Config(fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *StudyError {
	return &StudyError{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// Template creates an error for a template that cannot be resolved, parsed or
// executed against the given parameters.
func Template(path string, cause error) *StudyError {
	return &StudyError{
		Kind:    KindTemplate,
		Message: fmt.Sprintf("cannot render template %s", path),
		Cause:   cause,
	}
}

// Launch creates an error for a participant process that could not be started.
func Launch(participant string, cause error) *StudyError {
	return &StudyError{
		Kind:        KindLaunch,
		Message:     "failed to start participant",
		Participant: participant,
		Cause:       cause,
	}
}

// RunFailure creates an error for a run in which at least one participant
// exited with a non-zero status. logPaths holds the logs of all participants,
// not only the failing ones.
func RunFailure(failed []string, logPaths []string) *StudyError {
	return &StudyError{
		Kind:     KindRunFailure,
		Message:  fmt.Sprintf("run failed: %s", strings.Join(failed, ", ")),
		LogPaths: append([]string(nil), logPaths...),
	}
}

// Artifact creates an error for a missing or malformed error artifact.
func Artifact(participant, path string, cause error) *StudyError {
	return &StudyError{
		Kind:        KindArtifact,
		Message:     fmt.Sprintf("cannot read error artifact %s", path),
		Participant: participant,
		Cause:       cause,
	}
}

// KindOf returns the kind of the first StudyError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var se *StudyError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return KindRuntime, false
}

// Is reports whether err's chain contains a StudyError of the given kind.
func Is(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var se *StudyError
	if errors.As(err, &se) {
		return se.ExitCode()
	}
	return ExitRuntimeError
}
