// Package convstudy provides public constants for external tools driving
// convstudy, for example CI jobs that chain several studies.
package convstudy

// Exit codes returned by the convstudy CLI.
const (
	// ExitSuccess indicates every run of the sweep completed and the result file was finalized.
	ExitSuccess = 0

	// ExitFailure indicates a run failed or a participant produced no usable error artifact.
	ExitFailure = 1

	// ExitConfigError indicates invalid arguments, an invalid study file or a template error.
	ExitConfigError = 2

	// ExitEnvError indicates a participant executable could not be started.
	ExitEnvError = 3
)
