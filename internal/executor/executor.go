// Package executor runs one experiment: it renders the coupling
// configuration, launches every participant concurrently, waits for all of
// them, classifies the outcome and extracts each participant's error metric.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/AndreyAkinshin/convstudy/internal/artifact"
	"github.com/AndreyAkinshin/convstudy/internal/coupling"
	"github.com/AndreyAkinshin/convstudy/internal/errors"
	"github.com/AndreyAkinshin/convstudy/internal/participant"
	"github.com/AndreyAkinshin/convstudy/internal/render"
	"github.com/AndreyAkinshin/convstudy/internal/results"
)

// Executor runs single experiments. Runs reuse the same rendered
// configuration path and participant log/artifact paths, so an Executor must
// not run experiments concurrently.
type Executor struct {
	renderer   *render.Renderer
	configPath string
	logger     *slog.Logger
}

// New creates an Executor rendering the coupling configuration to configPath
// (relative paths are resolved against the renderer's template root).
func New(renderer *render.Renderer, configPath string, logger *slog.Logger) *Executor {
	return &Executor{
		renderer:   renderer,
		configPath: configPath,
		logger:     logger,
	}
}

// runtime is the live state of one participant during a run.
type runtime struct {
	spec     participant.Spec
	cmd      *exec.Cmd
	log      *os.File
	started  time.Time
	exitCode int
	waitErr  error
}

// Execute performs one run. The returned error is a *errors.StudyError whose
// kind is KindConfig, KindTemplate, KindLaunch, KindRunFailure or
// KindArtifact; the row is only valid when the error is nil.
func (e *Executor) Execute(ctx context.Context, templatePath string, params coupling.Parameters, participants []participant.Spec) (results.Row, error) {
	if err := validate(params, participants); err != nil {
		return nil, err
	}

	if err := e.renderer.Render(templatePath, e.configPath, params.Values()); err != nil {
		return nil, err
	}

	for _, p := range participants {
		if err := os.Remove(p.ErrorsPath()); err != nil && !os.IsNotExist(err) {
			return nil, errors.Artifact(p.Name, p.ErrorsPath(), fmt.Errorf("remove stale artifact: %w", err))
		}
	}

	runtimes, err := e.launch(ctx, participants)
	if err != nil {
		return nil, err
	}

	e.waitAll(runtimes)

	if err := classify(ctx, runtimes); err != nil {
		return nil, err
	}

	return collect(params.TimeWindowSize, runtimes)
}

func validate(params coupling.Parameters, participants []participant.Spec) error {
	if err := params.Validate(); err != nil {
		return errors.Configf("invalid coupling parameters: %v", err)
	}
	if len(participants) == 0 {
		return errors.Config("no participants configured")
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if err := p.Validate(); err != nil {
			return errors.Config(err.Error())
		}
		if seen[p.Name] {
			return errors.Configf("duplicate participant name %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// launch starts every participant before any is waited on; coupled
// participants block on each other, so they must all be running at once.
// If one cannot be started, the already running ones are killed and reaped.
func (e *Executor) launch(ctx context.Context, participants []participant.Spec) ([]*runtime, error) {
	runtimes := make([]*runtime, 0, len(participants))
	for _, p := range participants {
		rt, err := start(ctx, p)
		if err != nil {
			abort(runtimes)
			return nil, errors.Launch(p.Name, err)
		}
		e.logger.Debug("participant started",
			"participant", p.Name,
			"pid", rt.cmd.Process.Pid,
			"dir", p.Root,
			"cmd", p.CommandLine(),
			"log", p.LogPath())
		runtimes = append(runtimes, rt)
	}
	return runtimes, nil
}

func start(ctx context.Context, p participant.Spec) (*runtime, error) {
	logFile, err := os.Create(p.LogPath())
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	args := p.Args()
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = p.Root
	cmd.Stdout = logFile
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, err
	}
	return &runtime{spec: p, cmd: cmd, log: logFile, started: time.Now()}, nil
}

func abort(runtimes []*runtime) {
	for _, rt := range runtimes {
		_ = rt.cmd.Process.Kill()
		_ = rt.cmd.Wait()
		rt.log.Close()
	}
}

// waitAll blocks until every participant has terminated.
func (e *Executor) waitAll(runtimes []*runtime) {
	var wg sync.WaitGroup
	for _, rt := range runtimes {
		wg.Add(1)
		go func(rt *runtime) {
			defer wg.Done()
			rt.wait()
			e.logger.Debug("participant exited",
				"participant", rt.spec.Name,
				"exit_code", rt.exitCode,
				"duration", time.Since(rt.started).Round(time.Millisecond))
		}(rt)
	}
	wg.Wait()
}

func (rt *runtime) wait() {
	err := rt.cmd.Wait()
	rt.log.Close()
	rt.waitErr = err
	switch {
	case err == nil:
		rt.exitCode = 0
	case rt.cmd.ProcessState != nil:
		rt.exitCode = rt.cmd.ProcessState.ExitCode()
		if rt.exitCode == 0 {
			rt.exitCode = -1 // Wait failed after a clean exit, e.g. while copying output
		}
	default:
		rt.exitCode = -1
	}
}

// classify fails the run if any participant exited unsuccessfully. The error
// lists the logs of all participants so both sides of a coupled failure can
// be compared.
func classify(ctx context.Context, runtimes []*runtime) error {
	var failed []string
	logs := make([]string, 0, len(runtimes))
	for _, rt := range runtimes {
		logs = append(logs, rt.spec.LogPath())
		if rt.exitCode != 0 {
			failed = append(failed, describeExit(rt))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	err := errors.RunFailure(failed, logs)
	if ctxErr := ctx.Err(); ctxErr != nil {
		err.Cause = ctxErr
	}
	return err
}

func describeExit(rt *runtime) string {
	if rt.exitCode < 0 {
		if rt.waitErr != nil {
			return fmt.Sprintf("%s (%v)", rt.spec.Name, rt.waitErr)
		}
		return fmt.Sprintf("%s (terminated)", rt.spec.Name)
	}
	return fmt.Sprintf("%s (exit code %d)", rt.spec.Name, rt.exitCode)
}

// collect builds the result row from the participants' error artifacts.
func collect(timeWindowSize float64, runtimes []*runtime) (results.Row, error) {
	row := results.Row{{Column: results.ColTimeWindowSize, Value: timeWindowSize}}
	for _, rt := range runtimes {
		p := rt.spec
		maxErr, err := artifact.MaxAbsFile(p.ErrorsPath(), artifact.ErrorsColumn)
		if err != nil {
			return nil, errors.Artifact(p.Name, p.ErrorsPath(), err)
		}
		row = append(row,
			results.Cell{Column: results.TimeStepColumn(p.Name), Value: timeWindowSize / float64(p.Substeps)},
			results.Cell{Column: results.ErrorColumn(p.Name), Value: maxErr},
		)
	}
	return row, nil
}
