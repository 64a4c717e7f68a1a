package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AndreyAkinshin/convstudy/internal/config"
	"github.com/AndreyAkinshin/convstudy/internal/coupling"
	"github.com/AndreyAkinshin/convstudy/internal/errors"
	"github.com/AndreyAkinshin/convstudy/internal/executor"
	"github.com/AndreyAkinshin/convstudy/internal/output"
	"github.com/AndreyAkinshin/convstudy/internal/participant"
	"github.com/AndreyAkinshin/convstudy/internal/provenance"
	"github.com/AndreyAkinshin/convstudy/internal/render"
	"github.com/AndreyAkinshin/convstudy/internal/results"
	"github.com/AndreyAkinshin/convstudy/internal/sweep"
)

// study is everything a sweep needs, assembled from the flags and the study file.
type study struct {
	file         *config.Study
	renderer     *render.Renderer
	templatePath string
	configPath   string // Rendered configuration, inside the template root
	outputDir    string
	base         coupling.Parameters
	participants []participant.Spec
	sweep        sweep.Spec
}

// runStudy loads the study, then either prints the planned runs or executes
// the sweep and writes the final result file.
func runStudy(ctx context.Context, opts *Options, out *output.Writer, logger *slog.Logger) int {
	s, err := assemble(opts, out)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	if opts.DryRun {
		printDryRun(out, s)
		return errors.ExitSuccess
	}

	store, err := results.NewStore(s.outputDir)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitRuntimeError
	}
	out.Info("Results are written to %s", store.Path())

	exec := executor.New(s.renderer, s.configPath, logger)
	controller := sweep.NewController(exec, store, out, logger)

	table, err := controller.Run(ctx, s.templatePath, s.base, s.participants, s.sweep)
	if err != nil {
		out.ErrorPrefix("%v", err)
		if table != nil && table.Len() > 0 {
			out.Hint("partial results (%d runs) kept in %s", table.Len(), store.Path())
		}
		return errors.GetExitCode(err)
	}

	collector := &provenance.Collector{Dir: s.file.Dir(), Probes: s.file.Probes()}
	rec, warnings := collector.Collect(ctx)
	for _, w := range warnings {
		out.Warning("%s", w)
	}
	rec.CommandLine = opts.CommandLine()
	rec.Args = opts.Args()
	rec.Parameters = s.base.WithSubsteps(s.sweep.RequiresSubstepping())
	rec.Participants = s.participants

	if err := store.Finalize(table, rec); err != nil {
		out.ErrorPrefix("cannot write final results: %v", err)
		return errors.ExitRuntimeError
	}

	printSummary(out, table, s.participants)
	out.FinalSuccess("Results written to %s", store.Path())
	return errors.ExitSuccess
}

// assemble loads the study file and combines it with the flags.
func assemble(opts *Options, out *output.Writer) (*study, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "cannot determine working directory")
	}

	file, err := loadStudy(opts.ConfigPath, cwd, out)
	if err != nil {
		return nil, err
	}

	participants := file.ParticipantSpecs()
	n := len(participants)

	bases, err := perParticipant("--base-time-step-refinement", opts.BaseTimeStepRefinement, defaultBaseTimeStepRefine, n)
	if err != nil {
		return nil, err
	}
	factors, err := perParticipant("--time-step-refinement-factor", opts.TimeStepRefinementFactor, defaultTimeStepRefineFactor, n)
	if err != nil {
		return nil, err
	}
	schemes, err := perParticipant("--time-stepping-scheme", opts.TimeSteppingScheme, defaultTimeSteppingScheme, n)
	if err != nil {
		return nil, err
	}

	spec := sweep.Spec{
		BaseTimeWindowSize:    opts.BaseTimeWindowSize,
		TimeWindowRefinements: opts.TimeWindowRefinements,
		SubcyclingRefinements: opts.TimeStepRefinements,
	}
	for k, p := range participants {
		p = p.WithKwarg(file.Keywords.TimeStepping, schemes[k])
		if opts.Experiment != "" {
			p = p.WithKwarg(file.Keywords.Experiment, opts.Experiment)
		}
		participants[k] = p
		spec.Participants = append(spec.Participants, sweep.Subcycling{Name: p.Name, Base: bases[k], Factor: factors[k]})
	}
	if err := spec.Validate(); err != nil {
		return nil, errors.Configf("invalid sweep: %v", err)
	}

	// The template path is taken as typed, relative to the working
	// directory, but must name a file inside the template root.
	renderer := render.New(file.TemplateRootPath())
	templatePath, err := filepath.Abs(opts.TemplatePath)
	if err != nil {
		return nil, errors.Configf("invalid template path %q: %v", opts.TemplatePath, err)
	}
	if _, err := renderer.Resolve(templatePath); err != nil {
		return nil, errors.Template(opts.TemplatePath, err)
	}
	if _, err := os.Stat(templatePath); err != nil {
		return nil, errors.Template(opts.TemplatePath, err)
	}
	configPath, err := renderer.Resolve(file.ConfigPath)
	if err != nil {
		return nil, errors.Configf("invalid config_path: %v", err)
	}

	outputDir := file.OutputPath()
	if opts.OutputDir != "" {
		if outputDir, err = filepath.Abs(opts.OutputDir); err != nil {
			return nil, errors.Configf("invalid output directory %q: %v", opts.OutputDir, err)
		}
	}

	return &study{
		file:         file,
		renderer:     renderer,
		templatePath: templatePath,
		configPath:   configPath,
		outputDir:    outputDir,
		base:         file.BaseParameters(opts.MaxTime, opts.WaveformDegree),
		participants: participants,
		sweep:        spec,
	}, nil
}

// loadStudy discovers and loads the study file, falling back to the
// built-in study when none exists.
func loadStudy(explicit, cwd string, out *output.Writer) (*config.Study, error) {
	path, err := config.Discover(explicit, cwd)
	if stderrors.Is(err, config.ErrNoStudyFile) {
		return config.Default(cwd), nil
	}
	if err != nil {
		return nil, errors.Configf("cannot locate study file: %v", err)
	}

	file, warnings, err := config.LoadAndValidate(path)
	for _, w := range warnings {
		out.Warning("%s: %s", path, w)
	}
	if err != nil {
		return nil, &errors.StudyError{Kind: errors.KindConfig, Message: path, Cause: err}
	}
	return file, nil
}

// perParticipant expands a per-participant flag to n values. An unset flag
// takes def for every participant.
func perParticipant[T any](flag string, values []T, def T, n int) ([]T, error) {
	if values == nil {
		expanded := make([]T, n)
		for k := range expanded {
			expanded[k] = def
		}
		return expanded, nil
	}
	if len(values) != n {
		return nil, errors.Configf("%s takes one value per participant: got %d, study has %d participants", flag, len(values), n)
	}
	return values, nil
}

func printDryRun(out *output.Writer, s *study) {
	out.DryRunStart()

	out.SummaryItem("template", s.templatePath)
	out.SummaryItem("template root", s.renderer.Root())
	out.SummaryItem("rendered configuration", s.configPath)
	out.SummaryItem("output directory", s.outputDir)

	points := s.sweep.Points()
	out.Println("")
	for i, point := range points {
		out.Step(i+1, "%s", point)
		for _, p := range s.participants {
			p = p.WithSubsteps(point.Substeps(p.Name))
			out.StepDetail("%s (in %s): %s", p.Name, p.Root, p.CommandLine())
		}
	}

	out.DryRunEnd()
}

// printSummary prints the final table and the observed convergence orders.
func printSummary(out *output.Writer, table *results.Table, participants []participant.Spec) {
	if out.Quiet() {
		return
	}

	columns := table.Keyed()
	out.ResultTable("final results", columns, table.Strings(columns))

	var rows [][]string
	for _, p := range participants {
		for _, r := range table.ConvergenceRates(results.ErrorColumn(p.Name)) {
			rows = append(rows, []string{p.Name, results.FormatFloat(r.TimeWindowSize), fmt.Sprintf("%.3f", r.Order)})
		}
	}
	if len(rows) == 0 {
		return
	}
	out.ResultTable("convergence rates", []string{"participant", "time window size", "order"}, rows)
}
