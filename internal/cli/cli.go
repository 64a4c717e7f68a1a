// Package cli provides the command-line interface of convstudy.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/AndreyAkinshin/convstudy/internal/errors"
	"github.com/AndreyAkinshin/convstudy/internal/logging"
	"github.com/AndreyAkinshin/convstudy/internal/output"
)

// Version is set at build time.
var Version = "dev"

// Experiments accepted by -e/--experiment.
var experiments = []string{"p0", "p1", "p2", "t"}

// Default flag values.
const (
	defaultMaxTime               = 1.0
	defaultBaseTimeWindowSize    = 0.1
	defaultTimeWindowRefinements = 5
	defaultBaseTimeStepRefine    = 1
	defaultTimeStepRefinements   = 1
	defaultTimeStepRefineFactor  = 2
	defaultTimeSteppingScheme    = "ImplicitEuler"
	defaultWaveformDegree        = 1
)

// Help text alignment width.
const helpFlagWidth = 44

// Options holds parsed command-line flags.
type Options struct {
	TemplatePath             string
	MaxTime                  float64
	BaseTimeWindowSize       float64
	TimeWindowRefinements    int
	BaseTimeStepRefinement   []int // Per participant; nil means default
	TimeStepRefinements      int
	TimeStepRefinementFactor []int    // Per participant; nil means default
	Experiment               string   // Empty when not given
	TimeSteppingScheme       []string // Per participant; nil means default
	WaveformDegree           int

	ConfigPath string
	OutputDir  string
	DryRun     bool
	Quiet      bool
	Verbose    bool
	LogFormat  string

	raw []string // Arguments as given, for the provenance header
}

// wantsHelp returns true if args contain -h or --help.
func wantsHelp(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
		if arg == "--" {
			return false
		}
	}
	return false
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, output.New(), os.Stderr)
}

// run is Run with injectable output streams.
func run(ctx context.Context, args []string, out *output.Writer, logOut io.Writer) int {
	if wantsHelp(args) {
		printUsage(out)
		return errors.ExitSuccess
	}
	for _, arg := range args {
		if arg == "--version" {
			out.Println("convstudy %s", Version)
			return errors.ExitSuccess
		}
	}

	opts, err := parseOptions(args)
	if err != nil {
		out.ErrorPrefix("%v", err)
		out.Errorln("  run 'convstudy --help' for usage")
		return errors.ExitConfigError
	}

	out.SetQuiet(opts.Quiet)
	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	logger := logging.New(level, opts.LogFormat, logOut)

	return runStudy(ctx, opts, out, logger)
}

// parseOptions manually parses the command line.
//
// Manual parsing is used instead of stdlib flag package because:
// - Multi-letter single-dash flags (-dt, -sb, -tss) coexist with short ones
// - Several flags take two values (one per participant)
// - Both "--flag value" and "--flag=value" forms must be accepted
func parseOptions(args []string) (*Options, error) {
	opts := &Options{
		MaxTime:               defaultMaxTime,
		BaseTimeWindowSize:    defaultBaseTimeWindowSize,
		TimeWindowRefinements: defaultTimeWindowRefinements,
		TimeStepRefinements:   defaultTimeStepRefinements,
		WaveformDegree:        defaultWaveformDegree,
		LogFormat:             logging.FormatText,
		raw:                   append([]string(nil), args...),
	}

	var positional []string
	i := 0
	for i < len(args) {
		arg := args[i]
		name, inline, hasInline := strings.Cut(arg, "=")
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positional = append(positional, arg)
			i++
			continue
		}
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		// value returns the single value of the current flag.
		value := func() (string, error) {
			if hasInline {
				i++
				return inline, nil
			}
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s requires a value", name)
			}
			v := args[i+1]
			i += 2
			return v, nil
		}
		// pair returns the two per-participant values of the current flag,
		// given either as "--flag a b" or "--flag=a,b".
		pair := func() ([]string, error) {
			if hasInline {
				i++
				return strings.Split(inline, ","), nil
			}
			if i+2 >= len(args) {
				return nil, fmt.Errorf("%s requires two values", name)
			}
			v := []string{args[i+1], args[i+2]}
			i += 3
			return v, nil
		}

		var err error
		switch name {
		case "-T", "--max-time":
			opts.MaxTime, err = parseFloatFlag(name, value)
		case "-dt", "--base-time-window-size":
			opts.BaseTimeWindowSize, err = parseFloatFlag(name, value)
		case "-w", "--time-window-refinements":
			opts.TimeWindowRefinements, err = parseIntFlag(name, value)
		case "-sb", "--base-time-step-refinement":
			opts.BaseTimeStepRefinement, err = parseIntsFlag(name, pair)
		case "-s", "--time-step-refinements":
			opts.TimeStepRefinements, err = parseIntFlag(name, value)
		case "-sf", "--time-step-refinement-factor":
			opts.TimeStepRefinementFactor, err = parseIntsFlag(name, pair)
		case "-e", "--experiment":
			opts.Experiment, err = value()
		case "-tss", "--time-stepping-scheme":
			opts.TimeSteppingScheme, err = pair()
		case "-wd", "--waveform-degree":
			opts.WaveformDegree, err = parseIntFlag(name, value)
		case "-c", "--config":
			opts.ConfigPath, err = value()
		case "-o", "--output-dir":
			opts.OutputDir, err = value()
		case "--log-format":
			opts.LogFormat, err = value()
		case "--dry-run":
			opts.DryRun, err = boolFlag(name, hasInline)
			i++
		case "-q", "--quiet":
			opts.Quiet, err = boolFlag(name, hasInline)
			i++
		case "-v", "--verbose":
			opts.Verbose, err = boolFlag(name, hasInline)
			i++
		default:
			return nil, fmt.Errorf("unknown flag %q", name)
		}
		if err != nil {
			return nil, err
		}
	}

	switch len(positional) {
	case 0:
		return nil, fmt.Errorf("missing template path")
	case 1:
		opts.TemplatePath = positional[0]
	default:
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(positional[1:], " "))
	}

	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func boolFlag(name string, hasInline bool) (bool, error) {
	if hasInline {
		return false, fmt.Errorf("%s does not take a value", name)
	}
	return true, nil
}

func parseFloatFlag(name string, value func() (string, error)) (float64, error) {
	s, err := value()
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: expected a number", name, s)
	}
	return f, nil
}

func parseIntFlag(name string, value func() (string, error)) (int, error) {
	s, err := value()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: expected an integer", name, s)
	}
	return n, nil
}

func parseIntsFlag(name string, pair func() ([]string, error)) ([]int, error) {
	values, err := pair()
	if err != nil {
		return nil, err
	}
	ints := make([]int, len(values))
	for k, s := range values {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: expected an integer", name, s)
		}
		ints[k] = n
	}
	return ints, nil
}

// validateOptions checks values that do not depend on the study file.
func validateOptions(opts *Options) error {
	if !(opts.MaxTime > 0) {
		return fmt.Errorf("--max-time must be positive, got %g", opts.MaxTime)
	}
	if !(opts.BaseTimeWindowSize > 0) {
		return fmt.Errorf("--base-time-window-size must be positive, got %g", opts.BaseTimeWindowSize)
	}
	if opts.TimeWindowRefinements < 1 {
		return fmt.Errorf("--time-window-refinements must be at least 1, got %d", opts.TimeWindowRefinements)
	}
	if opts.TimeStepRefinements < 1 {
		return fmt.Errorf("--time-step-refinements must be at least 1, got %d", opts.TimeStepRefinements)
	}
	if opts.WaveformDegree < 0 {
		return fmt.Errorf("--waveform-degree must not be negative, got %d", opts.WaveformDegree)
	}
	for _, n := range opts.BaseTimeStepRefinement {
		if n < 1 {
			return fmt.Errorf("--base-time-step-refinement values must be at least 1, got %d", n)
		}
	}
	for _, n := range opts.TimeStepRefinementFactor {
		if n < 1 {
			return fmt.Errorf("--time-step-refinement-factor values must be at least 1, got %d", n)
		}
	}
	for _, s := range opts.TimeSteppingScheme {
		if s == "" {
			return fmt.Errorf("--time-stepping-scheme values must not be empty")
		}
	}
	if opts.Experiment != "" && !contains(experiments, opts.Experiment) {
		return fmt.Errorf("invalid --experiment value %q\n  valid values: %s", opts.Experiment, strings.Join(experiments, ", "))
	}
	if opts.LogFormat != logging.FormatText && opts.LogFormat != logging.FormatJSON {
		return fmt.Errorf("invalid --log-format value %q\n  valid values: %s, %s", opts.LogFormat, logging.FormatText, logging.FormatJSON)
	}
	if opts.Quiet && opts.Verbose {
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}
	return nil
}

// Args returns the parsed sweep arguments for the provenance header.
func (o *Options) Args() map[string]any {
	args := map[string]any{
		"template_path":           o.TemplatePath,
		"max_time":                o.MaxTime,
		"base_time_window_size":   o.BaseTimeWindowSize,
		"time_window_refinements": o.TimeWindowRefinements,
		"time_step_refinements":   o.TimeStepRefinements,
		"waveform_degree":         o.WaveformDegree,
	}
	if o.BaseTimeStepRefinement != nil {
		args["base_time_step_refinement"] = o.BaseTimeStepRefinement
	}
	if o.TimeStepRefinementFactor != nil {
		args["time_step_refinement_factor"] = o.TimeStepRefinementFactor
	}
	if o.TimeSteppingScheme != nil {
		args["time_stepping_scheme"] = o.TimeSteppingScheme
	}
	if o.Experiment != "" {
		args["experiment"] = o.Experiment
	}
	return args
}

// CommandLine returns the invocation as typed, quoting arguments with spaces.
func (o *Options) CommandLine() string {
	parts := []string{"convstudy"}
	for _, a := range o.raw {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

func printUsage(w *output.Writer) {
	w.HelpTitle("convstudy - convergence studies for partitioned coupled simulations")

	w.HelpSection("Usage:")
	w.HelpUsage("convstudy [flags] <template_path>")

	w.HelpSection("Sweep Flags:")
	w.HelpFlag("-T, --max-time <t>", "Simulation end time (default 1.0)", helpFlagWidth)
	w.HelpFlag("-dt, --base-time-window-size <dt>", "Coarsest time window size (default 0.1)", helpFlagWidth)
	w.HelpFlag("-w, --time-window-refinements <n>", "Number of halvings of the time window (default 5)", helpFlagWidth)
	w.HelpFlag("-sb, --base-time-step-refinement <a> <b>", "Time steps per window of each participant (default 1 1)", helpFlagWidth)
	w.HelpFlag("-s, --time-step-refinements <n>", "Number of time step refinements (default 1)", helpFlagWidth)
	w.HelpFlag("-sf, --time-step-refinement-factor <a> <b>", "Refinement factor of each participant (default 2 2)", helpFlagWidth)
	w.HelpFlag("-e, --experiment <e>", "Experiment passed to the participants (p0, p1, p2, t)", helpFlagWidth)
	w.HelpFlag("-tss, --time-stepping-scheme <a> <b>", "Time stepping scheme of each participant (default ImplicitEuler)", helpFlagWidth)
	w.HelpFlag("-wd, --waveform-degree <n>", "Waveform interpolation degree (default 1)", helpFlagWidth)

	w.HelpSection("Global Flags:")
	w.HelpFlag("-c, --config <path>", "Study file (default: nearest convstudy.yaml)", helpFlagWidth)
	w.HelpFlag("-o, --output-dir <dir>", "Directory for the result file", helpFlagWidth)
	w.HelpFlag("--dry-run", "Print the runs without executing them", helpFlagWidth)
	w.HelpFlag("-q, --quiet", "Minimal output (errors only)", helpFlagWidth)
	w.HelpFlag("-v, --verbose", "Log participant processes", helpFlagWidth)
	w.HelpFlag("--log-format <text|json>", "Format of diagnostic logs on stderr", helpFlagWidth)
	w.HelpFlag("-h, --help", "Show this help", helpFlagWidth)
	w.HelpFlag("--version", "Show version", helpFlagWidth)

	w.HelpSection("Environment:")
	w.HelpFlag("CONVSTUDY_CONFIG=<path>", "Study file used when --config is not given", helpFlagWidth)

	w.HelpSection("Examples:")
	w.HelpUsage("convstudy precice-config-template.xml")
	w.HelpUsage("convstudy -dt 0.2 -w 4 -s 3 -sf 2 1 precice-config-template.xml")
	w.HelpUsage("convstudy -e p1 -tss GaussLegendre2 GaussLegendre2 --dry-run precice-config-template.xml")
	w.Println("")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
