package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AndreyAkinshin/convstudy/internal/coupling"
	"github.com/AndreyAkinshin/convstudy/internal/errors"
	"github.com/AndreyAkinshin/convstudy/internal/output"
	"github.com/AndreyAkinshin/convstudy/internal/participant"
	"github.com/AndreyAkinshin/convstudy/internal/results"
)

// Runner performs a single run. It is satisfied by *executor.Executor.
type Runner interface {
	Execute(ctx context.Context, templatePath string, params coupling.Parameters, participants []participant.Spec) (results.Row, error)
}

// Persister stores the table accumulated so far. It is satisfied by
// *results.Store.
type Persister interface {
	Persist(t *results.Table) error
}

// Controller runs every point of a sweep in order.
type Controller struct {
	runner Runner
	store  Persister
	out    *output.Writer
	logger *slog.Logger

	// OnRow, if set, is called after each row has been persisted.
	OnRow func(n, total int, point Point, row results.Row)
}

// NewController creates a Controller.
func NewController(runner Runner, store Persister, out *output.Writer, logger *slog.Logger) *Controller {
	return &Controller{
		runner: runner,
		store:  store,
		out:    out,
		logger: logger,
	}
}

// Run executes the sweep. Each point gets fresh copies of base and the
// participants, so nothing carries over between runs. After each successful
// run the row is appended and the whole table is persisted. The first error
// stops the sweep; the returned table then holds the rows completed before
// it, which are already on disk.
func (c *Controller) Run(ctx context.Context, templatePath string, base coupling.Parameters, participants []participant.Spec, spec Spec) (*results.Table, error) {
	if err := spec.Validate(); err != nil {
		return nil, errors.Configf("invalid sweep: %v", err)
	}
	if err := checkParticipants(participants, spec); err != nil {
		return nil, err
	}

	base = base.WithSubsteps(spec.RequiresSubstepping())
	table := results.NewTable(keyColumns(participants)...)
	points := spec.Points()

	for i, point := range points {
		n := i + 1
		if err := ctx.Err(); err != nil {
			return table, errors.Wrap(err, fmt.Sprintf("sweep interrupted before run %d/%d", n, len(points)))
		}

		c.out.RunBanner(n, len(points), time.Now(), point.String())

		params := base.WithTimeWindowSize(point.TimeWindowSize)
		specs := make([]participant.Spec, len(participants))
		for k, p := range participants {
			specs[k] = p.WithSubsteps(point.Substeps(p.Name))
		}

		start := time.Now()
		row, err := c.runner.Execute(ctx, templatePath, params, specs)
		if err != nil {
			c.logger.Info("run failed", "run", n, "time_window_size", point.TimeWindowSize, "error", err)
			return table, fmt.Errorf("run %d/%d (%s): %w", n, len(points), point, err)
		}
		c.logger.Info("run finished",
			"run", n,
			"time_window_size", point.TimeWindowSize,
			"duration", time.Since(start).Round(time.Millisecond))

		c.out.Info("Postprocessing...")
		table.Append(row)
		if err := c.store.Persist(table); err != nil {
			return table, errors.Wrap(err, "cannot persist results")
		}

		c.out.ResultTable("preliminary results", table.Columns, table.Strings(table.Columns))

		if c.OnRow != nil {
			c.OnRow(n, len(points), point, row)
		}
	}
	return table, nil
}

// keyColumns returns the sweep-parameter columns of the result table.
func keyColumns(participants []participant.Spec) []string {
	key := []string{results.ColTimeWindowSize}
	for _, p := range participants {
		key = append(key, results.TimeStepColumn(p.Name))
	}
	return key
}

// checkParticipants ensures every participant has exactly one subcycling entry.
func checkParticipants(participants []participant.Spec, spec Spec) error {
	if len(participants) != len(spec.Participants) {
		return errors.Configf("sweep refines %d participants, but %d are configured", len(spec.Participants), len(participants))
	}
	refined := make(map[string]bool, len(spec.Participants))
	for _, s := range spec.Participants {
		refined[s.Name] = true
	}
	for _, p := range participants {
		if !refined[p.Name] {
			return errors.Configf("participant %q has no time step refinement", p.Name)
		}
	}
	return nil
}
