// Package mocks provides shared test doubles for convstudy packages.
package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/AndreyAkinshin/convstudy/internal/coupling"
	"github.com/AndreyAkinshin/convstudy/internal/participant"
	"github.com/AndreyAkinshin/convstudy/internal/results"
)

// Call records the arguments of one Execute call.
type Call struct {
	TemplatePath string
	Params       coupling.Parameters
	Participants []participant.Spec
}

// Executor implements sweep.Runner for testing.
// Use NewExecutor() to create instances with a fluent builder API.
type Executor struct {
	// ExecFunc is called by Execute. If nil, Execute returns FirstOrderRow.
	ExecFunc func(ctx context.Context, call Call) (results.Row, error)

	failAt  int
	failErr error

	// Execution tracking (thread-safe)
	execCount int32
	mu        sync.Mutex
	calls     []Call
}

// NewExecutor creates a new mock executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// WithExecFunc sets the function called by Execute.
func (m *Executor) WithExecFunc(fn func(ctx context.Context, call Call) (results.Row, error)) *Executor {
	m.ExecFunc = fn
	return m
}

// FailAt makes the n-th call (1-based) return err instead of a row.
func (m *Executor) FailAt(n int, err error) *Executor {
	m.failAt = n
	m.failErr = err
	return m
}

// Execute implements sweep.Runner.
func (m *Executor) Execute(ctx context.Context, templatePath string, params coupling.Parameters, participants []participant.Spec) (results.Row, error) {
	n := int(atomic.AddInt32(&m.execCount, 1))
	call := Call{
		TemplatePath: templatePath,
		Params:       params,
		Participants: append([]participant.Spec(nil), participants...),
	}
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	if m.failAt > 0 && n == m.failAt {
		return nil, m.failErr
	}
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, call)
	}
	return FirstOrderRow(params, participants), nil
}

// FirstOrderRow builds the row of a solver whose error equals its time step
// size, i.e. one converging with order one.
func FirstOrderRow(params coupling.Parameters, participants []participant.Spec) results.Row {
	dt := params.TimeWindowSize
	row := results.Row{{Column: results.ColTimeWindowSize, Value: dt}}
	for _, p := range participants {
		step := dt / float64(p.Substeps)
		row = append(row,
			results.Cell{Column: results.TimeStepColumn(p.Name), Value: step},
			results.Cell{Column: results.ErrorColumn(p.Name), Value: step},
		)
	}
	return row
}

// Test inspection methods

// ExecCount returns the number of times Execute was called.
func (m *Executor) ExecCount() int {
	return int(atomic.LoadInt32(&m.execCount))
}

// Calls returns the recorded calls in order.
func (m *Executor) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Call, len(m.calls))
	copy(result, m.calls)
	return result
}

// Reset clears execution tracking state.
func (m *Executor) Reset() {
	atomic.StoreInt32(&m.execCount, 0)
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}

// Store implements sweep.Persister for testing. It keeps a snapshot of the
// table on every Persist call.
type Store struct {
	// Err, if set, is returned by Persist.
	Err error

	mu        sync.Mutex
	snapshots []results.Table
}

// NewStore creates a new mock store.
func NewStore() *Store {
	return &Store{}
}

// Persist implements sweep.Persister.
func (s *Store) Persist(t *results.Table) error {
	if s.Err != nil {
		return s.Err
	}
	snap := results.Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    append([]results.Row(nil), t.Rows...),
		Key:     append([]string(nil), t.Key...),
	}
	s.mu.Lock()
	s.snapshots = append(s.snapshots, snap)
	s.mu.Unlock()
	return nil
}

// Snapshots returns every persisted table in order.
func (s *Store) Snapshots() []results.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]results.Table(nil), s.snapshots...)
}

// Last returns the most recently persisted table.
func (s *Store) Last() (results.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snapshots) == 0 {
		return results.Table{}, false
	}
	return s.snapshots[len(s.snapshots)-1], true
}
