// Package results accumulates the rows of a convergence study and persists
// them as CSV.
package results

import (
	"math"
	"strconv"
)

// Column names of a result row.
const ColTimeWindowSize = "time window size"

// TimeStepColumn returns the time step size column of a participant.
func TimeStepColumn(participant string) string {
	return "time step size " + participant
}

// ErrorColumn returns the error column of a participant.
func ErrorColumn(participant string) string {
	return "error " + participant
}

// Cell is one named value of a row.
type Cell struct {
	Column string
	Value  float64
}

// Row is the result of one run: an ordered mapping from column to value.
type Row []Cell

// Get returns the value of column.
func (r Row) Get(column string) (float64, bool) {
	for _, c := range r {
		if c.Column == column {
			return c.Value, true
		}
	}
	return 0, false
}

// Table is the ordered sequence of rows produced by a sweep.
type Table struct {
	Columns []string
	Rows    []Row
	Key     []string // Sweep-parameter columns identifying a row
}

// NewTable creates an empty table keyed by the given columns.
func NewTable(key ...string) *Table {
	return &Table{Key: append([]string(nil), key...)}
}

// Append adds a row, extending the column set in first-seen order.
func (t *Table) Append(row Row) {
	for _, c := range row {
		if !contains(t.Columns, c.Column) {
			t.Columns = append(t.Columns, c.Column)
		}
	}
	t.Rows = append(t.Rows, append(Row(nil), row...))
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Keyed returns the columns with the key columns moved to the front.
func (t *Table) Keyed() []string {
	cols := make([]string, 0, len(t.Columns))
	for _, k := range t.Key {
		if contains(t.Columns, k) {
			cols = append(cols, k)
		}
	}
	for _, c := range t.Columns {
		if !contains(cols, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Strings formats the rows for the given columns. Missing cells are empty.
func (t *Table) Strings(columns []string) [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := row.Get(col); ok {
				rec[i] = FormatFloat(v)
			}
		}
		out = append(out, rec)
	}
	return out
}

// Rate is the observed order of convergence between two rows.
type Rate struct {
	TimeWindowSize float64 // Time window size of the finer row
	Order          float64
}

// ConvergenceRates returns log2(e_coarse / e_fine) for every row paired with
// the next row whose key columns are all exactly halved, i.e. the same
// subcycling at half the time window size. Rows with a non-positive error
// are skipped.
func (t *Table) ConvergenceRates(errorColumn string) []Rate {
	var rates []Rate
	for i, coarse := range t.Rows {
		e0, ok := coarse.Get(errorColumn)
		if !ok || e0 <= 0 {
			continue
		}
		for _, fine := range t.Rows[i+1:] {
			if !t.halves(coarse, fine) {
				continue
			}
			if e1, ok := fine.Get(errorColumn); ok && e1 > 0 {
				dt, _ := fine.Get(ColTimeWindowSize)
				rates = append(rates, Rate{TimeWindowSize: dt, Order: math.Log2(e0 / e1)})
			}
			break
		}
	}
	return rates
}

// halves reports whether every key column of fine is half of coarse.
func (t *Table) halves(coarse, fine Row) bool {
	if len(t.Key) == 0 {
		return false
	}
	for _, k := range t.Key {
		a, ok0 := coarse.Get(k)
		b, ok1 := fine.Get(k)
		if !ok0 || !ok1 || a != 2*b {
			return false
		}
	}
	return true
}

// FormatFloat renders v in its shortest round-trip form.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
