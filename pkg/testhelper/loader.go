// Package testhelper reads convstudy result files and checks the observed
// convergence orders, for use in the test suites of solver projects.
//
// Example usage in a Go test:
//
//	func TestImplicitEulerIsFirstOrder(t *testing.T) {
//	    rf, err := testhelper.LoadResults("convergence-studies/3f1c5b6e.csv")
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    if err := testhelper.CheckOrder(rf, "error Neumann", 1.0, testhelper.OrderOptions()); err != nil {
//	        t.Error(err)
//	    }
//	}
package testhelper

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/AndreyAkinshin/convstudy/internal/results"
)

// HeaderLine is one "# key:value" provenance line of a final result file.
type HeaderLine struct {
	Key   string
	Value string
}

// ResultFile is a parsed result file.
type ResultFile struct {
	Path   string
	Header []HeaderLine
	Table  *results.Table
}

// LoadResults reads a preliminary or final result file.
func LoadResults(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseResults(path, string(data))
}

// ParseResults parses the content of a result file. path is only used in
// error messages.
func ParseResults(path, content string) (*ResultFile, error) {
	rf := &ResultFile{Path: path}

	var body strings.Builder
	for _, line := range strings.SplitAfter(content, "\n") {
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			key, value, found := strings.Cut(strings.TrimRight(rest, "\r\n"), ":")
			if !found {
				return nil, fmt.Errorf("%s: malformed header line %q", path, strings.TrimSpace(line))
			}
			rf.Header = append(rf.Header, HeaderLine{Key: key, Value: value})
			continue
		}
		body.WriteString(line)
	}

	records, err := csv.NewReader(strings.NewReader(body.String())).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no column header", path)
	}

	columns := records[0]
	var key []string
	for _, c := range columns {
		if c == results.ColTimeWindowSize || strings.HasPrefix(c, results.TimeStepColumn("")) {
			key = append(key, c)
		}
	}
	rf.Table = results.NewTable(key...)

	for i, rec := range records[1:] {
		row := make(results.Row, 0, len(rec))
		for j, cell := range rec {
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d, column %q: %w", path, i+1, columns[j], err)
			}
			row = append(row, results.Cell{Column: columns[j], Value: v})
		}
		rf.Table.Append(row)
	}
	// Columns of a file with no rows still come from its header.
	if rf.Table.Len() == 0 {
		rf.Table.Columns = columns
	}
	return rf, nil
}

// HeaderValue returns the value of the first header line with the given key.
func (rf *ResultFile) HeaderValue(key string) (string, bool) {
	for _, h := range rf.Header {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// Final reports whether the file carries a provenance header, i.e. the
// study that wrote it completed.
func (rf *ResultFile) Final() bool {
	return len(rf.Header) > 0
}

// Column returns the values of one column in row order. Rows without the
// column are skipped.
func (rf *ResultFile) Column(name string) []float64 {
	var values []float64
	for _, row := range rf.Table.Rows {
		if v, ok := row.Get(name); ok {
			values = append(values, v)
		}
	}
	return values
}

// FindResults returns the result files in dir, most recently modified first.
func FindResults(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	mod := make(map[string]int64, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, err
		}
		mod[m] = info.ModTime().UnixNano()
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return mod[matches[i]] > mod[matches[j]]
	})
	return matches, nil
}
