// Package artifact reads the tabular error files written by solver
// participants after a successful run.
package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrorsColumn is the column holding the per-step error of a participant.
const ErrorsColumn = "errors"

// ErrNoValues is returned when the error column holds no numeric values.
var ErrNoValues = errors.New("no values")

// MaxAbsFile returns the maximum absolute value of column in the CSV file at path.
func MaxAbsFile(path, column string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return MaxAbs(f, column)
}

// MaxAbs returns the maximum absolute value of column in CSV data read from r.
// Lines starting with '#' are ignored. Blank and NaN cells are skipped.
func MaxAbs(r io.Reader, column string) (float64, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return 0, fmt.Errorf("missing header")
	}
	if err != nil {
		return 0, err
	}

	idx := -1
	for i, name := range header {
		if strings.TrimSpace(name) == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("column %q not found in header %q", column, header)
	}

	found := false
	maxAbs := 0.0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if idx >= len(record) {
			return 0, fmt.Errorf("record %d has no %q value", line, column)
		}
		cell := strings.TrimSpace(record[idx])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return 0, fmt.Errorf("record %d: invalid %q value %q", line, column, cell)
		}
		if math.IsNaN(v) {
			continue
		}
		if a := math.Abs(v); !found || a > maxAbs {
			maxAbs = a
		}
		found = true
	}

	if !found {
		return 0, fmt.Errorf("column %q: %w", column, ErrNoValues)
	}
	return maxAbs, nil
}
