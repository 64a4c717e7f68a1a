package testhelper

import (
	"fmt"
	"math"
	"strings"

	"github.com/AndreyAkinshin/convstudy/internal/results"
)

// CompareOptions configures float comparison behavior.
type CompareOptions struct {
	// FloatTolerance specifies the tolerance for float comparisons.
	// For "relative" and "absolute" modes, this is the tolerance threshold.
	// For "ulp" mode, this value is truncated to an integer representing the
	// maximum allowed ULP (Units in Last Place) difference.
	FloatTolerance float64

	// ToleranceMode specifies how tolerance is applied.
	// Values: "relative", "absolute", "ulp"
	ToleranceMode string

	// NaNEqualsNaN treats NaN values as equal when true.
	NaNEqualsNaN bool
}

// DefaultOptions returns options for comparing values read back from a
// result file.
func DefaultOptions() CompareOptions {
	return CompareOptions{
		FloatTolerance: 1e-9,
		ToleranceMode:  "relative",
		NaNEqualsNaN:   true,
	}
}

// OrderOptions returns options for comparing observed convergence orders,
// which only approach the theoretical order asymptotically.
func OrderOptions() CompareOptions {
	return CompareOptions{
		FloatTolerance: 0.1,
		ToleranceMode:  "absolute",
	}
}

// ValidateOptions validates that CompareOptions has valid enum values.
// Returns nil if valid, or an error describing the invalid field.
func ValidateOptions(opts CompareOptions) error {
	switch opts.ToleranceMode {
	case "", "relative", "absolute", "ulp":
		// valid (empty defaults to relative)
	default:
		return fmt.Errorf("invalid ToleranceMode: %q (must be \"relative\", \"absolute\", or \"ulp\")", opts.ToleranceMode)
	}
	if opts.FloatTolerance < 0 || math.IsNaN(opts.FloatTolerance) {
		return fmt.Errorf("invalid FloatTolerance: %v", opts.FloatTolerance)
	}
	return nil
}

// FloatsEqual reports whether actual matches expected under opts.
func FloatsEqual(expected, actual float64, opts CompareOptions) bool {
	if math.IsNaN(expected) && math.IsNaN(actual) {
		return opts.NaNEqualsNaN
	}

	if math.IsInf(expected, 1) && math.IsInf(actual, 1) {
		return true
	}
	if math.IsInf(expected, -1) && math.IsInf(actual, -1) {
		return true
	}

	// Exact equality for special values
	if math.IsNaN(expected) || math.IsNaN(actual) ||
		math.IsInf(expected, 0) || math.IsInf(actual, 0) {
		return false
	}

	switch opts.ToleranceMode {
	case "absolute":
		return math.Abs(expected-actual) <= opts.FloatTolerance
	case "ulp":
		return ulpDiff(expected, actual) <= int64(opts.FloatTolerance)
	default:
		if expected == 0 {
			return math.Abs(actual) <= opts.FloatTolerance
		}
		return math.Abs((expected-actual)/expected) <= opts.FloatTolerance
	}
}

func ulpDiff(a, b float64) int64 {
	ai := int64(math.Float64bits(a))
	bi := int64(math.Float64bits(b))
	if ai < 0 {
		ai = math.MinInt64 - ai
	}
	if bi < 0 {
		bi = math.MinInt64 - bi
	}
	diff := ai - bi
	if diff < 0 {
		return -diff
	}
	return diff
}

// CompareColumn compares a column of the file with expected values row by
// row. It returns true if they match, and a diff string if they don't.
func CompareColumn(rf *ResultFile, column string, expected []float64, opts CompareOptions) (bool, string) {
	actual := rf.Column(column)
	if len(actual) != len(expected) {
		return false, fmt.Sprintf("%s: length mismatch (expected=%d, actual=%d)", column, len(expected), len(actual))
	}
	var diffs []string
	for i := range expected {
		if !FloatsEqual(expected[i], actual[i], opts) {
			diffs = append(diffs, fmt.Sprintf("%s[%d]: float mismatch (expected=%v, actual=%v)", column, i, expected[i], actual[i]))
		}
	}
	if len(diffs) > 0 {
		return false, strings.Join(diffs, "\n")
	}
	return true, ""
}

// CheckOrder verifies that every observed convergence order of errorColumn
// matches want. A file without any pair of rows related by halving the time
// window size is an error.
func CheckOrder(rf *ResultFile, errorColumn string, want float64, opts CompareOptions) error {
	if err := ValidateOptions(opts); err != nil {
		return err
	}
	rates := rf.Table.ConvergenceRates(errorColumn)
	if len(rates) == 0 {
		return fmt.Errorf("%s: no convergence rates for %q", rf.Path, errorColumn)
	}
	var diffs []string
	for _, r := range rates {
		if !FloatsEqual(want, r.Order, opts) {
			diffs = append(diffs, fmt.Sprintf("time window size %s: order %.3f, want %.3f",
				results.FormatFloat(r.TimeWindowSize), r.Order, want))
		}
	}
	if len(diffs) > 0 {
		return fmt.Errorf("%s: %s\n  %s", rf.Path, errorColumn, strings.Join(diffs, "\n  "))
	}
	return nil
}
