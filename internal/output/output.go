// Package output writes the user-facing side of a study: run banners,
// preliminary and final result tables, dry-run plans and diagnostics.
// Structured diagnostics go through internal/logging instead.
package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// defaultRuleWidth is used when the terminal width is unknown.
const defaultRuleWidth = 80

// Writer handles CLI output formatting. In quiet mode only errors, warnings
// and the final result path are printed.
type Writer struct {
	out   io.Writer
	err   io.Writer
	color bool
	quiet bool
}

// New creates a Writer on stdout/stderr, colored when stdout is a terminal.
func New() *Writer {
	return &Writer{
		out:   os.Stdout,
		err:   os.Stderr,
		color: isTerminal(),
	}
}

// NewWithWriters creates a Writer with custom io.Writers (for testing).
func NewWithWriters(out, err io.Writer, color bool) *Writer {
	return &Writer{out: out, err: err, color: color}
}

// SetQuiet enables or disables quiet mode.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// Quiet reports whether quiet mode is enabled.
func (w *Writer) Quiet() bool {
	return w.quiet
}

// paint wraps s in an ANSI style when color is enabled.
func (w *Writer) paint(style, s string) string {
	if !w.color || style == "" {
		return s
	}
	return style + s + reset
}

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(format string, args ...interface{}) {
	fmt.Fprintf(w.err, format+"\n", args...)
}

// Info prints a progress message (skipped in quiet mode).
func (w *Writer) Info(format string, args ...interface{}) {
	if w.quiet {
		return
	}
	w.Println(format, args...)
}

// Warning prints a warning to stderr, also in quiet mode.
func (w *Writer) Warning(format string, args ...interface{}) {
	w.Errorln("%s", w.paint(yellow, "warning: "+fmt.Sprintf(format, args...)))
}

// ErrorPrefix prints an error message with the convstudy prefix to stderr.
func (w *Writer) ErrorPrefix(format string, args ...interface{}) {
	w.Errorln("%s %s", w.paint(red, "convstudy:"), fmt.Sprintf(format, args...))
}

// RunBanner separates the output of consecutive runs and announces the
// sweep point about to be executed.
func (w *Writer) RunBanner(n, total int, started time.Time, point string) {
	if w.quiet {
		return
	}
	w.Println("%s", strings.Repeat("-", ruleWidth()))
	w.Println("Start run %d/%d at %s: %s", n, total, started.Format(time.DateTime), point)
}

// ResultTable prints a titled table of results (skipped in quiet mode).
func (w *Writer) ResultTable(name string, headers []string, rows [][]string) {
	if w.quiet {
		return
	}
	w.section(name)
	w.table(headers, rows)
}

func (w *Writer) section(s string) {
	w.Println("")
	w.Println("%s", w.paint(bold, "=== "+title(s)+" ==="))
}

// table left-aligns every column to its widest cell. Cells beyond the
// headers are dropped.
func (w *Writer) table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	line := func(cells []string) string {
		parts := make([]string, 0, len(widths))
		for i, cell := range cells {
			if i < len(widths) {
				parts = append(parts, fmt.Sprintf("%-*s", widths[i], cell))
			}
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	w.Println("%s", line(headers))
	seps := make([]string, len(widths))
	for i, width := range widths {
		seps[i] = strings.Repeat("-", width)
	}
	w.Println("%s", strings.Join(seps, "  "))
	for _, row := range rows {
		w.Println("%s", line(row))
	}
}

// Step prints a numbered entry of a dry-run plan.
func (w *Writer) Step(num int, format string, args ...interface{}) {
	if w.quiet {
		return
	}
	w.Println("%s %s", w.paint(cyan, strconv.Itoa(num)+"."), fmt.Sprintf(format, args...))
}

// StepDetail prints an indented detail line under a step.
func (w *Writer) StepDetail(format string, args ...interface{}) {
	if w.quiet {
		return
	}
	w.Println("   %s", w.paint(dim, "- "+fmt.Sprintf(format, args...)))
}

// SummaryItem prints a labeled value.
func (w *Writer) SummaryItem(label, value string) {
	w.Println("  %s %s", w.paint(dim, label+":"), value)
}

// FinalSuccess prints the closing message of a completed study.
func (w *Writer) FinalSuccess(format string, args ...interface{}) {
	w.Println("")
	w.Println("%s", w.paint(green, fmt.Sprintf(format, args...)))
}

// DryRunStart prints the dry run header.
func (w *Writer) DryRunStart() {
	w.Println("")
	w.Println("%s", w.paint(bold+yellow, "=== DRY RUN ==="))
	w.Println("")
}

// DryRunEnd prints the dry run footer.
func (w *Writer) DryRunEnd() {
	w.Println("")
	w.Println("%s", w.paint(bold+yellow, "=== END DRY RUN ==="))
}

// Hint prints a dimmed follow-up to an error.
func (w *Writer) Hint(format string, args ...interface{}) {
	w.Println("%s", w.paint(dim, fmt.Sprintf(format, args...)))
}

// HelpTitle formats the main help title line.
func (w *Writer) HelpTitle(s string) {
	w.Println("%s", w.paint(bold+cyan, s))
}

// HelpSection formats a section header (e.g., "Flags:").
func (w *Writer) HelpSection(s string) {
	w.Println("")
	w.Println("%s", w.paint(bold+yellow, s))
}

// HelpFlag formats a flag with its description, padded to width.
func (w *Writer) HelpFlag(name, description string, width int) {
	padding := width - len(name)
	if padding < 0 {
		padding = 0
	}
	w.Println("  %s%s  %s", w.paint(yellow, name), strings.Repeat(" ", padding), w.paint(dim, description))
}

// HelpUsage formats usage lines.
func (w *Writer) HelpUsage(usage string) {
	w.Println("  %s", usage)
}

// title converts s to title case ("preliminary results" -> "Preliminary Results").
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// isTerminal returns true if stdout is a terminal.
func isTerminal() bool {
	if fi, _ := os.Stdout.Stat(); fi != nil {
		return (fi.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// ruleWidth returns the separator width, honoring $COLUMNS when set.
func ruleWidth() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return defaultRuleWidth
}

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)
