// Package provenance records where a result set came from: the source
// revision, solver versions, the command line and the effective configuration.
package provenance

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/convstudy/internal/coupling"
	"github.com/AndreyAkinshin/convstudy/internal/participant"
)

// Unknown is recorded for values that could not be determined.
const Unknown = "unknown"

// Entry is a named provenance value.
type Entry struct {
	Name  string
	Value string
}

// Probe is a shell command printing a version string.
type Probe struct {
	Name    string
	Command string
}

// Record is the provenance of one study. It is computed once and attached
// only to the final result file.
type Record struct {
	Commit       string
	Dirty        bool
	Remote       string
	Versions     []Entry
	CommandLine  string
	Args         map[string]any
	Parameters   coupling.Parameters
	Participants []participant.Spec
}

// Lines returns the record as "key:value" lines.
func (r Record) Lines() []string {
	commit := r.Commit
	if r.Dirty {
		commit += "-dirty"
	}
	lines := []string{
		"git repository:" + r.Remote,
		"git commit:" + commit,
	}
	for _, v := range r.Versions {
		lines = append(lines, v.Name+":"+v.Value)
	}
	return append(lines,
		"run cmd:"+r.CommandLine,
		"args:"+flow(r.Args),
		"precice_config_params:"+flow(r.Parameters),
		"participants:"+flow(r.Participants),
	)
}

// flow encodes v as single-line YAML flow style.
func flow(v any) string {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return Unknown
	}
	setFlowStyle(&node)
	data, err := yaml.Marshal(&node)
	if err != nil {
		return Unknown
	}
	return strings.ReplaceAll(strings.TrimRight(string(data), "\n"), "\n", " ")
}

func setFlowStyle(n *yaml.Node) {
	n.Style |= yaml.FlowStyle
	for _, c := range n.Content {
		setFlowStyle(c)
	}
}

// Collector gathers the environment part of a Record.
type Collector struct {
	Dir    string // Directory inside the source repository
	Probes []Probe
}

// Collect queries git and the version probes. Failures never abort the
// study: the affected value becomes Unknown and a warning is returned.
func (c *Collector) Collect(ctx context.Context) (Record, []string) {
	var rec Record
	var warnings []string

	commit, err := c.git(ctx, "rev-parse", "--short=7", "HEAD")
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("cannot determine git commit: %v", err))
		commit = Unknown
	} else {
		dirty, err := c.dirty(ctx)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot determine git working tree state: %v", err))
		}
		rec.Dirty = dirty
	}
	rec.Commit = commit

	remote, err := c.git(ctx, "remote", "get-url", "origin")
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("cannot determine git remote: %v", err))
		remote = Unknown
	}
	rec.Remote = remote

	for _, p := range c.Probes {
		v, err := c.probe(ctx, p.Command)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot determine %s: %v", p.Name, err))
			v = Unknown
		}
		rec.Versions = append(rec.Versions, Entry{Name: p.Name, Value: v})
	}
	return rec, warnings
}

// git runs a git command and returns its trimmed output.
func (c *Collector) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.Dir
	out, err := cmd.Output()
	if err != nil {
		return "", describe(err)
	}
	s := strings.TrimSpace(string(out))
	if s == "" {
		return "", fmt.Errorf("git %s printed nothing", args[0])
	}
	return s, nil
}

// dirty reports whether tracked files differ from HEAD.
func (c *Collector) dirty(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "diff-index", "--quiet", "HEAD", "--")
	cmd.Dir = c.Dir
	err := cmd.Run()
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, err
}

// probe runs a version command through the shell.
func (c *Collector) probe(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = c.Dir
	out, err := cmd.Output()
	if err != nil {
		return "", describe(err)
	}
	s := strings.Join(strings.Fields(string(out)), " ")
	if s == "" {
		return "", fmt.Errorf("%q printed nothing", command)
	}
	return s, nil
}

// describe adds the captured stderr of a failed command to its error.
func describe(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
			return fmt.Errorf("%w: %s", err, firstLine(msg))
		}
	}
	return err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
