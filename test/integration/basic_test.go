// Package integration contains end-to-end tests that drive the convstudy
// CLI against stand-in participants.
package integration

import (
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/AndreyAkinshin/convstudy/internal/cli"
	"github.com/AndreyAkinshin/convstudy/pkg/convstudy"
	"github.com/AndreyAkinshin/convstudy/pkg/testhelper"
)

var (
	fixturesDirOnce sync.Once
	fixturesDirPath string
)

// fixturesDir returns the path to the test fixtures directory.
// The result is cached for efficiency since runtime.Caller is relatively expensive.
func fixturesDir() string {
	fixturesDirOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		fixturesDirPath = filepath.Join(filepath.Dir(filename), "..", "fixtures")
	})
	return fixturesDirPath
}

// requireTools skips the test unless the stand-in participants can run.
func requireTools(t *testing.T) {
	t.Helper()
	for _, tool := range []string{"sh", "sed", "awk"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available", tool)
		}
	}
}

// copyFixture copies a fixture into a temporary directory, since a study
// writes its rendered configuration, logs and artifacts next to the inputs.
func copyFixture(t *testing.T, name string) string {
	t.Helper()
	src := filepath.Join(fixturesDir(), name)
	dst := t.TempDir()
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
	if err != nil {
		t.Fatalf("failed to copy fixture %s: %v", name, err)
	}
	// Keep provenance collection out of the enclosing repository.
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dst))
	return dst
}

// singleResult loads the only result file written to dir.
func singleResult(t *testing.T, dir string) *testhelper.ResultFile {
	t.Helper()
	files, err := testhelper.FindResults(dir)
	if err != nil {
		t.Fatalf("failed to list results: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected exactly one result file in %s, got %v", dir, files)
	}
	rf, err := testhelper.LoadResults(files[0])
	if err != nil {
		t.Fatalf("failed to load results: %v", err)
	}
	return rf
}

func TestStudyEndToEnd(t *testing.T) {
	requireTools(t)
	dir := copyFixture(t, "heat")

	code := cli.Run([]string{
		"-q",
		"-c", filepath.Join(dir, "convstudy.yaml"),
		"-w", "4",
		filepath.Join(dir, "precice-config-template.xml"),
	})
	if code != convstudy.ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", convstudy.ExitSuccess, code)
	}

	rf := singleResult(t, filepath.Join(dir, "convergence-studies"))
	if !rf.Final() {
		t.Fatal("expected a final result file with a provenance header")
	}
	if rf.Table.Len() != 4 {
		t.Fatalf("expected 4 rows, got %d", rf.Table.Len())
	}

	want := []float64{0.1, 0.05, 0.025, 0.0125}
	if ok, diff := testhelper.CompareColumn(rf, "time window size", want, testhelper.DefaultOptions()); !ok {
		t.Errorf("time window sizes:\n%s", diff)
	}
	if ok, diff := testhelper.CompareColumn(rf, "time step size Neumann", want, testhelper.DefaultOptions()); !ok {
		t.Errorf("time step sizes:\n%s", diff)
	}

	if err := testhelper.CheckOrder(rf, "error Dirichlet", 1, testhelper.OrderOptions()); err != nil {
		t.Error(err)
	}
	if err := testhelper.CheckOrder(rf, "error Neumann", 2, testhelper.OrderOptions()); err != nil {
		t.Error(err)
	}
}

func TestStudyProvenanceHeader(t *testing.T) {
	requireTools(t)
	dir := copyFixture(t, "heat")

	code := cli.Run([]string{
		"-q",
		"-c", filepath.Join(dir, "convstudy.yaml"),
		"-w", "1",
		"-e", "p1",
		filepath.Join(dir, "precice-config-template.xml"),
	})
	if code != convstudy.ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", convstudy.ExitSuccess, code)
	}

	rf := singleResult(t, filepath.Join(dir, "convergence-studies"))

	keys := make([]string, 0, len(rf.Header))
	for _, h := range rf.Header {
		keys = append(keys, h.Key)
	}
	wantKeys := []string{"git repository", "git commit", "run cmd", "args", "precice_config_params", "participants"}
	if strings.Join(keys, "|") != strings.Join(wantKeys, "|") {
		t.Errorf("expected header keys %v, got %v", wantKeys, keys)
	}

	if v, _ := rf.HeaderValue("git commit"); v != "unknown" {
		t.Errorf("expected unknown git commit outside a repository, got %q", v)
	}
	if v, _ := rf.HeaderValue("run cmd"); !strings.HasPrefix(v, "convstudy -q -c ") {
		t.Errorf("unexpected run cmd %q", v)
	}
	if v, _ := rf.HeaderValue("args"); !strings.Contains(v, "experiment: p1") {
		t.Errorf("expected experiment in args, got %q", v)
	}
	if v, _ := rf.HeaderValue("precice_config_params"); !strings.Contains(v, "max_used_iterations: 10") {
		t.Errorf("expected coupling parameters, got %q", v)
	}
	if v, _ := rf.HeaderValue("participants"); !strings.Contains(v, "Dirichlet") || !strings.Contains(v, "experiment: p1") {
		t.Errorf("expected participant descriptions, got %q", v)
	}
}

func TestStudyArtifactsStayInParticipantRoot(t *testing.T) {
	requireTools(t)
	dir := copyFixture(t, "heat")

	code := cli.Run([]string{"-q", "-c", filepath.Join(dir, "convstudy.yaml"), "-w", "1",
		filepath.Join(dir, "precice-config-template.xml")})
	if code != convstudy.ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", convstudy.ExitSuccess, code)
	}

	for _, name := range []string{
		"precice-config.xml",
		"stdout-Dirichlet.log",
		"stdout-Neumann.log",
		"errors-Dirichlet.csv",
		"errors-Neumann.csv",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s after the study: %v", name, err)
		}
	}

	log, err := os.ReadFile(filepath.Join(dir, "stdout-Neumann.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(log), "Neumann: dt=0.1 substeps=1") {
		t.Errorf("unexpected participant log %q", log)
	}
}
