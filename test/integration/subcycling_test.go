package integration

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/AndreyAkinshin/convstudy/internal/cli"
	"github.com/AndreyAkinshin/convstudy/pkg/convstudy"
	"github.com/AndreyAkinshin/convstudy/pkg/testhelper"
)

func TestSubcyclingSweep(t *testing.T) {
	requireTools(t)
	dir := copyFixture(t, "heat")

	code := cli.Run([]string{
		"-q",
		"-c", filepath.Join(dir, "convstudy.yaml"),
		"-w", "2",
		"-s", "3",
		"-sb", "1", "2",
		"-sf", "2", "1",
		filepath.Join(dir, "precice-config-template.xml"),
	})
	if code != convstudy.ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", convstudy.ExitSuccess, code)
	}

	rf := singleResult(t, filepath.Join(dir, "convergence-studies"))
	if rf.Table.Len() != 6 {
		t.Fatalf("expected 2 time window sizes x 3 refinements = 6 rows, got %d", rf.Table.Len())
	}

	opts := testhelper.DefaultOptions()
	tests := []struct {
		column string
		want   []float64
	}{
		{"time window size", []float64{0.1, 0.1, 0.1, 0.05, 0.05, 0.05}},
		// Dirichlet: 1, 2, 4 substeps
		{"time step size Dirichlet", []float64{0.1, 0.05, 0.025, 0.05, 0.025, 0.0125}},
		// Neumann: base 2, factor 1
		{"time step size Neumann", []float64{0.05, 0.05, 0.05, 0.025, 0.025, 0.025}},
		// (dt / substeps)^1
		{"error Dirichlet", []float64{0.1, 0.05, 0.025, 0.05, 0.025, 0.0125}},
		// (dt / substeps)^2
		{"error Neumann", []float64{0.0025, 0.0025, 0.0025, 0.000625, 0.000625, 0.000625}},
	}
	for _, tt := range tests {
		if ok, diff := testhelper.CompareColumn(rf, tt.column, tt.want, opts); !ok {
			t.Errorf("%s:\n%s", tt.column, diff)
		}
	}

	// Subcycling is enabled in the rendered configuration.
	if v, _ := rf.HeaderValue("precice_config_params"); !strings.Contains(v, "substeps: true") {
		t.Errorf("expected substeps enabled in %q", v)
	}

	if err := testhelper.CheckOrder(rf, "error Dirichlet", 1, testhelper.OrderOptions()); err != nil {
		t.Error(err)
	}
}
