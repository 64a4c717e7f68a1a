package schema

import (
	"strings"
	"testing"
)

func TestValidateStudy_Valid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "minimal",
			data: `{"participants": [{"name": "A", "exec": ["solver"]}]}`,
		},
		{
			name: "full",
			data: `{
				"$schema": "./study.schema.json",
				"template_root": ".",
				"config_path": "precice-config.xml",
				"output_dir": "convergence-studies",
				"coupling": {"max_used_iterations": 10, "time_windows_reused": 5},
				"keywords": {"substeps": "n-substeps", "time_stepping": "time-stepping", "experiment": "experiment"},
				"participants": [
					{"name": "Dirichlet", "root": "fenics", "exec": ["python3", "heat.py"], "params": ["-d"], "kwargs": {"error-tol": 10e10, "verbose": true, "mode": "fast"}},
					{"name": "Neumann", "root": "fenics", "exec": ["python3", "heat.py"], "params": ["-n"], "log_file": "n.log", "errors_file": "n.csv"}
				],
				"versions": [{"name": "fenics version", "command": "python3 -c 'import fenics'"}]
			}`,
		},
		{
			name: "unknown fields are left to warnings",
			data: `{"participants": [{"name": "A", "exec": ["solver"], "colour": "red"}], "extra": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStudy([]byte(tt.data)); err != nil {
				t.Errorf("ValidateStudy() error = %v", err)
			}
		})
	}
}

func TestValidateStudy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing participants", `{}`},
		{"empty participants", `{"participants": []}`},
		{"participant without exec", `{"participants": [{"name": "A"}]}`},
		{"empty exec", `{"participants": [{"name": "A", "exec": []}]}`},
		{"exec not a list", `{"participants": [{"name": "A", "exec": "solver"}]}`},
		{"nested kwarg", `{"participants": [{"name": "A", "exec": ["s"], "kwargs": {"k": {"a": 1}}}]}`},
		{"negative iterations", `{"participants": [{"name": "A", "exec": ["s"]}], "coupling": {"max_used_iterations": -1}}`},
		{"fractional iterations", `{"participants": [{"name": "A", "exec": ["s"]}], "coupling": {"time_windows_reused": 1.5}}`},
		{"keyword with spaces", `{"participants": [{"name": "A", "exec": ["s"]}], "keywords": {"substeps": "n substeps"}}`},
		{"version without command", `{"participants": [{"name": "A", "exec": ["s"]}], "versions": [{"name": "v"}]}`},
		{"root not an object", `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStudy([]byte(tt.data)); err == nil {
				t.Error("ValidateStudy() = nil, want error")
			}
		})
	}
}

func TestValidateStudy_InvalidJSON(t *testing.T) {
	err := ValidateStudy([]byte(`{"participants": [`))
	if err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("ValidateStudy() error = %v, want invalid JSON", err)
	}
}

func TestValidateStudyValue(t *testing.T) {
	doc := map[string]any{
		"participants": []any{
			map[string]any{"name": "A", "exec": []any{"solver"}, "kwargs": map[string]any{"tol": 1e-6}},
		},
		"coupling": map[string]any{"max_used_iterations": 3},
	}
	if err := ValidateStudyValue(doc); err != nil {
		t.Errorf("ValidateStudyValue() error = %v", err)
	}

	bad := map[any]any{1: "x"}
	if err := ValidateStudyValue(bad); err == nil {
		t.Error("ValidateStudyValue() accepted a mapping with non-string keys")
	}
}
