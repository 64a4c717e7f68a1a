// Package render expands a coupling-configuration template against the
// parameters of one run and writes the resulting document.
package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/AndreyAkinshin/convstudy/internal/errors"
)

// Renderer resolves templates and output paths relative to a template root.
type Renderer struct {
	root string
}

// New creates a Renderer rooted at templateRoot.
func New(templateRoot string) *Renderer {
	return &Renderer{root: templateRoot}
}

// Root returns the template root directory.
func (r *Renderer) Root() string {
	return r.root
}

// Resolve returns path joined with the template root. Absolute paths are
// accepted only when they lie inside the root.
func (r *Renderer) Resolve(path string) (string, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(r.root, full)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(filepath.Clean(r.root), full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the template root %s", path, r.root)
	}
	return full, nil
}

// Render expands templatePath with params and overwrites outputPath with the
// result. Every key referenced by the template must be present in params.
// Failures are reported as template errors and leave outputPath untouched.
func (r *Renderer) Render(templatePath, outputPath string, params map[string]any) error {
	src, err := r.Resolve(templatePath)
	if err != nil {
		return errors.Template(templatePath, err)
	}
	dst, err := r.Resolve(outputPath)
	if err != nil {
		return errors.Template(templatePath, err)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return errors.Template(templatePath, err)
	}

	tmpl, err := template.New(filepath.Base(src)).Option("missingkey=error").Parse(string(data))
	if err != nil {
		return errors.Template(templatePath, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return errors.Template(templatePath, err)
	}

	if err := os.WriteFile(dst, buf.Bytes(), 0644); err != nil {
		return errors.Template(templatePath, fmt.Errorf("write %s: %w", dst, err))
	}
	return nil
}
