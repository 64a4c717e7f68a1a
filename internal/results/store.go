package results

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Header supplies the comment lines written in front of the final table.
type Header interface {
	Lines() []string
}

// Store persists a Table to a single CSV file. Every write replaces the
// whole file via a temporary file in the same directory and a rename, so the
// file on disk always holds either the previous or the new complete table.
type Store struct {
	path string
}

// NewStore creates dir if needed and returns a Store writing to a freshly
// named <uuid>.csv inside it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Store{path: filepath.Join(dir, uuid.NewString()+".csv")}, nil
}

// NewStoreAt returns a Store writing to path.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Path returns the file the store writes to.
func (s *Store) Path() string {
	return s.path
}

// Persist overwrites the file with the full current table.
func (s *Store) Persist(t *Table) error {
	var buf bytes.Buffer
	if err := writeCSV(&buf, t.Columns, t); err != nil {
		return err
	}
	return writeFileAtomic(s.path, buf.Bytes())
}

// Finalize replaces the preliminary file with the provenance header as
// "# key:value" lines followed by the table with its key columns first.
func (s *Store) Finalize(t *Table, header Header) error {
	var buf bytes.Buffer
	if header != nil {
		for _, line := range header.Lines() {
			line = strings.ReplaceAll(line, "\n", " ")
			fmt.Fprintf(&buf, "# %s\n", line)
		}
	}
	if err := writeCSV(&buf, t.Keyed(), t); err != nil {
		return err
	}
	return writeFileAtomic(s.path, buf.Bytes())
}

func writeCSV(buf *bytes.Buffer, columns []string, t *Table) error {
	w := csv.NewWriter(buf)
	if err := w.Write(columns); err != nil {
		return err
	}
	if err := w.WriteAll(t.Strings(columns)); err != nil {
		return err
	}
	return w.Error()
}

// writeFileAtomic writes data to a temporary sibling of path and renames it
// over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
