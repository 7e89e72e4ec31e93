package record

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileRecord stores each record as a YAML document under a directory.
type FileRecord struct {
	dir string
	mu  sync.Mutex
}

// NewFileRecord creates a FileRecord rooted at dir. The directory is
// created on first write.
func NewFileRecord(dir string) *FileRecord {
	return &FileRecord{dir: filepath.Clean(dir)}
}

func (f *FileRecord) path(name string) string {
	return filepath.Join(f.dir, filepath.Base(name)+".yaml")
}

// Read implements Record.
func (f *FileRecord) Read(_ context.Context, name string, dst any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(name)) // #nosec G304 - name is reduced to its base
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading record %q: %w", name, err)
	}

	if len(data) == 0 {
		return true, nil
	}

	if err := yaml.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decoding record %q: %w", name, err)
	}
	return true, nil
}

// Write implements Record. The file is replaced atomically.
func (f *FileRecord) Write(_ context.Context, name string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", name, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0o750); err != nil {
		return fmt.Errorf("creating record directory: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".record-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing record %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing record %q: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), f.path(name)); err != nil {
		return fmt.Errorf("replacing record %q: %w", name, err)
	}
	return nil
}

// Delete implements Record.
func (f *FileRecord) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting record %q: %w", name, err)
	}
	return nil
}

var _ Record = (*FileRecord)(nil)
