package store

import (
	"FlowSentinel/internal/model"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one model per file.
type FileStore struct{}

// NewFileStore returns a store that writes gob files.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Save writes the handle to a temporary file next to path and renames it
// into place, so readers never observe a partial model.
func (s *FileStore) Save(handle model.ModelHandle, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, handle); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move model into place: %w", err)
	}
	return nil
}

// Load reads a handle written by Save.
func (s *FileStore) Load(path string) (model.ModelHandle, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", model.ErrModelNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	return Decode(f)
}
