package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store owns the on-disk calibration mapping. It is the sole writer; the
// running system only ever reads.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// DefaultPath returns the standard calibration file location.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "videowall", "calibration.json"), nil
}

// Load reads and validates the persisted mapping. Returns ErrNotFound when
// the file is missing and a *CorruptError when its content is invalid; both
// are fatal to startup.
func (s *Store) Load() (*Mapping, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read calibration file %s: %w", s.path, err)
	}

	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &CorruptError{Path: s.path, Err: err}
	}
	if err := m.validate(); err != nil {
		return nil, &CorruptError{Path: s.path, Err: err}
	}
	return &m, nil
}

// Save atomically overwrites the mapping: the new content is written to a
// temp file in the same directory and renamed into place, so a crash
// mid-write never corrupts the previous valid mapping.
func (s *Store) Save(m *Mapping) error {
	if err := m.validate(); err != nil {
		return fmt.Errorf("refusing to save invalid mapping: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create calibration dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".calibration-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write mapping: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set mapping permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace calibration file: %w", err)
	}
	return nil
}
