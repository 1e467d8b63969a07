package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the state file name inside the data directory.
const FileName = "state.json"

// Store persists State as a whole-record JSON file.
type Store struct {
	path string
}

// NewStore creates a store for state.json in dataDir.
func NewStore(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, FileName)}
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state file. A missing file yields the empty state and
// exists=false.
func (s *Store) Load() (st State, raw []byte, exists bool, err error) {
	raw, err = os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil, false, nil
	}
	if err != nil {
		return State{}, nil, false, fmt.Errorf("read state file: %w", err)
	}

	st = New()
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, nil, false, fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	if st.RecipientNotifications == nil {
		st.RecipientNotifications = make(map[string]time.Time)
	}
	return st, raw, true, nil
}

// Save atomically replaces the state file: write to a temp file, fsync,
// rename over the old file, then fsync the directory.
func (s *Store) Save(st State) ([]byte, error) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) // Clean up temp file on error
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}

	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return data, nil
}

// sameContent reports whether raw matches what was last written.
func sameContent(a, b []byte) bool {
	return bytes.Equal(a, b)
}
