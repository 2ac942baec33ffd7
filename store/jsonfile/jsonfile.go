/*
Package jsonfile stores the snapshot as one indented JSON document.

LAYOUT:
  {
    "students": [...], "teachers": [...], "tutors": [...],
    "administrators": [...], "events": [...], "attendance": [...]
  }

ATOMIC SAVE:
  Save writes to a temporary file in the same directory, syncs it, and
  renames it over the target. Readers see either the previous document or
  the new one, never a partial write.

MISSING FILE:
  A document that does not exist yet loads as the empty snapshot. Any
  other read or parse failure is returned to the caller.
*/
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/warp/attendance-engine/attendance"
)

// Store implements attendance.Store on a single file.
type Store struct {
	path string
	mu   sync.RWMutex
}

// New returns a store for path. The file is created on first Save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(_ context.Context) (attendance.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return attendance.EmptySnapshot(), nil
	}
	if err != nil {
		return attendance.Snapshot{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	var snap attendance.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return attendance.Snapshot{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return snap.Normalize(), nil
}

func (s *Store) Save(_ context.Context, snap attendance.Snapshot) error {
	data, err := json.MarshalIndent(snap.Normalize(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
