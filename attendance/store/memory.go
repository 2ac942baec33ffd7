// Package store provides Store implementations.
package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps the last saved snapshot as an encoded document, so callers
// never share slices or attribute maps with the store.
type Memory struct {
	mu  sync.RWMutex
	doc []byte

	// FailLoad and FailSave inject faults for tests.
	FailLoad error
	FailSave error

	saves int
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (attendance.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailLoad != nil {
		return attendance.Snapshot{}, m.FailLoad
	}
	if m.doc == nil {
		return attendance.EmptySnapshot(), nil
	}
	var s attendance.Snapshot
	if err := json.Unmarshal(m.doc, &s); err != nil {
		return attendance.Snapshot{}, err
	}
	return s.Normalize(), nil
}

// Save replaces the stored document in one step.
func (m *Memory) Save(_ context.Context, s attendance.Snapshot) error {
	doc, err := json.Marshal(s.Normalize())
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	m.doc = doc
	m.saves++
	return nil
}

// Saves returns how many snapshots were persisted.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
