// Package repository provides persistence for facility database snapshots.
// The surveillance core never performs I/O itself; collaborators load a
// snapshot, hand it to the engines, and save the mutated snapshot back.
// Saves are last-write-wins; the core tolerates stale-but-valid snapshots.
package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/carewatch/stewardship/pkg/types"
)

// SnapshotRepository loads and saves the full per-facility snapshot.
type SnapshotRepository interface {
	Load(ctx context.Context, facilityID string) (*types.Snapshot, error)
	Save(ctx context.Context, facilityID string, snap *types.Snapshot) error
}

// MemorySnapshotStore is an in-memory SnapshotRepository used by tests and
// single-process deployments. Snapshots are stored as JSON documents so
// callers never share mutable state with the store.
type MemorySnapshotStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemorySnapshotStore creates an empty in-memory snapshot store
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{docs: make(map[string][]byte)}
}

// Load returns the snapshot for a facility, or a fresh empty snapshot when
// none has been saved yet.
func (s *MemorySnapshotStore) Load(ctx context.Context, facilityID string) (*types.Snapshot, error) {
	s.mu.RLock()
	doc, ok := s.docs[facilityID]
	s.mu.RUnlock()

	if !ok {
		return types.NewSnapshot(), nil
	}

	var snap types.Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to decode stored snapshot", err)
	}
	return &snap, nil
}

// Save stores the snapshot for a facility, replacing any previous document.
func (s *MemorySnapshotStore) Save(ctx context.Context, facilityID string, snap *types.Snapshot) error {
	if snap == nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "snapshot is nil", nil)
	}

	doc, err := json.Marshal(snap)
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to encode snapshot", err)
	}

	s.mu.Lock()
	s.docs[facilityID] = doc
	s.mu.Unlock()
	return nil
}
