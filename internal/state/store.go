package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrStaleWrite is returned by Save when the stored version no longer
// matches the snapshot's version, i.e. another write landed in between.
var ErrStaleWrite = errors.New("state: stale write rejected")

// Key identifies one conversation: a feature and the user it belongs to.
type Key struct {
	Feature Feature
	UserID  int64
}

// String renders the storage key. The layout keeps chat and quiz state
// from colliding with each other or across users.
func (k Key) String() string {
	return fmt.Sprintf("%sState_%d", k.Feature, k.UserID)
}

// Snapshot is a conversation state plus the version it was loaded at.
// A snapshot that was never persisted has version zero.
type Snapshot struct {
	State   ConversationState `json:"state"`
	Version int64             `json:"version"`
}

// Store persists conversation snapshots. Load never fails on missing or
// corrupt entries; it falls back to the feature's default state at
// version zero. Save rejects stale snapshots with ErrStaleWrite and
// returns the snapshot as persisted (version incremented). Reset removes
// the entry and returns a fresh default.
type Store interface {
	Load(ctx context.Context, key Key) (Snapshot, error)
	Save(ctx context.Context, key Key, snap Snapshot) (Snapshot, error)
	Reset(ctx context.Context, key Key) (Snapshot, error)
}

// MemoryStore is an in-process Store used in tests and as a fallback when
// no durable backend is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Snapshot)}
}

func (m *MemoryStore) Load(_ context.Context, key Key) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if snap, ok := m.entries[key.String()]; ok {
		return snap, nil
	}
	return Snapshot{State: DefaultState(key.Feature)}, nil
}

func (m *MemoryStore) Save(_ context.Context, key Key, snap Snapshot) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := int64(0)
	if existing, ok := m.entries[key.String()]; ok {
		current = existing.Version
	}
	if current != snap.Version {
		return Snapshot{}, ErrStaleWrite
	}
	snap.Version++
	m.entries[key.String()] = snap
	return snap, nil
}

func (m *MemoryStore) Reset(_ context.Context, key Key) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key.String())
	return Snapshot{State: DefaultState(key.Feature)}, nil
}
