// Package storage provides reference Storage implementations: an
// in-process map-backed store for tests and short-lived demos (the inspect
// CLI uses it too), and a JSON-file-backed store that survives process
// restart. Both satisfy
// cloudsync.Storage (spec.md §6); neither is a "production persistence
// backend" in the sense spec.md §1 excludes from scope.
package storage

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cloudsync-go/cloudsync/internal/cloudsync"
)

// Memory is a mutex-guarded, map-backed cloudsync.Storage. It never
// survives process restart; it exists for tests and the engine's own
// development loop, grounded on cloudsync/tests/fixtures.py's in-memory
// storage fixture.
type Memory struct {
	mu   sync.Mutex
	tags map[string]map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{tags: make(map[string]map[string][]byte)}
}

func (m *Memory) bucket(tag string) map[string][]byte {
	b, ok := m.tags[tag]
	if !ok {
		b = make(map[string][]byte)
		m.tags[tag] = b
	}
	return b
}

// Create implements cloudsync.Storage.
func (m *Memory) Create(tag string, blob []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.bucket(tag)[id] = append([]byte(nil), blob...)
	return id, nil
}

// Update implements cloudsync.Storage.
func (m *Memory) Update(tag string, blob []byte, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bucket(tag)
	if _, ok := b[id]; !ok {
		return cloudsync.ErrNotFound
	}
	b[id] = append([]byte(nil), blob...)
	return nil
}

// Delete implements cloudsync.Storage.
func (m *Memory) Delete(tag string, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bucket(tag)
	if _, ok := b[id]; !ok {
		return cloudsync.ErrNotFound
	}
	delete(b, id)
	return nil
}

// ReadAll implements cloudsync.Storage.
func (m *Memory) ReadAll(tag string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.tags[tag]))
	for id, blob := range m.tags[tag] {
		out[id] = append([]byte(nil), blob...)
	}
	return out, nil
}
