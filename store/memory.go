package store

import (
	"context"
	"encoding/json"
	"sync"

	"felt/engine"
)

// MemoryStore keeps documents in process memory. Documents are stored as
// JSON so that loads hand out independent copies, the same as the SQL
// backends.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]memoryEntry
}

type memoryEntry struct {
	doc     []byte
	version int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Create(_ context.Context, tbl *engine.Table) error {
	doc, err := json.Marshal(tbl)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[tbl.ID]; ok {
		return ErrAlreadyExists
	}
	m.docs[tbl.ID] = memoryEntry{doc: doc, version: 1}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*engine.Table, int64, error) {
	m.mu.RLock()
	entry, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, 0, ErrNotFound
	}
	var tbl engine.Table
	if err := json.Unmarshal(entry.doc, &tbl); err != nil {
		return nil, 0, err
	}
	return &tbl, entry.version, nil
}

func (m *MemoryStore) Save(_ context.Context, tbl *engine.Table, expectVersion int64) (int64, error) {
	doc, err := json.Marshal(tbl)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.docs[tbl.ID]
	if !ok {
		return 0, ErrNotFound
	}
	if entry.version != expectVersion {
		return 0, ErrVersionMismatch
	}
	next := entry.version + 1
	m.docs[tbl.ID] = memoryEntry{doc: doc, version: next}
	return next, nil
}

func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
