package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps the document in process memory.
type MemoryBackend struct {
	mu  sync.RWMutex
	doc *Document
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{doc: NewDocument()}
}

func (m *MemoryBackend) Load(_ context.Context) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.Clone(), nil
}

func (m *MemoryBackend) Save(_ context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc.Clone()
	return nil
}
