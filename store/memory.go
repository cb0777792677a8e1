package store

import (
	"chatit/domain"
	"log/slog"
	"sync"
)

type memoryBackend struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

// NewMemoryStore keeps documents in process memory.
func NewMemoryStore(log *slog.Logger) *DocumentStore {
	return newDocumentStore(log, &memoryBackend{docs: make(map[string]map[string]any)})
}

func (m *memoryBackend) get(path string) (map[string]any, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fields, ok := m.docs[path]
	if !ok {
		return nil, false, nil
	}
	return cloneFields(fields), true, nil
}

func (m *memoryBackend) put(path string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = cloneFields(fields)
	return nil
}

func (m *memoryBackend) remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, path)
	return nil
}

func (m *memoryBackend) scan(collection string) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []domain.Document
	for path, fields := range m.docs {
		parent, id, ok := domain.SplitPath(path)
		if !ok || parent != collection {
			continue
		}
		docs = append(docs, domain.Document{Path: path, ID: id, Fields: cloneFields(fields)})
	}
	return docs, nil
}
