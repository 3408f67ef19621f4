package service

import (
	"context"
	"sync"

	"setup_scanner/internal/models"
)

// Store: долговременное хранилище AlertRecord. Ключ — AlertKey.String().
type Store interface {
	Load(ctx context.Context) ([]models.AlertRecord, error)
	Put(ctx context.Context, rec models.AlertRecord) error
	Delete(ctx context.Context, key models.AlertKey) error
	Close() error
}

// MemoryStore: Store без персистентности, для тестов и backend=memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]models.AlertRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]models.AlertRecord)}
}

func (m *MemoryStore) Load(context.Context) ([]models.AlertRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AlertRecord, 0, len(m.data))
	for _, r := range m.data {
		out = append(out, r)
	}
	return out, nil
}

func (m *MemoryStore) Put(_ context.Context, rec models.AlertRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[rec.Key.String()] = rec
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key models.AlertKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key.String())
	return nil
}

func (m *MemoryStore) Close() error { return nil }
