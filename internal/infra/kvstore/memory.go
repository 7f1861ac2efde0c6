package kvstore

import (
	"context"
	"strings"
	"sync"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
)

// MemoryStore — реализация domain.KVStore в памяти. Используется в
// тестах и в офлайн-запуске без Redis.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ domain.KVStore = (*MemoryStore)(nil)

// NewMemory создаёт пустое хранилище.
func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get возвращает значение ключа.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return cp, nil
}

// Set задаёт значение ключа.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[key] = cp
	return nil
}

// Delete удаляет ключ.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// DeleteByPrefix удаляет все ключи с данным префиксом.
func (s *MemoryStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			delete(s.data, key)
		}
	}
	return nil
}
