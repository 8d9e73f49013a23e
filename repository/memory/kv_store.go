package memory

import (
	"context"
	"sync"
)

type KeyValueStore struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewKeyValueStore() *KeyValueStore {
	return &KeyValueStore{
		items: make(map[string]string),
	}
}

func (s *KeyValueStore) GetItem(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	return value, ok, nil
}

func (s *KeyValueStore) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *KeyValueStore) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
