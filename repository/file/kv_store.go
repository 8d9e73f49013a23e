package file

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// KeyValueStore keeps every item in its own file under dir. Writes go through
// a temp file and a rename, so a crash never leaves a half-written value.
type KeyValueStore struct {
	mu  sync.Mutex
	dir string
}

func NewKeyValueStore(dir string) (*KeyValueStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("can't create storage directory: %w", err)
	}
	return &KeyValueStore{dir: dir}, nil
}

func (s *KeyValueStore) path(key string) string {
	return filepath.Join(s.dir, hex.EncodeToString([]byte(key))+".json")
}

func (s *KeyValueStore) GetItem(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("can't read item file: %w", err)
	}
	return string(blob), true, nil
}

func (s *KeyValueStore) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".item-*")
	if err != nil {
		return fmt.Errorf("can't create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("can't write temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("can't close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("can't replace item file: %w", err)
	}
	return nil
}

func (s *KeyValueStore) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("can't remove item file: %w", err)
	}
	return nil
}
