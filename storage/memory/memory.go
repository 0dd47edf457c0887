// Package memory is an in-process snapshot store. Snapshots do not outlive
// the process.
package memory

import (
	"context"
	"sync"

	"github.com/nathoo/monovoice/storage"
)

// Store keeps snapshots in a map.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{data: map[string][]byte{}}
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	key, err := storage.CheckKey(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) Save(_ context.Context, key string, data []byte) error {
	key, err := storage.CheckKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	return nil
}

func (s *Store) Close() error { return nil }
