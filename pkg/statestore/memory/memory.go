// Package memory provides the in-memory state store used by tests.
package memory

import (
	"context"
	"sync"

	"github.com/striderun/stride/pkg/statestore"
)

type Store struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]any
}

func NewStore() *Store {
	return &Store{
		namespaces: make(map[string]map[string]any),
	}
}

func (s *Store) Get(_ context.Context, namespace, key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.namespaces[namespace]
	if !ok {
		return nil, statestore.ErrKeyNotFound
	}

	value, ok := entries[key]
	if !ok {
		return nil, statestore.ErrKeyNotFound
	}

	return value, nil
}

func (s *Store) Set(_ context.Context, namespace, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.namespaces[namespace]
	if !ok {
		entries = make(map[string]any)
		s.namespaces[namespace] = entries
	}

	entries[key] = value

	return nil
}

func (s *Store) Delete(_ context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entries, ok := s.namespaces[namespace]; ok {
		delete(entries, key)
	}

	return nil
}

func (s *Store) Clear(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.namespaces, namespace)

	return nil
}

func (s *Store) GetAll(_ context.Context, namespace string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.namespaces[namespace]))
	for key, value := range s.namespaces[namespace] {
		out[key] = value
	}

	return out, nil
}

var _ statestore.Store = (*Store)(nil)
