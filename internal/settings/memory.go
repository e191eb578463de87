package settings

import (
	"context"
	"sync"

	"confreg/pkg/platform/sentinel"
)

// InMemoryStore is a map-backed settings store for tests and local runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	settings map[string]*Setting
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{settings: make(map[string]*Setting)}
}

func (s *InMemoryStore) Get(_ context.Context, key string) (*Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	setting, ok := s.settings[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *setting
	return &cp, nil
}

func (s *InMemoryStore) Set(_ context.Context, setting *Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *setting
	s.settings[setting.Key] = &cp
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Setting, 0, len(s.settings))
	for _, setting := range s.settings {
		cp := *setting
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.settings, key)
	return nil
}
