package directory

import (
	"context"
	"strings"
	"sync"

	"confreg/pkg/platform/sentinel"
)

// InMemory is a map-backed directory for tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	members map[string]Member // keyed by lowercased email
}

func NewInMemory() *InMemory {
	return &InMemory{members: make(map[string]Member)}
}

// Add registers a member profile, keyed case-insensitively by email.
func (d *InMemory) Add(m Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members[strings.ToLower(m.Email)] = m
}

func (d *InMemory) FindByEmail(_ context.Context, email string) (*Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.members[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &m, nil
}
