package emaillog

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"confreg/internal/registration/models"
)

// InMemory is a slice-backed log store for tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	entries []*models.EmailDeliveryLog
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, entry *models.EmailDeliveryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *InMemory) ListByRegistration(_ context.Context, registrationID uuid.UUID) ([]*models.EmailDeliveryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.EmailDeliveryLog
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].RegistrationID == registrationID {
			cp := *s.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemory) ListRecent(_ context.Context, limit int) ([]*models.EmailDeliveryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.EmailDeliveryLog
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.entries[i]
		out = append(out, &cp)
	}
	return out, nil
}

// All returns every entry, oldest first. Test helper.
func (s *InMemory) All() []*models.EmailDeliveryLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.EmailDeliveryLog, 0, len(s.entries))
	for _, e := range s.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out
}
