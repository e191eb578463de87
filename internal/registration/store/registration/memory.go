package registration

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"confreg/internal/registration/models"
	"confreg/pkg/platform/sentinel"
)

// InMemory is a map-backed store for tests and local development. MarkPaid
// holds the write lock across the check-and-set so it gives the same
// exactly-one-transition guarantee as the Postgres conditional UPDATE.
type InMemory struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*models.Registration
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[uuid.UUID]*models.Registration)}
}

func (s *InMemory) Create(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[reg.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *reg
	s.byID[reg.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (s *InMemory) FindByReference(_ context.Context, reference string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, reg := range s.byID {
		if reg.PaymentReference == reference {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) MarkPaid(_ context.Context, id uuid.UUID, reference string, paidAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.byID[id]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if reg.PaymentStatus == models.PaymentStatusPaid {
		return false, nil
	}
	reg.PaymentStatus = models.PaymentStatusPaid
	reg.PaymentReference = reference
	paid := paidAt
	reg.PaidAt = &paid
	reg.UpdatedAt = time.Now()
	return true, nil
}

func (s *InMemory) List(_ context.Context, filters Filters) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Registration
	for _, reg := range s.byID {
		if filters.PaymentStatus != "" && reg.PaymentStatus != filters.PaymentStatus {
			continue
		}
		if filters.Category != "" && reg.Category != filters.Category {
			continue
		}
		if filters.Search != "" && !matchesSearch(reg, filters.Search) {
			continue
		}
		cp := *reg
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func matchesSearch(reg *models.Registration, search string) bool {
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(reg.Email), needle) ||
		strings.Contains(strings.ToLower(reg.Surname), needle) ||
		strings.Contains(strings.ToLower(reg.FirstName), needle)
}

func (s *InMemory) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	for _, reg := range s.byID {
		stats.Total++
		switch reg.PaymentStatus {
		case models.PaymentStatusPaid:
			stats.Paid++
			stats.Revenue += reg.TotalAmount
		case models.PaymentStatusPending:
			stats.Pending++
		case models.PaymentStatusAbandoned:
			stats.Abandoned++
		}
	}
	return stats, nil
}

func (s *InMemory) VerifyAttendance(_ context.Context, id uuid.UUID, now time.Time) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if reg.PaymentStatus != models.PaymentStatusPaid {
		return nil, sentinel.ErrInvalidState
	}
	reg.AttendanceVerified = true
	verified := now
	reg.VerifiedAt = &verified
	reg.UpdatedAt = now
	cp := *reg
	return &cp, nil
}

func (s *InMemory) MarkAbandonedOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, reg := range s.byID {
		if reg.PaymentStatus == models.PaymentStatusPending && reg.CreatedAt.Before(cutoff) {
			reg.PaymentStatus = models.PaymentStatusAbandoned
			reg.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}
