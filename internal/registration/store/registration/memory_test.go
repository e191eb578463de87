package registration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"confreg/internal/registration/models"
	"confreg/pkg/platform/sentinel"
)

type RegistrationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *RegistrationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestRegistrationStoreSuite(t *testing.T) {
	suite.Run(t, new(RegistrationStoreSuite))
}

func (s *RegistrationStoreSuite) newRegistration(reference string) *models.Registration {
	now := time.Now()
	return &models.Registration{
		ID:               uuid.New(),
		MemberID:         "m-1",
		Email:            "attendee@example.org",
		Surname:          "Okafor",
		FirstName:        "Ada",
		Category:         models.CategoryStudent,
		BaseFee:          11000,
		TotalAmount:      11000,
		PaymentStatus:    models.PaymentStatusPending,
		PaymentReference: reference,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *RegistrationStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds by ID and reference", func() {
		reg := s.newRegistration("CONF-1-abc")
		s.Require().NoError(s.store.Create(s.ctx, reg))

		found, err := s.store.FindByID(s.ctx, reg.ID)
		s.Require().NoError(err)
		s.Equal(reg.Email, found.Email)

		found, err = s.store.FindByReference(s.ctx, "CONF-1-abc")
		s.Require().NoError(err)
		s.Equal(reg.ID, found.ID)
	})

	s.Run("returns ErrNotFound for unknown reference", func() {
		_, err := s.store.FindByReference(s.ctx, "CONF-0-missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate ID", func() {
		reg := s.newRegistration("CONF-2-dup")
		s.Require().NoError(s.store.Create(s.ctx, reg))
		s.Require().ErrorIs(s.store.Create(s.ctx, reg), sentinel.ErrConflict)
	})
}

func (s *RegistrationStoreSuite) TestMarkPaid() {
	s.Run("first call transitions, second is a no-op", func() {
		reg := s.newRegistration("CONF-3-pay")
		s.Require().NoError(s.store.Create(s.ctx, reg))
		paidAt := time.Now()

		transitioned, err := s.store.MarkPaid(s.ctx, reg.ID, reg.PaymentReference, paidAt)
		s.Require().NoError(err)
		s.True(transitioned)

		transitioned, err = s.store.MarkPaid(s.ctx, reg.ID, reg.PaymentReference, paidAt)
		s.Require().NoError(err)
		s.False(transitioned)

		found, err := s.store.FindByID(s.ctx, reg.ID)
		s.Require().NoError(err)
		s.Equal(models.PaymentStatusPaid, found.PaymentStatus)
		s.Require().NotNil(found.PaidAt)
		s.WithinDuration(paidAt, *found.PaidAt, time.Second)
	})

	s.Run("concurrent callers observe exactly one transition", func() {
		reg := s.newRegistration("CONF-4-race")
		s.Require().NoError(s.store.Create(s.ctx, reg))

		const callers = 32
		var wg sync.WaitGroup
		results := make(chan bool, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				transitioned, err := s.store.MarkPaid(s.ctx, reg.ID, reg.PaymentReference, time.Now())
				s.NoError(err)
				results <- transitioned
			}()
		}
		wg.Wait()
		close(results)

		var winners int
		for transitioned := range results {
			if transitioned {
				winners++
			}
		}
		s.Equal(1, winners)
	})

	s.Run("assigns reference for metadata-fallback resolution", func() {
		reg := s.newRegistration("CONF-5-local")
		s.Require().NoError(s.store.Create(s.ctx, reg))

		_, err := s.store.MarkPaid(s.ctx, reg.ID, "GW-external-ref", time.Now())
		s.Require().NoError(err)

		found, err := s.store.FindByReference(s.ctx, "GW-external-ref")
		s.Require().NoError(err)
		s.Equal(reg.ID, found.ID)
	})

	s.Run("returns ErrNotFound for unknown registration", func() {
		_, err := s.store.MarkPaid(s.ctx, uuid.New(), "CONF-6-none", time.Now())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *RegistrationStoreSuite) TestListAndStats() {
	paid := s.newRegistration("CONF-7-a")
	paid.Category = models.CategoryDoctor
	paid.TotalAmount = 50000
	s.Require().NoError(s.store.Create(s.ctx, paid))
	_, err := s.store.MarkPaid(s.ctx, paid.ID, paid.PaymentReference, time.Now())
	s.Require().NoError(err)

	pending := s.newRegistration("CONF-7-b")
	s.Require().NoError(s.store.Create(s.ctx, pending))

	s.Run("filters by status", func() {
		regs, err := s.store.List(s.ctx, Filters{PaymentStatus: models.PaymentStatusPaid})
		s.Require().NoError(err)
		s.Len(regs, 1)
		s.Equal(paid.ID, regs[0].ID)
	})

	s.Run("searches by name", func() {
		regs, err := s.store.List(s.ctx, Filters{Search: "okafor"})
		s.Require().NoError(err)
		s.Len(regs, 2)
	})

	s.Run("stats count statuses and paid revenue only", func() {
		stats, err := s.store.Stats(s.ctx)
		s.Require().NoError(err)
		s.Equal(2, stats.Total)
		s.Equal(1, stats.Paid)
		s.Equal(1, stats.Pending)
		s.Equal(50000, stats.Revenue)
	})
}

func (s *RegistrationStoreSuite) TestVerifyAttendance() {
	s.Run("rejects unpaid registration", func() {
		reg := s.newRegistration("CONF-8-a")
		s.Require().NoError(s.store.Create(s.ctx, reg))

		_, err := s.store.VerifyAttendance(s.ctx, reg.ID, time.Now())
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("flags paid registration", func() {
		reg := s.newRegistration("CONF-8-b")
		s.Require().NoError(s.store.Create(s.ctx, reg))
		_, err := s.store.MarkPaid(s.ctx, reg.ID, reg.PaymentReference, time.Now())
		s.Require().NoError(err)

		verified, err := s.store.VerifyAttendance(s.ctx, reg.ID, time.Now())
		s.Require().NoError(err)
		s.True(verified.AttendanceVerified)
		s.NotNil(verified.VerifiedAt)
	})
}

func (s *RegistrationStoreSuite) TestMarkAbandonedOlderThan() {
	stale := s.newRegistration("CONF-9-a")
	stale.CreatedAt = time.Now().Add(-72 * time.Hour)
	s.Require().NoError(s.store.Create(s.ctx, stale))

	fresh := s.newRegistration("CONF-9-b")
	s.Require().NoError(s.store.Create(s.ctx, fresh))

	n, err := s.store.MarkAbandonedOlderThan(s.ctx, time.Now().Add(-48*time.Hour))
	s.Require().NoError(err)
	s.Equal(1, n)

	found, err := s.store.FindByID(s.ctx, stale.ID)
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusAbandoned, found.PaymentStatus)

	found, err = s.store.FindByID(s.ctx, fresh.ID)
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusPending, found.PaymentStatus)
}
