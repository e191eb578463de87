// Package registration persists Registration rows. The store is pure I/O;
// lifecycle rules live in the service. The one piece of coordination logic
// that does live here is MarkPaid's conditional write, because correctness
// across independent processes can only be enforced at the storage layer.
package registration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"confreg/internal/registration/models"
)

// Filters narrows List results. Zero values mean "no filter".
type Filters struct {
	PaymentStatus models.PaymentStatus
	Category      models.Category
	// Search matches email, surname, or first name, case-insensitively.
	Search string
}

// Stats summarizes registrations for the admin dashboard.
type Stats struct {
	Total     int `json:"total"`
	Paid      int `json:"paid"`
	Pending   int `json:"pending"`
	Abandoned int `json:"abandoned"`
	Revenue   int `json:"revenue"`
}

// Store is the durable record of registrations, keyed by internal ID and by
// payment reference.
type Store interface {
	// Create persists a new registration atomically.
	Create(ctx context.Context, reg *models.Registration) error

	// FindByID returns the registration or sentinel.ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)

	// FindByReference looks up by payment reference.
	FindByReference(ctx context.Context, reference string) (*models.Registration, error)

	// MarkPaid performs the single authoritative paid transition. The write
	// is conditioned on the row not already being paid, so when concurrent
	// callers race, exactly one observes transitioned=true. The reference is
	// written in the same statement to cover the gateway-metadata fallback,
	// where the registration was resolved by ID and the externally confirmed
	// reference is assigned here.
	MarkPaid(ctx context.Context, id uuid.UUID, reference string, paidAt time.Time) (transitioned bool, err error)

	// List returns registrations matching the filters, newest first.
	List(ctx context.Context, filters Filters) ([]*models.Registration, error)

	// Stats aggregates counts and paid revenue.
	Stats(ctx context.Context) (Stats, error)

	// VerifyAttendance flags a paid registration as checked in. Returns
	// sentinel.ErrInvalidState when the registration is not paid.
	VerifyAttendance(ctx context.Context, id uuid.UUID, now time.Time) (*models.Registration, error)

	// MarkAbandonedOlderThan reclassifies pending registrations created
	// before the cutoff. Administrative sweep only; the reconciliation core
	// never calls it. Returns the number of rows reclassified.
	MarkAbandonedOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
