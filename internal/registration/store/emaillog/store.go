// Package emaillog persists the append-only email delivery audit trail.
package emaillog

import (
	"context"

	"github.com/google/uuid"

	"confreg/internal/registration/models"
)

// Store appends and lists delivery log entries. Entries are never mutated or
// deleted; one entry covers a whole delivery attempt sequence.
type Store interface {
	Append(ctx context.Context, entry *models.EmailDeliveryLog) error
	ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]*models.EmailDeliveryLog, error)
	ListRecent(ctx context.Context, limit int) ([]*models.EmailDeliveryLog, error)
}
