package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailOutcome is the final result of a confirmation delivery sequence.
type EmailOutcome string

const (
	EmailOutcomeSent   EmailOutcome = "sent"
	EmailOutcomeFailed EmailOutcome = "failed"
)

// EmailDeliveryLog is an append-only audit record. Exactly one entry is
// written per delivery attempt sequence — not per individual retry — and no
// entry is ever mutated or deleted.
type EmailDeliveryLog struct {
	ID             uuid.UUID    `json:"id"`
	RecipientEmail string       `json:"recipient_email"`
	Subject        string       `json:"subject"`
	Outcome        EmailOutcome `json:"outcome"`
	ErrorDetail    string       `json:"error_detail,omitempty"`
	RegistrationID uuid.UUID    `json:"registration_id"`
	SentAt         time.Time    `json:"sent_at"`
}
