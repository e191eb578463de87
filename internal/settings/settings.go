// Package settings stores runtime-rotatable configuration, notably the
// payment gateway credentials and split code. Values marked encrypted are
// sealed at rest; the environment supplies fallbacks so a fresh deployment
// works before any override is persisted.
package settings

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Well-known setting keys.
const (
	KeyPaystackSecretKey = "paystack_secret_key"
	KeyPaystackPublicKey = "paystack_public_key"
	KeyPaystackSplitCode = "paystack_split_code"
)

// Setting is a persisted key/value pair. Value holds ciphertext when
// Encrypted is true.
type Setting struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	Encrypted   bool      `json:"encrypted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists settings. Upsert semantics: Set overwrites by key.
type Store interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, setting *Setting) error
	List(ctx context.Context) ([]*Setting, error)
	Delete(ctx context.Context, key string) error
}
