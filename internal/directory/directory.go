// Package directory resolves member profiles from the association's member
// directory. Registration is members-only, so creation consults this lookup
// before persisting anything. The directory schema is owned elsewhere; this
// package only needs a canonical profile back, or not-found.
package directory

import "context"

// Member is the canonical profile the directory returns for an email.
type Member struct {
	ID      string
	Email   string
	Name    string
	Chapter string
	Status  string
}

// Lookup resolves members by email. Lookups are case-insensitive on email.
type Lookup interface {
	// FindByEmail returns the canonical profile for the email, or
	// sentinel.ErrNotFound when the directory has no matching member.
	FindByEmail(ctx context.Context, email string) (*Member, error)
}
