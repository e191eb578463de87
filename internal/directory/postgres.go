package directory

import (
	"context"
	"database/sql"
	"fmt"

	"confreg/pkg/platform/sentinel"
)

// Postgres reads member profiles from a replicated members table. The member
// directory itself lives in another system; this table is a read-only sync
// target, which is why the store never writes to it.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (d *Postgres) FindByEmail(ctx context.Context, email string) (*Member, error) {
	query := `
		SELECT id, email, name, chapter, status
		FROM members
		WHERE LOWER(email) = LOWER($1)
	`
	var m Member
	err := d.db.QueryRowContext(ctx, query, email).Scan(&m.ID, &m.Email, &m.Name, &m.Chapter, &m.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find member by email: %w", err)
	}
	return &m, nil
}
