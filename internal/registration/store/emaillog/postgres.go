package emaillog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"confreg/internal/registration/models"
)

// PostgresStore persists delivery log entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry *models.EmailDeliveryLog) error {
	query := `
		INSERT INTO email_logs (id, recipient_email, subject, outcome, error_detail, registration_id, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.RecipientEmail, entry.Subject, entry.Outcome,
		sql.NullString{String: entry.ErrorDetail, Valid: entry.ErrorDetail != ""},
		entry.RegistrationID, entry.SentAt,
	)
	if err != nil {
		return fmt.Errorf("insert email log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]*models.EmailDeliveryLog, error) {
	query := `
		SELECT id, recipient_email, subject, outcome, error_detail, registration_id, sent_at
		FROM email_logs
		WHERE registration_id = $1
		ORDER BY sent_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, registrationID)
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*models.EmailDeliveryLog, error) {
	query := `
		SELECT id, recipient_email, subject, outcome, error_detail, registration_id, sent_at
		FROM email_logs
		ORDER BY sent_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent email logs: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]*models.EmailDeliveryLog, error) {
	var out []*models.EmailDeliveryLog
	for rows.Next() {
		var entry models.EmailDeliveryLog
		var errDetail sql.NullString
		if err := rows.Scan(&entry.ID, &entry.RecipientEmail, &entry.Subject,
			&entry.Outcome, &errDetail, &entry.RegistrationID, &entry.SentAt); err != nil {
			return nil, fmt.Errorf("scan email log: %w", err)
		}
		entry.ErrorDetail = errDetail.String
		out = append(out, &entry)
	}
	return out, rows.Err()
}
