package registration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"confreg/internal/registration/models"
	"confreg/pkg/platform/sentinel"
)

// PostgresStore persists registrations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registration store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const registrationColumns = `
	id, member_id, email, surname, first_name, other_names, age, sex, phone,
	chapter, category, years_in_practice,
	spouse_surname, spouse_first_name, spouse_other_names, spouse_email,
	date_of_arrival, accommodation_option,
	has_abstract, presentation_title, abstract_file_url,
	base_fee, late_fee, total_amount,
	payment_status, payment_reference, paid_at,
	attendance_verified, verified_at,
	created_at, updated_at
`

func (s *PostgresStore) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			$28, $29, $30, $31)
	`
	_, err := s.db.ExecContext(ctx, query,
		reg.ID, reg.MemberID, reg.Email, reg.Surname, reg.FirstName,
		nullIfEmpty(reg.OtherNames), reg.Age, reg.Sex, reg.Phone,
		reg.Chapter, reg.Category, nullIfEmpty(reg.YearsInPractice),
		nullIfEmpty(reg.SpouseSurname), nullIfEmpty(reg.SpouseFirstName),
		nullIfEmpty(reg.SpouseOtherNames), nullIfEmpty(reg.SpouseEmail),
		reg.DateOfArrival, reg.AccommodationOption,
		reg.HasAbstract, nullIfEmpty(reg.PresentationTitle), nullIfEmpty(reg.AbstractFileURL),
		reg.BaseFee, reg.LateFee, reg.TotalAmount,
		reg.PaymentStatus, reg.PaymentReference, reg.PaidAt,
		reg.AttendanceVerified, reg.VerifiedAt,
		reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) FindByReference(ctx context.Context, reference string) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE payment_reference = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, reference))
}

// MarkPaid is the single authoritative transition write. The status guard in
// the WHERE clause makes it a compare-and-swap: when two callers race past
// the service's idempotence check, only one sees a row updated.
func (s *PostgresStore) MarkPaid(ctx context.Context, id uuid.UUID, reference string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE registrations
		SET payment_status = $2, payment_reference = $3, paid_at = $4, updated_at = NOW()
		WHERE id = $1 AND payment_status <> $2
	`
	res, err := s.db.ExecContext(ctx, query, id, models.PaymentStatusPaid, reference, paidAt)
	if err != nil {
		return false, fmt.Errorf("mark registration paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark registration paid: rows affected: %w", err)
	}
	if affected == 0 {
		// Either the row is already paid or it does not exist; distinguish so
		// the service can treat the former as an idempotent no-op.
		if _, err := s.FindByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *PostgresStore) List(ctx context.Context, filters Filters) ([]*models.Registration, error) {
	var conditions []string
	var args []any

	if filters.PaymentStatus != "" {
		args = append(args, filters.PaymentStatus)
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR surname ILIKE $%d OR first_name ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + registrationColumns + ` FROM registrations`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE payment_status = 'paid'),
			COUNT(*) FILTER (WHERE payment_status = 'pending'),
			COUNT(*) FILTER (WHERE payment_status = 'abandoned'),
			COALESCE(SUM(total_amount) FILTER (WHERE payment_status = 'paid'), 0)
		FROM registrations
	`
	var stats Stats
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.Total, &stats.Paid, &stats.Pending, &stats.Abandoned, &stats.Revenue,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("registration stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) VerifyAttendance(ctx context.Context, id uuid.UUID, now time.Time) (*models.Registration, error) {
	query := `
		UPDATE registrations
		SET attendance_verified = TRUE, verified_at = $2, updated_at = $2
		WHERE id = $1 AND payment_status = 'paid'
		RETURNING ` + registrationColumns
	reg, err := s.scanOne(s.db.QueryRowContext(ctx, query, id, now))
	if errors.Is(err, sentinel.ErrNotFound) {
		// Unpaid rows are excluded by the WHERE clause; report the real cause.
		if _, findErr := s.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, sentinel.ErrInvalidState
	}
	return reg, err
}

func (s *PostgresStore) MarkAbandonedOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		UPDATE registrations
		SET payment_status = 'abandoned', updated_at = NOW()
		WHERE payment_status = 'pending' AND created_at < $1
	`
	res, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark abandoned: rows affected: %w", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row *sql.Row) (*models.Registration, error) {
	reg, err := scanRegistration(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var reg models.Registration
	var otherNames, yearsInPractice, spouseSurname, spouseFirstName,
		spouseOtherNames, spouseEmail, presentationTitle, abstractFileURL sql.NullString
	var paidAt, verifiedAt sql.NullTime

	err := row.Scan(
		&reg.ID, &reg.MemberID, &reg.Email, &reg.Surname, &reg.FirstName,
		&otherNames, &reg.Age, &reg.Sex, &reg.Phone,
		&reg.Chapter, &reg.Category, &yearsInPractice,
		&spouseSurname, &spouseFirstName, &spouseOtherNames, &spouseEmail,
		&reg.DateOfArrival, &reg.AccommodationOption,
		&reg.HasAbstract, &presentationTitle, &abstractFileURL,
		&reg.BaseFee, &reg.LateFee, &reg.TotalAmount,
		&reg.PaymentStatus, &reg.PaymentReference, &paidAt,
		&reg.AttendanceVerified, &verifiedAt,
		&reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}

	reg.OtherNames = otherNames.String
	reg.YearsInPractice = yearsInPractice.String
	reg.SpouseSurname = spouseSurname.String
	reg.SpouseFirstName = spouseFirstName.String
	reg.SpouseOtherNames = spouseOtherNames.String
	reg.SpouseEmail = spouseEmail.String
	reg.PresentationTitle = presentationTitle.String
	reg.AbstractFileURL = abstractFileURL.String
	if paidAt.Valid {
		t := paidAt.Time
		reg.PaidAt = &t
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		reg.VerifiedAt = &t
	}
	return &reg, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
