package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"confreg/pkg/platform/sentinel"
)

// PostgresStore persists settings in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*Setting, error) {
	query := `
		SELECT id, key, value, description, encrypted, created_at, updated_at
		FROM app_settings
		WHERE key = $1
	`
	var setting Setting
	var value, description sql.NullString
	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&setting.ID, &setting.Key, &value, &description,
		&setting.Encrypted, &setting.CreatedAt, &setting.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}
	setting.Value = value.String
	setting.Description = description.String
	return &setting, nil
}

func (s *PostgresStore) Set(ctx context.Context, setting *Setting) error {
	query := `
		INSERT INTO app_settings (id, key, value, description, encrypted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			description = EXCLUDED.description,
			encrypted = EXCLUDED.encrypted,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		setting.ID, setting.Key,
		sql.NullString{String: setting.Value, Valid: setting.Value != ""},
		sql.NullString{String: setting.Description, Valid: setting.Description != ""},
		setting.Encrypted, setting.CreatedAt, setting.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Setting, error) {
	query := `
		SELECT id, key, value, description, encrypted, created_at, updated_at
		FROM app_settings
		ORDER BY key
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var out []*Setting
	for rows.Next() {
		var setting Setting
		var value, description sql.NullString
		if err := rows.Scan(&setting.ID, &setting.Key, &value, &description,
			&setting.Encrypted, &setting.CreatedAt, &setting.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		setting.Value = value.String
		setting.Description = description.String
		out = append(out, &setting)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM app_settings WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	return nil
}
