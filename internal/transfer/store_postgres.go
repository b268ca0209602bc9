package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crossgate/pkg/domain"
	"crossgate/pkg/platform/sentinel"
)

// PostgresSchema is the DDL the store expects; applied by migrations in
// deployment and by integration-test setup.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS transfers (
    id         UUID PRIMARY KEY,
    record     JSONB NOT NULL,
    version    BIGINT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore persists transfers as JSONB documents with a version column
// for optimistic concurrency.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Save(ctx context.Context, t *Transfer) error {
	copied, err := t.Clone()
	if err != nil {
		return err
	}
	copied.Version = t.Version + 1
	record, err := json.Marshal(copied)
	if err != nil {
		return fmt.Errorf("encode transfer: %w", err)
	}

	if t.Version == 0 {
		tag, err := s.pool.Exec(ctx, `
            INSERT INTO transfers (id, record, version, created_at)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (id) DO NOTHING
        `, t.ID.String(), record, copied.Version, t.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return sentinel.ErrConflict
		}
		t.Version = copied.Version
		return nil
	}

	tag, err := s.pool.Exec(ctx, `
        UPDATE transfers SET record = $2, version = $3
        WHERE id = $1 AND version = $4
    `, t.ID.String(), record, copied.Version, t.Version)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM transfers WHERE id = $1)`, t.ID.String(),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check transfer: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	t.Version = copied.Version
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id domain.TransferID) (*Transfer, error) {
	var record []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM transfers WHERE id = $1`, id.String(),
	).Scan(&record)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find transfer: %w", err)
	}
	var t Transfer
	if err := json.Unmarshal(record, &t); err != nil {
		return nil, fmt.Errorf("decode transfer: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Transfer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM transfers ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []*Transfer
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		var t Transfer
		if err := json.Unmarshal(record, &t); err != nil {
			return nil, fmt.Errorf("decode transfer: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
