package evidence

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

// PostgresSchema is the DDL the store expects. The transfer_id column is the
// explicit secondary index replacing keyspace scans.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS evidence (
    id          UUID PRIMARY KEY,
    transfer_id UUID NOT NULL,
    record      JSONB NOT NULL,
    version     BIGINT NOT NULL,
    uploaded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS evidence_transfer_idx ON evidence (transfer_id)`

// PostgresStore persists evidence as JSONB documents.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Save(ctx context.Context, e *Evidence) error {
	copied, err := e.Clone()
	if err != nil {
		return err
	}
	copied.Version = e.Version + 1
	record, err := json.Marshal(copied)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}

	if e.Version == 0 {
		tag, err := s.pool.Exec(ctx, `
            INSERT INTO evidence (id, transfer_id, record, version, uploaded_at)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (id) DO NOTHING
        `, e.ID.String(), e.TransferID.String(), record, copied.Version, e.UploadedAt)
		if err != nil {
			return fmt.Errorf("insert evidence: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return sentinel.ErrConflict
		}
		e.Version = copied.Version
		return nil
	}

	tag, err := s.pool.Exec(ctx, `
        UPDATE evidence SET record = $2, version = $3
        WHERE id = $1 AND version = $4
    `, e.ID.String(), record, copied.Version, e.Version)
	if err != nil {
		return fmt.Errorf("update evidence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM evidence WHERE id = $1)`, e.ID.String(),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check evidence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	e.Version = copied.Version
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id domain.EvidenceID) (*Evidence, error) {
	var record []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM evidence WHERE id = $1`, id.String(),
	).Scan(&record)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find evidence: %w", err)
	}
	var e Evidence
	if err := json.Unmarshal(record, &e); err != nil {
		return nil, fmt.Errorf("decode evidence: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) ListByTransfer(ctx context.Context, transferID domain.TransferID) ([]*Evidence, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT record FROM evidence
        WHERE transfer_id = $1
        ORDER BY uploaded_at ASC
    `, transferID.String())
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	var out []*Evidence
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		var e Evidence
		if err := json.Unmarshal(record, &e); err != nil {
			return nil, fmt.Errorf("decode evidence: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
