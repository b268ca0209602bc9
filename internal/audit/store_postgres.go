package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"crossgate/pkg/domain"
)

// PostgresSchema is the DDL the store expects. The table is insert-only;
// nothing in the engine updates or deletes rows.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
    id           UUID PRIMARY KEY,
    transfer_id  UUID NOT NULL,
    entry        JSONB NOT NULL,
    performed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_transfer_idx ON audit_entries (transfer_id, performed_at)`

// PostgresStore persists audit entries via database/sql. It pairs with the
// Kafka stream publisher: the table is the queryable system of record, the
// stream feeds downstream compliance consumers.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO audit_entries (id, transfer_id, entry, performed_at)
        VALUES ($1, $2, $3, $4)
    `, entry.ID.String(), entry.TransferID.String(), payload, entry.PerformedAt)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTransfer(ctx context.Context, transferID domain.TransferID) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT entry FROM audit_entries
        WHERE transfer_id = $1
        ORDER BY performed_at ASC
    `, transferID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit trail: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		var entry Entry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
