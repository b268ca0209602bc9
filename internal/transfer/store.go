package transfer

import (
	"context"

	"crossgate/pkg/domain"
)

// Store persists transfers. Implementations enforce optimistic concurrency:
// Save with Version 0 creates the record; any other Version must match the
// stored record or the write fails with sentinel.ErrConflict. A successful
// save increments the caller's Version in place.
//
// Only the review orchestrator and the escalation service write transfers.
type Store interface {
	Save(ctx context.Context, t *Transfer) error
	Find(ctx context.Context, id domain.TransferID) (*Transfer, error)
	List(ctx context.Context) ([]*Transfer, error)
}
