package evidence

import (
	"context"

	"crossgate/pkg/domain"
)

// Store persists evidence records. Save semantics match transfer.Store:
// Version 0 creates, any other Version must match or the write fails with
// sentinel.ErrConflict.
//
// ListByTransfer is served from an explicit transfer → evidence index
// maintained alongside every write; no implementation scans the keyspace.
type Store interface {
	Save(ctx context.Context, e *Evidence) error
	Find(ctx context.Context, id domain.EvidenceID) (*Evidence, error)
	ListByTransfer(ctx context.Context, transferID domain.TransferID) ([]*Evidence, error)
}
