package audit

import (
	"context"

	"crossgate/pkg/domain"
)

// Store is the append-only persistence contract for the audit trail. There is
// deliberately no update or delete method. ListByTransfer returns entries
// ordered by PerformedAt ascending, the display order.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByTransfer(ctx context.Context, transferID domain.TransferID) ([]Entry, error)
}
