package evidence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossgate/internal/transfer"
	"crossgate/pkg/domain"
	"crossgate/pkg/platform/sentinel"
)

func newItem(transferID domain.TransferID, filename string) *Evidence {
	return &Evidence{
		ID:            domain.NewEvidenceID(),
		TransferID:    transferID,
		RequirementID: domain.NewRequirementID(),
		Filename:      filename,
		Size:          1024,
		UploadedBy:    "analyst-1",
		UploadedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Status:        transfer.ReviewPending,
	}
}

func TestInMemoryStoreSaveAndFind(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	transferID := domain.NewTransferID()

	item := newItem(transferID, "scc-annex.pdf")
	require.NoError(t, store.Save(ctx, item))
	assert.Equal(t, int64(1), item.Version)

	found, err := store.Find(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item, found)
}

func TestInMemoryStoreStaleVersionConflicts(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	item := newItem(domain.NewTransferID(), "scc-annex.pdf")
	require.NoError(t, store.Save(ctx, item))

	stale, err := item.Clone()
	require.NoError(t, err)
	item.Status = transfer.ReviewApproved
	require.NoError(t, store.Save(ctx, item))

	stale.Status = transfer.ReviewRejected
	assert.ErrorIs(t, store.Save(ctx, stale), sentinel.ErrConflict)
}

func TestInMemoryStoreListByTransfer(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	transferID := domain.NewTransferID()
	other := domain.NewTransferID()

	first := newItem(transferID, "scc-annex.pdf")
	second := newItem(transferID, "dpia.pdf")
	second.UploadedAt = first.UploadedAt.Add(time.Minute)
	unrelated := newItem(other, "other.pdf")
	for _, item := range []*Evidence{first, second, unrelated} {
		require.NoError(t, store.Save(ctx, item))
	}

	items, err := store.ListByTransfer(ctx, transferID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "scc-annex.pdf", items[0].Filename)
	assert.Equal(t, "dpia.pdf", items[1].Filename)

	empty, err := store.ListByTransfer(ctx, domain.NewTransferID())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInMemoryStoreFindMissing(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Find(context.Background(), domain.NewEvidenceID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
