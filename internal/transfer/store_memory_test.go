package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossgate/pkg/domain"
	"crossgate/pkg/platform/sentinel"
)

func newStoredTransfer(t *testing.T, store *InMemoryStore) *Transfer {
	t.Helper()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tr := &Transfer{
		ID:           domain.NewTransferID(),
		CreatedBy:    "analyst-1",
		CreatedAt:    now,
		Jurisdiction: "DE",
		Status:       StatusPending,
		Requirements: []Requirement{
			{ID: domain.NewRequirementID(), Name: "SCC annex", Status: ReviewPending, CreatedAt: now, UpdatedAt: now},
		},
		Submission: SubmissionState{Status: ReviewPending},
	}
	require.NoError(t, store.Save(context.Background(), tr))
	return tr
}

func TestInMemoryStoreCreateAssignsVersion(t *testing.T) {
	store := NewInMemoryStore()
	tr := newStoredTransfer(t, store)
	assert.Equal(t, int64(1), tr.Version)
}

func TestInMemoryStoreCreateTwiceConflicts(t *testing.T) {
	store := NewInMemoryStore()
	tr := newStoredTransfer(t, store)

	dup, err := tr.Clone()
	require.NoError(t, err)
	dup.Version = 0
	assert.ErrorIs(t, store.Save(context.Background(), dup), sentinel.ErrConflict)
}

func TestInMemoryStoreVersionedUpdate(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	tr := newStoredTransfer(t, store)

	tr.Status = StatusActive
	require.NoError(t, store.Save(ctx, tr))
	assert.Equal(t, int64(2), tr.Version)

	stale, err := tr.Clone()
	require.NoError(t, err)
	stale.Version = 1
	assert.ErrorIs(t, store.Save(ctx, stale), sentinel.ErrConflict)
}

func TestInMemoryStoreUpdateMissingRecord(t *testing.T) {
	store := NewInMemoryStore()
	tr := &Transfer{ID: domain.NewTransferID(), Version: 2}
	assert.ErrorIs(t, store.Save(context.Background(), tr), sentinel.ErrNotFound)
}

func TestInMemoryStoreFindReturnsCopy(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	tr := newStoredTransfer(t, store)

	found, err := store.Find(ctx, tr.ID)
	require.NoError(t, err)
	found.Requirements[0].Status = ReviewApproved

	again, err := store.Find(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, ReviewPending, again.Requirements[0].Status)
}

func TestInMemoryStoreFindMissing(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Find(context.Background(), domain.NewTransferID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStoreListOrderedByCreation(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	first := newStoredTransfer(t, store)
	second := &Transfer{
		ID:        domain.NewTransferID(),
		CreatedBy: "analyst-2",
		CreatedAt: first.CreatedAt.Add(time.Hour),
		Status:    StatusPending,
	}
	require.NoError(t, store.Save(ctx, second))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
}
