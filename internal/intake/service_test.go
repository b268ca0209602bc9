package intake

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossgate/internal/evidence"
	"crossgate/internal/transfer"
	"crossgate/pkg/domain"
	dErrors "crossgate/pkg/domain-errors"
	"crossgate/pkg/testutil"
)

func newTestService(t *testing.T) (*Service, *transfer.InMemoryStore, *evidence.InMemoryStore) {
	t.Helper()
	transfers := transfer.NewInMemoryStore()
	evidenceStore := evidence.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(transfers, evidenceStore, logger)
	require.NoError(t, err)
	return svc, transfers, evidenceStore
}

func TestCreateTransfer(t *testing.T) {
	svc, transfers, _ := newTestService(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := testutil.Context("analyst-1", "Analyst", now)

	got, err := svc.CreateTransfer(ctx, CreateTransferRequest{
		Jurisdiction: "DE",
		Entity:       "acme-gmbh",
		SubjectType:  "employee",
		Requirements: []string{"SCC annex", "DPIA"},
	})
	require.NoError(t, err)

	assert.False(t, got.ID.IsNil())
	assert.Equal(t, "analyst-1", got.CreatedBy)
	assert.Equal(t, now, got.CreatedAt)
	assert.Equal(t, transfer.StatusPending, got.Status)
	assert.Equal(t, transfer.ReviewPending, got.Submission.Status)
	require.Len(t, got.Requirements, 2)
	for _, req := range got.Requirements {
		assert.False(t, req.ID.IsNil())
		assert.Equal(t, transfer.ReviewPending, req.Status)
	}

	stored, err := transfers.Find(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, got.ID, stored.ID)
}

func TestCreateTransferValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := testutil.Context("analyst-1", "Analyst", now)

	cases := []struct {
		name string
		req  CreateTransferRequest
	}{
		{"missing jurisdiction", CreateTransferRequest{Requirements: []string{"SCC annex"}}},
		{"no requirements", CreateTransferRequest{Jurisdiction: "DE"}},
		{"empty requirement name", CreateTransferRequest{Jurisdiction: "DE", Requirements: []string{""}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTransfer(ctx, tc.req)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}

	anonymous := testutil.Context("", "", now)
	_, err := svc.CreateTransfer(anonymous, CreateTransferRequest{
		Jurisdiction: "DE",
		Requirements: []string{"SCC annex"},
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestRegisterEvidence(t *testing.T) {
	svc, _, evidenceStore := newTestService(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := testutil.Context("analyst-1", "Analyst", now)

	created, err := svc.CreateTransfer(ctx, CreateTransferRequest{
		Jurisdiction: "DE",
		Requirements: []string{"SCC annex"},
	})
	require.NoError(t, err)

	item, err := svc.RegisterEvidence(ctx, RegisterEvidenceRequest{
		TransferID:    created.ID,
		RequirementID: created.Requirements[0].ID,
		Filename:      "scc-annex.pdf",
		Size:          4096,
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, item.TransferID)
	assert.Equal(t, transfer.ReviewPending, item.Status)
	assert.Equal(t, "analyst-1", item.UploadedBy)
	assert.Equal(t, now, item.UploadedAt)

	listed, err := evidenceStore.ListByTransfer(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, item.ID, listed[0].ID)
}

func TestRegisterEvidenceUnknownTargets(t *testing.T) {
	svc, _, _ := newTestService(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := testutil.Context("analyst-1", "Analyst", now)

	_, err := svc.RegisterEvidence(ctx, RegisterEvidenceRequest{
		TransferID:    domain.NewTransferID(),
		RequirementID: domain.NewRequirementID(),
		Filename:      "scc-annex.pdf",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	created, err := svc.CreateTransfer(ctx, CreateTransferRequest{
		Jurisdiction: "DE",
		Requirements: []string{"SCC annex"},
	})
	require.NoError(t, err)

	_, err = svc.RegisterEvidence(ctx, RegisterEvidenceRequest{
		TransferID:    created.ID,
		RequirementID: domain.NewRequirementID(),
		Filename:      "scc-annex.pdf",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
