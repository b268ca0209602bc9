package review

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"crossgate/internal/audit"
	"crossgate/internal/evidence"
	"crossgate/internal/notify"
	"crossgate/internal/transfer"
	"crossgate/pkg/domain"
	dErrors "crossgate/pkg/domain-errors"
	"crossgate/pkg/testutil"
)

type ReviewServiceSuite struct {
	suite.Suite

	transfers *transfer.InMemoryStore
	evidence  *evidence.InMemoryStore
	auditor   *audit.Publisher
	notifier  *recordingNotifier
	service   *Service

	now time.Time
	ctx context.Context
}

type recordingNotifier struct {
	sent []notify.Notification
}

func (n *recordingNotifier) Dispatch(_ context.Context, msg notify.Notification) error {
	n.sent = append(n.sent, msg)
	return nil
}

func TestReviewServiceSuite(t *testing.T) {
	suite.Run(t, new(ReviewServiceSuite))
}

func (s *ReviewServiceSuite) SetupTest() {
	s.transfers = transfer.NewInMemoryStore()
	s.evidence = evidence.NewInMemoryStore()
	s.auditor = audit.NewPublisher(audit.NewInMemoryStore())
	s.notifier = &recordingNotifier{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(s.transfers, s.evidence, s.auditor, s.notifier, nil, logger)
	s.Require().NoError(err)
	s.service = svc

	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = testutil.Context("admin-1", "Admin", s.now)
}

func (s *ReviewServiceSuite) seedTransfer(requirements ...string) *transfer.Transfer {
	if len(requirements) == 0 {
		requirements = []string{"SCC annex"}
	}
	t := &transfer.Transfer{
		ID:           domain.NewTransferID(),
		CreatedBy:    "analyst-1",
		CreatedAt:    s.now.Add(-time.Hour),
		Jurisdiction: "DE",
		Status:       transfer.StatusPending,
		Submission:   transfer.SubmissionState{Status: transfer.ReviewPending},
	}
	for _, name := range requirements {
		t.Requirements = append(t.Requirements, transfer.Requirement{
			ID:        domain.NewRequirementID(),
			Name:      name,
			Status:    transfer.ReviewPending,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.CreatedAt,
		})
	}
	s.Require().NoError(s.transfers.Save(s.ctx, t))
	return t
}

func (s *ReviewServiceSuite) seedEvidence(t *transfer.Transfer, filename string) *evidence.Evidence {
	item := &evidence.Evidence{
		ID:            domain.NewEvidenceID(),
		TransferID:    t.ID,
		RequirementID: t.Requirements[0].ID,
		Filename:      filename,
		Size:          2048,
		UploadedBy:    t.CreatedBy,
		UploadedAt:    t.CreatedAt,
		Status:        transfer.ReviewPending,
	}
	s.Require().NoError(s.evidence.Save(s.ctx, item))
	return item
}

func (s *ReviewServiceSuite) TestApproveDecidesAllRequirements() {
	seeded := s.seedTransfer("SCC annex", "DPIA", "Retention schedule")

	got, err := s.service.Submit(s.ctx, SubmitRequest{
		TransferID: seeded.ID,
		Decision:   transfer.DecisionApprove,
		Comments:   "all documents in order",
	})
	s.Require().NoError(err)

	for _, req := range got.Requirements {
		s.Equal(transfer.ReviewApproved, req.Status)
		s.Equal(s.now, req.UpdatedAt)
	}
	s.Equal(transfer.StatusCompleted, got.Status)
	s.Equal(transfer.ReviewApproved, got.Submission.Status)
	s.Equal("admin-1", got.Submission.ReviewerID)
	s.Require().NotNil(got.Review)
	s.Equal(transfer.DecisionApprove, got.Review.Decision)
}

func (s *ReviewServiceSuite) TestSubmitWritesExactlyOneAuditEntry() {
	seeded := s.seedTransfer()

	_, err := s.service.Submit(s.ctx, SubmitRequest{
		TransferID: seeded.ID,
		Decision:   transfer.DecisionReject,
		Comments:   "missing retention schedule",
	})
	s.Require().NoError(err)

	entries, err := s.auditor.List(s.ctx, seeded.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(audit.ActionRejected, entries[0].Action)
	s.Equal("admin-1", entries[0].ActorID)
	s.Equal(transfer.ReviewPending, entries[0].PreviousStatus)
	s.Equal(transfer.ReviewRejected, entries[0].NewStatus)
	s.Equal("missing retention schedule", entries[0].Note)
}

func (s *ReviewServiceSuite) TestAttachmentDecisionsDivergeFromBulkOutcome() {
	seeded := s.seedTransfer()
	kept := s.seedEvidence(seeded, "scc-annex.pdf")
	dropped := s.seedEvidence(seeded, "outdated-dpia.pdf")

	got, err := s.service.Submit(s.ctx, SubmitRequest{
		TransferID: seeded.ID,
		Decision:   transfer.DecisionReject,
		Comments:   "submission rejected overall",
		Attachments: []transfer.AttachmentDecision{
			{AttachmentID: kept.ID.String(), Kind: transfer.AttachmentEvidence, Decision: transfer.DecisionApprove, Note: "annex is fine"},
			{AttachmentID: dropped.ID.String(), Kind: transfer.AttachmentEvidence, Decision: transfer.DecisionReject, Note: "superseded"},
		},
	})
	s.Require().NoError(err)

	// Requirement-level outcome follows the bulk decision.
	s.Equal(transfer.ReviewRejected, got.Requirements[0].Status)

	keptAfter, err := s.evidence.Find(s.ctx, kept.ID)
	s.Require().NoError(err)
	s.Equal(transfer.ReviewApproved, keptAfter.Status, "an approved attachment survives a rejected submission")
	s.Equal("annex is fine", keptAfter.ReviewerNote)

	droppedAfter, err := s.evidence.Find(s.ctx, dropped.ID)
	s.Require().NoError(err)
	s.Equal(transfer.ReviewRejected, droppedAfter.Status)
}

func (s *ReviewServiceSuite) TestAttachmentMatchByFilename() {
	seeded := s.seedTransfer()
	item := s.seedEvidence(seeded, "scc-annex.pdf")

	_, err := s.service.Submit(s.ctx, SubmitRequest{
		TransferID: seeded.ID,
		Decision:   transfer.DecisionApprove,
		Attachments: []transfer.AttachmentDecision{
			{AttachmentID: "scc-annex.pdf", Kind: transfer.AttachmentEvidence, Decision: transfer.DecisionApprove},
		},
	})
	s.Require().NoError(err)

	after, err := s.evidence.Find(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Equal(transfer.ReviewApproved, after.Status)
}

func (s *ReviewServiceSuite) TestRequestChangesKeepsSubmissionOpen() {
	seeded := s.seedTransfer()

	got, err := s.service.Submit(s.ctx, SubmitRequest{
		TransferID: seeded.ID,
		Decision:   transfer.DecisionRequestChanges,
		Comments:   "need the updated annex",
	})
	s.Require().NoError(err)
	s.Equal(transfer.ReviewUnderReview, got.Submission.Status)
	s.Equal(transfer.StatusActive, got.Status)

	// A second change request on the same submission is legal.
	again, err := s.service.Submit(s.ctx, SubmitRequest{
		TransferID: seeded.ID,
		Decision:   transfer.DecisionRequestChanges,
		Comments:   "annex still missing pages",
	})
	s.Require().NoError(err)
	s.Equal(transfer.ReviewUnderReview, again.Submission.Status)
}

func (s *ReviewServiceSuite) TestResubmitAfterTerminalDecisionIsRejected() {
	seeded := s.seedTransfer()

	_, err := s.service.Submit(s.ctx, SubmitRequest{
		TransferID: seeded.ID,
		Decision:   transfer.DecisionApprove,
	})
	s.Require().NoError(err)

	_, err = s.service.Submit(s.ctx, SubmitRequest{
		TransferID: seeded.ID,
		Decision:   transfer.DecisionApprove,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	// The double submit must not produce a second audit entry.
	entries, err := s.auditor.List(s.ctx, seeded.ID)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *ReviewServiceSuite) TestSubmitUnknownTransfer() {
	_, err := s.service.Submit(s.ctx, SubmitRequest{
		TransferID: domain.NewTransferID(),
		Decision:   transfer.DecisionApprove,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ReviewServiceSuite) TestSubmitRequiresReviewerIdentity() {
	seeded := s.seedTransfer()
	anonymous := testutil.Context("", "", s.now)

	_, err := s.service.Submit(anonymous, SubmitRequest{
		TransferID: seeded.ID,
		Decision:   transfer.DecisionApprove,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ReviewServiceSuite) TestSubmitNotifiesCreator() {
	seeded := s.seedTransfer()

	_, err := s.service.Submit(s.ctx, SubmitRequest{
		TransferID: seeded.ID,
		Decision:   transfer.DecisionApprove,
	})
	s.Require().NoError(err)

	s.Require().Len(s.notifier.sent, 1)
	s.Equal(notify.TypeReviewCompleted, s.notifier.sent[0].Type)
	s.Equal("analyst-1", s.notifier.sent[0].Recipient)
	s.Equal("admin-1", s.notifier.sent[0].Sender)
}
