package escalation

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"crossgate/internal/audit"
	"crossgate/internal/evidence"
	"crossgate/internal/policy"
	"crossgate/internal/transfer"
	"crossgate/pkg/domain"
	dErrors "crossgate/pkg/domain-errors"
	"crossgate/pkg/testutil"
)

type EscalationServiceSuite struct {
	suite.Suite

	transfers *transfer.InMemoryStore
	evidence  *evidence.InMemoryStore
	auditor   *audit.Publisher
	service   *Service

	now time.Time
	ctx context.Context
}

func TestEscalationServiceSuite(t *testing.T) {
	suite.Run(t, new(EscalationServiceSuite))
}

func (s *EscalationServiceSuite) SetupTest() {
	s.transfers = transfer.NewInMemoryStore()
	s.evidence = evidence.NewInMemoryStore()
	s.auditor = audit.NewPublisher(audit.NewInMemoryStore())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(s.transfers, s.evidence, s.auditor, policy.Default(), nil, nil, logger)
	s.Require().NoError(err)
	s.service = svc

	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = testutil.Context("admin-1", "Admin", s.now)
}

func (s *EscalationServiceSuite) seedTransfer() *transfer.Transfer {
	t := &transfer.Transfer{
		ID:           domain.NewTransferID(),
		CreatedBy:    "analyst-1",
		CreatedAt:    s.now.Add(-time.Hour),
		Jurisdiction: "DE",
		Status:       transfer.StatusPending,
		Requirements: []transfer.Requirement{{
			ID:        domain.NewRequirementID(),
			Name:      "SCC annex",
			Status:    transfer.ReviewPending,
			CreatedAt: s.now.Add(-time.Hour),
			UpdatedAt: s.now.Add(-time.Hour),
		}},
		Submission: transfer.SubmissionState{Status: transfer.ReviewPending},
	}
	s.Require().NoError(s.transfers.Save(s.ctx, t))
	return t
}

func (s *EscalationServiceSuite) escalate(id domain.TransferID) *transfer.Transfer {
	got, err := s.service.Escalate(s.ctx, EscalateRequest{
		TransferID: id,
		Target:     domain.TeamLegal,
		Reason:     "unclear legal basis for onward transfer",
	})
	s.Require().NoError(err)
	return got
}

func (s *EscalationServiceSuite) TestEscalateSetsStateAndHistory() {
	seeded := s.seedTransfer()
	got := s.escalate(seeded.ID)

	s.Equal(transfer.ReviewEscalated, got.Submission.Status)
	s.Equal(transfer.StatusEscalated, got.Status)
	s.Equal(domain.TeamLegal, got.Submission.EscalatedTo)
	s.Equal("admin-1", got.Submission.EscalatedBy)
	s.Require().NotNil(got.Submission.EscalatedAt)
	s.Equal(s.now, *got.Submission.EscalatedAt)

	s.Require().Len(got.Submission.History, 1)
	s.Equal(domain.TeamLegal, got.Submission.History[0].Target)
	s.Equal("unclear legal basis for onward transfer", got.Submission.History[0].Reason)
}

func (s *EscalationServiceSuite) TestEscalateRequiresReason() {
	seeded := s.seedTransfer()
	_, err := s.service.Escalate(s.ctx, EscalateRequest{
		TransferID: seeded.ID,
		Target:     domain.TeamLegal,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *EscalationServiceSuite) TestEscalateEnforcesPolicy() {
	seeded := s.seedTransfer()
	legalCtx := testutil.Context("legal-1", "Legal", s.now)

	// Legal may not escalate to itself under the default table.
	_, err := s.service.Escalate(legalCtx, EscalateRequest{
		TransferID: seeded.ID,
		Target:     domain.TeamLegal,
		Reason:     "second opinion",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	// Finance is within Legal's reach.
	_, err = s.service.Escalate(legalCtx, EscalateRequest{
		TransferID: seeded.ID,
		Target:     domain.TeamFinance,
		Reason:     "transfer pricing implications",
	})
	s.Require().NoError(err)
}

func (s *EscalationServiceSuite) TestEscalateTwiceIsRejected() {
	seeded := s.seedTransfer()
	s.escalate(seeded.ID)

	_, err := s.service.Escalate(s.ctx, EscalateRequest{
		TransferID: seeded.ID,
		Target:     domain.TeamPrivacy,
		Reason:     "also a privacy question",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *EscalationServiceSuite) TestRespondReturnsSubmissionToReview() {
	seeded := s.seedTransfer()
	s.escalate(seeded.ID)

	responderCtx := testutil.Context("legal-7", "Legal", s.now.Add(time.Hour))
	got, err := s.service.Respond(responderCtx, RespondRequest{
		TransferID:        seeded.ID,
		Comments:          "legal basis confirmed under Art. 46",
		TaggedAuthorities: []string{"Privacy"},
	})
	s.Require().NoError(err)

	s.Equal(transfer.ReviewUnderReview, got.Submission.Status)
	s.Equal(transfer.StatusPending, got.Status)
	s.Empty(got.Submission.EscalatedTo)
	s.Empty(got.Submission.EscalatedBy)
	s.Nil(got.Submission.EscalatedAt)
	s.Empty(got.Submission.EscalationReason)

	// The history keeps both hops in order.
	s.Require().Len(got.Submission.History, 2)
	s.Equal("admin-1", got.Submission.History[0].Actor)
	s.Equal("legal-7", got.Submission.History[1].Actor)
	s.Equal("legal basis confirmed under Art. 46", got.Submission.History[1].Comments)
	s.Equal([]string{"Privacy"}, got.Submission.History[1].TaggedAuthorities)
	s.True(got.Submission.History[0].Timestamp.Before(got.Submission.History[1].Timestamp))
}

func (s *EscalationServiceSuite) TestEscalateRespondRoundTripAuditTrail() {
	seeded := s.seedTransfer()
	s.escalate(seeded.ID)

	responderCtx := testutil.Context("legal-7", "Legal", s.now.Add(time.Hour))
	_, err := s.service.Respond(responderCtx, RespondRequest{
		TransferID: seeded.ID,
		Comments:   "clarified",
	})
	s.Require().NoError(err)

	entries, err := s.auditor.List(s.ctx, seeded.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)

	s.Equal(audit.ActionEscalated, entries[0].Action)
	s.Equal(domain.TeamLegal, entries[0].EscalatedTo)
	s.Equal("unclear legal basis for onward transfer", entries[0].EscalationReason)

	s.Equal(audit.ActionClarificationProvided, entries[1].Action)
	s.Equal("legal-7", entries[1].ActorID)
	s.Equal(transfer.ReviewEscalated, entries[1].PreviousStatus)
	s.Equal(transfer.ReviewUnderReview, entries[1].NewStatus)
}

func (s *EscalationServiceSuite) TestRespondWithoutEscalation() {
	seeded := s.seedTransfer()
	_, err := s.service.Respond(s.ctx, RespondRequest{
		TransferID: seeded.ID,
		Comments:   "nothing to answer",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *EscalationServiceSuite) TestDeputizeStampsEvidence() {
	seeded := s.seedTransfer()
	item := &evidence.Evidence{
		ID:            domain.NewEvidenceID(),
		TransferID:    seeded.ID,
		RequirementID: seeded.Requirements[0].ID,
		Filename:      "scc-annex.pdf",
		UploadedBy:    "analyst-1",
		UploadedAt:    s.now.Add(-time.Hour),
		Status:        transfer.ReviewUnderReview,
	}
	s.Require().NoError(s.evidence.Save(s.ctx, item))

	got, err := s.service.Deputize(s.ctx, DeputizeRequest{
		TransferID: seeded.ID,
		DeputyID:   "deputy-3",
		DeputyType: "secondary-reviewer",
	})
	s.Require().NoError(err)

	s.Equal("deputy-3", got.AssignedDeputy)
	s.Equal("secondary-reviewer", got.AssignedDeputyType)
	s.Equal("admin-1", got.DeputyAssignedBy)
	s.Require().NotNil(got.DeputyAssignedAt)
	s.Equal(s.now, *got.DeputyAssignedAt)

	// Deputization changes who acts next, never any status.
	s.Equal(transfer.ReviewUnderReview, got.Status)

	entries, err := s.auditor.List(s.ctx, seeded.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(audit.ActionDeputyAssigned, entries[0].Action)
	s.Equal(entries[0].PreviousStatus, entries[0].NewStatus)
}

func (s *EscalationServiceSuite) TestDeputizeWithoutEvidence() {
	seeded := s.seedTransfer()
	_, err := s.service.Deputize(s.ctx, DeputizeRequest{
		TransferID: seeded.ID,
		DeputyID:   "deputy-3",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *EscalationServiceSuite) TestEscalateUnknownTransfer() {
	_, err := s.service.Escalate(s.ctx, EscalateRequest{
		TransferID: domain.NewTransferID(),
		Target:     domain.TeamLegal,
		Reason:     "missing record",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
