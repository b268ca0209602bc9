// Package review is the orchestrator for review submissions: it validates
// the request, drives the status model, aggregates per-attachment decisions,
// persists the records, and appends the audit entry.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"crossgate/internal/audit"
	"crossgate/internal/evidence"
	"crossgate/internal/notify"
	"crossgate/internal/platform/metrics"
	"crossgate/internal/transfer"
	"crossgate/pkg/domain"
	dErrors "crossgate/pkg/domain-errors"
	"crossgate/pkg/platform/sentinel"
	"crossgate/pkg/requestcontext"
)

// Service orchestrates review submissions. It is one of the two writers of
// transfer/evidence records; nothing else mutates them.
type Service struct {
	transfers transfer.Store
	evidence  evidence.Store
	auditor   *audit.Publisher
	notifier  notify.Dispatcher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewService(
	transfers transfer.Store,
	evidenceStore evidence.Store,
	auditor *audit.Publisher,
	notifier notify.Dispatcher,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*Service, error) {
	if transfers == nil {
		return nil, errors.New("transfer store is required")
	}
	if evidenceStore == nil {
		return nil, errors.New("evidence store is required")
	}
	if auditor == nil {
		return nil, errors.New("audit publisher is required")
	}
	return &Service{
		transfers: transfers,
		evidence:  evidenceStore,
		auditor:   auditor,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("crossgate/review"),
	}, nil
}

// SubmitRequest is one full review submission.
type SubmitRequest struct {
	TransferID   domain.TransferID
	Decision     transfer.Decision
	Comments     string
	Attachments  []transfer.AttachmentDecision
	ReviewerID   string
	ReviewerRole string
}

// Submit applies one overall decision to a transfer: every non-terminal
// requirement takes the decision's status in bulk, the full decision is
// persisted as a snapshot, and each evidence item named by an attachment
// decision takes its own individual outcome. Attachment-level and
// requirement-level status can therefore diverge; rejecting one attachment
// does not reject the submission.
//
// Errors: CodeNotFound when the transfer is absent, CodeInvalidTransition
// when the submission already reached a terminal state, CodeConflict when a
// concurrent writer won, CodeInvalidInput on incomplete requests.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*transfer.Transfer, error) {
	ctx, span := s.tracer.Start(ctx, "review.Submit")
	defer span.End()

	if req.ReviewerID == "" {
		req.ReviewerID = requestcontext.ActorID(ctx)
	}
	if req.ReviewerRole == "" {
		req.ReviewerRole = requestcontext.ActorRole(ctx)
	}
	if req.ReviewerID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "reviewer identity is required")
	}
	target, err := req.Decision.ReviewStatus()
	if err != nil {
		return nil, err
	}

	t, err := s.transfers.Find(ctx, req.TransferID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "transfer not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load transfer", err)
	}

	previous := t.Submission.Status
	if _, err := transfer.Transition(previous, target); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)

	// Bulk transition: the engine does not support independent per-requirement
	// outcomes at submission time.
	for i := range t.Requirements {
		if t.Requirements[i].Status.CanTransition(target) {
			t.Requirements[i].Status = target
			t.Requirements[i].UpdatedAt = now
		}
	}

	t.Review = &transfer.ReviewSnapshot{
		Decision:    req.Decision,
		Comments:    req.Comments,
		Attachments: req.Attachments,
		ReviewedBy:  req.ReviewerID,
		ReviewedAt:  now,
	}
	t.Submission.Status = target
	t.Submission.ReviewerID = req.ReviewerID
	t.Submission.ReviewerNote = req.Comments
	t.Submission.ReviewedAt = &now
	t.Status = transfer.AggregateStatus(t.Requirements)

	if err := s.saveTransfer(ctx, t); err != nil {
		return nil, err
	}

	if err := s.applyAttachmentDecisions(ctx, t, req.Attachments, req.ReviewerID, now); err != nil {
		return nil, err
	}

	entry := audit.Entry{
		TransferID:     t.ID,
		Action:         actionForDecision(req.Decision),
		ActorID:        req.ReviewerID,
		ActorRole:      req.ReviewerRole,
		PreviousStatus: previous,
		NewStatus:      target,
		Note:           req.Comments,
	}
	if len(t.Requirements) > 0 {
		entry.RequirementID = t.Requirements[0].ID
	}
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "record audit entry", err)
	}

	if s.metrics != nil {
		s.metrics.ReviewsSubmitted.WithLabelValues(string(req.Decision)).Inc()
	}
	s.dispatch(ctx, notify.Notification{
		Message:   fmt.Sprintf("Review completed with decision %s", req.Decision),
		Recipient: t.CreatedBy,
		Type:      notify.TypeReviewCompleted,
		RequestID: requestcontext.RequestID(ctx),
		Sender:    req.ReviewerID,
	})

	return t, nil
}

// applyAttachmentDecisions walks the transfer's evidence and applies the
// matching per-attachment outcome, independent of the bulk requirement
// update. Matching is by evidence ID first, filename second.
func (s *Service) applyAttachmentDecisions(
	ctx context.Context,
	t *transfer.Transfer,
	decisions []transfer.AttachmentDecision,
	reviewerID string,
	now time.Time,
) error {
	if len(decisions) == 0 {
		return nil
	}
	items, err := s.evidence.ListByTransfer(ctx, t.ID)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "list evidence", err)
	}
	for _, item := range items {
		decision := matchAttachment(item, decisions)
		if decision == nil {
			continue
		}
		// Only explicit APPROVE/REJECT verdicts touch evidence; a pending or
		// change-requesting attachment decision leaves the item as is.
		if decision.Decision != transfer.DecisionApprove && decision.Decision != transfer.DecisionReject {
			continue
		}
		target, err := decision.Decision.ReviewStatus()
		if err != nil {
			return err
		}
		if !item.Status.CanTransition(target) {
			if s.logger != nil {
				s.logger.DebugContext(ctx, "skipping attachment decision on settled evidence",
					"evidence_id", item.ID.String(), "status", string(item.Status))
			}
			continue
		}
		item.Status = target
		item.ReviewerID = reviewerID
		item.ReviewerNote = decision.Note
		item.ReviewedAt = &now
		if err := s.evidence.Save(ctx, item); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				if s.metrics != nil {
					s.metrics.WriteConflicts.Inc()
				}
				return dErrors.New(dErrors.CodeConflict, "evidence was modified by another reviewer")
			}
			return dErrors.Wrap(dErrors.CodeInternal, "save evidence", err)
		}
	}
	return nil
}

func (s *Service) saveTransfer(ctx context.Context, t *transfer.Transfer) error {
	err := s.transfers.Save(ctx, t)
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		if s.metrics != nil {
			s.metrics.WriteConflicts.Inc()
		}
		return dErrors.New(dErrors.CodeConflict, "transfer was modified by another reviewer")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "transfer not found")
	case err != nil:
		return dErrors.Wrap(dErrors.CodeInternal, "save transfer", err)
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, n notify.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Dispatch(ctx, n); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "notification dispatch failed",
			"type", n.Type, "recipient", n.Recipient, "error", err)
	}
}

// Get returns one transfer.
func (s *Service) Get(ctx context.Context, id domain.TransferID) (*transfer.Transfer, error) {
	t, err := s.transfers.Find(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "transfer not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load transfer", err)
	}
	return t, nil
}

// List returns all transfers in creation order.
func (s *Service) List(ctx context.Context) ([]*transfer.Transfer, error) {
	out, err := s.transfers.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list transfers", err)
	}
	return out, nil
}

// Evidence returns the evidence recorded for a transfer.
func (s *Service) Evidence(ctx context.Context, id domain.TransferID) ([]*evidence.Evidence, error) {
	out, err := s.evidence.ListByTransfer(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list evidence", err)
	}
	return out, nil
}

// AuditTrail returns the audit entries for a transfer, oldest first.
func (s *Service) AuditTrail(ctx context.Context, id domain.TransferID) ([]audit.Entry, error) {
	return s.auditor.List(ctx, id)
}
