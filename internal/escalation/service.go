// Package escalation moves ownership of a submission between the reviewer
// pool and specialist authority teams, records escalation responses, and
// handles deputy assignment.
package escalation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"crossgate/internal/audit"
	"crossgate/internal/evidence"
	"crossgate/internal/notify"
	"crossgate/internal/platform/metrics"
	"crossgate/internal/policy"
	"crossgate/internal/transfer"
	"crossgate/pkg/domain"
	dErrors "crossgate/pkg/domain-errors"
	"crossgate/pkg/platform/sentinel"
	"crossgate/pkg/requestcontext"
)

// Service is the second writer of transfer/evidence records, alongside the
// review orchestrator.
type Service struct {
	transfers transfer.Store
	evidence  evidence.Store
	auditor   *audit.Publisher
	policy    *policy.EscalationPolicy
	notifier  notify.Dispatcher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewService(
	transfers transfer.Store,
	evidenceStore evidence.Store,
	auditor *audit.Publisher,
	pol *policy.EscalationPolicy,
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
	if pol == nil {
		return nil, errors.New("escalation policy is required")
	}
	return &Service{
		transfers: transfers,
		evidence:  evidenceStore,
		auditor:   auditor,
		policy:    pol,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("crossgate/escalation"),
	}, nil
}

// EscalateRequest asks a specialist team to take ownership of a submission.
type EscalateRequest struct {
	TransferID domain.TransferID
	Target     domain.AuthorityTeam
	Reason     string
	ActorID    string
	ActorRole  string
}

// Escalate moves the submission to the target team. The actor's role must
// permit the target per the configured policy table.
func (s *Service) Escalate(ctx context.Context, req EscalateRequest) (*transfer.Transfer, error) {
	ctx, span := s.tracer.Start(ctx, "escalation.Escalate")
	defer span.End()

	if req.ActorID == "" {
		req.ActorID = requestcontext.ActorID(ctx)
	}
	if req.ActorRole == "" {
		req.ActorRole = requestcontext.ActorRole(ctx)
	}
	if req.ActorID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "actor identity is required")
	}
	if req.Reason == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "escalation reason is required")
	}
	if !req.Target.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported authority team: "+string(req.Target))
	}
	if !s.policy.Allows(req.ActorRole, req.Target) {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("role %q may not escalate to %s", req.ActorRole, req.Target))
	}

	t, err := s.loadTransfer(ctx, req.TransferID)
	if err != nil {
		return nil, err
	}

	previous := t.Submission.Status
	if _, err := transfer.Transition(previous, transfer.ReviewEscalated); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	t.Submission.Status = transfer.ReviewEscalated
	t.Submission.EscalatedTo = req.Target
	t.Submission.EscalatedBy = req.ActorID
	t.Submission.EscalatedAt = &now
	t.Submission.EscalationReason = req.Reason
	t.Submission.History = append(t.Submission.History, transfer.EscalationEvent{
		ID:        uuid.NewString(),
		Target:    req.Target,
		Actor:     req.ActorID,
		Timestamp: now,
		Reason:    req.Reason,
	})
	t.Status = transfer.StatusEscalated

	if err := s.saveTransfer(ctx, t); err != nil {
		return nil, err
	}

	entry := audit.Entry{
		TransferID:       t.ID,
		Action:           audit.ActionEscalated,
		ActorID:          req.ActorID,
		ActorRole:        req.ActorRole,
		PreviousStatus:   previous,
		NewStatus:        transfer.ReviewEscalated,
		EscalatedTo:      req.Target,
		EscalationReason: req.Reason,
	}
	if len(t.Requirements) > 0 {
		entry.RequirementID = t.Requirements[0].ID
	}
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "record audit entry", err)
	}

	if s.metrics != nil {
		s.metrics.Escalations.WithLabelValues(string(req.Target)).Inc()
	}
	s.dispatch(ctx, notify.Notification{
		Message:   fmt.Sprintf("Submission escalated to %s: %s", req.Target, req.Reason),
		Recipient: string(req.Target),
		Type:      notify.TypeEscalation,
		RequestID: requestcontext.RequestID(ctx),
		Sender:    req.ActorID,
	})

	return t, nil
}

// RespondRequest carries a specialist team's answer to an escalation.
type RespondRequest struct {
	TransferID        domain.TransferID
	Comments          string
	ResponderID       string
	ResponderRole     string
	TaggedAuthorities []string
}

// Respond records the team's clarification, returns the submission to the
// reviewer pool, and clears the active escalation target. The history entry
// remains as permanent record.
func (s *Service) Respond(ctx context.Context, req RespondRequest) (*transfer.Transfer, error) {
	ctx, span := s.tracer.Start(ctx, "escalation.Respond")
	defer span.End()

	if req.ResponderID == "" {
		req.ResponderID = requestcontext.ActorID(ctx)
	}
	if req.ResponderRole == "" {
		req.ResponderRole = requestcontext.ActorRole(ctx)
	}
	if req.ResponderID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "responder identity is required")
	}
	if req.Comments == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "response comments are required")
	}

	t, err := s.loadTransfer(ctx, req.TransferID)
	if err != nil {
		return nil, err
	}

	previous := t.Submission.Status
	if _, err := transfer.Transition(previous, transfer.ReviewUnderReview); err != nil {
		return nil, err
	}
	if previous != transfer.ReviewEscalated {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "transfer has no escalation awaiting response")
	}

	now := requestcontext.Now(ctx)
	t.Submission.History = append(t.Submission.History, transfer.EscalationEvent{
		ID:                uuid.NewString(),
		Target:            t.Submission.EscalatedTo,
		Actor:             req.ResponderID,
		Timestamp:         now,
		Comments:          req.Comments,
		TaggedAuthorities: req.TaggedAuthorities,
	})
	t.Submission.Status = transfer.ReviewUnderReview
	t.Submission.EscalatedTo = ""
	t.Submission.EscalatedBy = ""
	t.Submission.EscalatedAt = nil
	t.Submission.EscalationReason = ""
	// Back in the originating reviewer pool, awaiting admin attention.
	t.Status = transfer.StatusPending

	if err := s.saveTransfer(ctx, t); err != nil {
		return nil, err
	}

	entry := audit.Entry{
		TransferID:     t.ID,
		Action:         audit.ActionClarificationProvided,
		ActorID:        req.ResponderID,
		ActorRole:      req.ResponderRole,
		PreviousStatus: previous,
		NewStatus:      transfer.ReviewUnderReview,
		Note:           req.Comments,
	}
	if len(t.Requirements) > 0 {
		entry.RequirementID = t.Requirements[0].ID
	}
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "record audit entry", err)
	}

	if s.metrics != nil {
		s.metrics.EscalationReplies.Inc()
	}
	recipient := t.Submission.ReviewerID
	if recipient == "" {
		recipient = t.CreatedBy
	}
	s.dispatch(ctx, notify.Notification{
		Message:   "Escalation response received: " + req.Comments,
		Recipient: recipient,
		Type:      notify.TypeEscalationReplied,
		RequestID: requestcontext.RequestID(ctx),
		Sender:    req.ResponderID,
	})

	return t, nil
}

// DeputizeRequest delegates the acting reviewer for a submission.
type DeputizeRequest struct {
	TransferID domain.TransferID
	DeputyID   string
	DeputyType string
	AssignedBy string
}

// Deputize stamps the deputy assignment on the evidence tied to the
// transfer's first requirement. Status fields never change; only who is
// expected to act next does. The assignment is audit-logged like every other
// workflow action.
func (s *Service) Deputize(ctx context.Context, req DeputizeRequest) (*evidence.Evidence, error) {
	ctx, span := s.tracer.Start(ctx, "escalation.Deputize")
	defer span.End()

	if req.AssignedBy == "" {
		req.AssignedBy = requestcontext.ActorID(ctx)
	}
	if req.DeputyID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "deputy identity is required")
	}
	if req.AssignedBy == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "assigning actor is required")
	}

	t, err := s.loadTransfer(ctx, req.TransferID)
	if err != nil {
		return nil, err
	}
	if len(t.Requirements) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "transfer has no requirements to deputize")
	}

	items, err := s.evidence.ListByTransfer(ctx, t.ID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list evidence", err)
	}
	target := firstForRequirement(items, t.Requirements[0].ID)
	if target == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no evidence recorded for the transfer's first requirement")
	}

	now := requestcontext.Now(ctx)
	target.AssignedDeputy = req.DeputyID
	target.AssignedDeputyType = req.DeputyType
	target.DeputyAssignedAt = &now
	target.DeputyAssignedBy = req.AssignedBy

	if err := s.evidence.Save(ctx, target); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			if s.metrics != nil {
				s.metrics.WriteConflicts.Inc()
			}
			return nil, dErrors.New(dErrors.CodeConflict, "evidence was modified by another actor")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "save evidence", err)
	}

	entry := audit.Entry{
		TransferID:     t.ID,
		RequirementID:  t.Requirements[0].ID,
		Action:         audit.ActionDeputyAssigned,
		ActorID:        req.AssignedBy,
		PreviousStatus: target.Status,
		NewStatus:      target.Status,
		Note:           fmt.Sprintf("deputy %s (%s) assigned", req.DeputyID, req.DeputyType),
	}
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "record audit entry", err)
	}

	if s.metrics != nil {
		s.metrics.Deputizations.Inc()
	}
	s.dispatch(ctx, notify.Notification{
		Message:   "You have been assigned as deputy reviewer",
		Recipient: req.DeputyID,
		Type:      notify.TypeDeputyAssigned,
		RequestID: requestcontext.RequestID(ctx),
		Sender:    req.AssignedBy,
	})

	return target, nil
}

func firstForRequirement(items []*evidence.Evidence, reqID domain.RequirementID) *evidence.Evidence {
	for _, item := range items {
		if item.RequirementID == reqID {
			return item
		}
	}
	return nil
}

func (s *Service) loadTransfer(ctx context.Context, id domain.TransferID) (*transfer.Transfer, error) {
	t, err := s.transfers.Find(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "transfer not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load transfer", err)
	}
	return t, nil
}

func (s *Service) saveTransfer(ctx context.Context, t *transfer.Transfer) error {
	err := s.transfers.Save(ctx, t)
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		if s.metrics != nil {
			s.metrics.WriteConflicts.Inc()
		}
		return dErrors.New(dErrors.CodeConflict, "transfer was modified by another actor")
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
