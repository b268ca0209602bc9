// Package intake creates transfer records and registers evidence metadata.
// It is the only writer that brings new records into existence; the review
// and escalation services only mutate what intake created.
package intake

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"crossgate/internal/evidence"
	"crossgate/internal/transfer"
	"crossgate/pkg/domain"
	dErrors "crossgate/pkg/domain-errors"
	"crossgate/pkg/requestcontext"
)

type Service struct {
	transfers transfer.Store
	evidence  evidence.Store
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewService(transfers transfer.Store, evidenceStore evidence.Store, logger *slog.Logger) (*Service, error) {
	if transfers == nil {
		return nil, errors.New("transfer store is required")
	}
	if evidenceStore == nil {
		return nil, errors.New("evidence store is required")
	}
	return &Service{
		transfers: transfers,
		evidence:  evidenceStore,
		logger:    logger,
		tracer:    otel.Tracer("crossgate/intake"),
	}, nil
}

// CreateTransferRequest carries everything needed to open a new submission.
type CreateTransferRequest struct {
	Jurisdiction string
	Entity       string
	SubjectType  string
	Requirements []string
	MER          *transfer.MERPayload
	CreatedBy    string
}

// CreateTransfer opens a new submission with every requirement PENDING.
// Creation itself is not a review action and produces no audit entry.
func (s *Service) CreateTransfer(ctx context.Context, req CreateTransferRequest) (*transfer.Transfer, error) {
	ctx, span := s.tracer.Start(ctx, "intake.CreateTransfer")
	defer span.End()

	if req.CreatedBy == "" {
		req.CreatedBy = requestcontext.ActorID(ctx)
	}
	if req.CreatedBy == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "creating actor is required")
	}
	if req.Jurisdiction == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "jurisdiction is required")
	}
	if len(req.Requirements) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one requirement is required")
	}

	now := requestcontext.Now(ctx)
	t := &transfer.Transfer{
		ID:           domain.NewTransferID(),
		CreatedBy:    req.CreatedBy,
		CreatedAt:    now,
		Jurisdiction: req.Jurisdiction,
		Entity:       req.Entity,
		SubjectType:  req.SubjectType,
		Status:       transfer.StatusPending,
		MER:          req.MER,
		Submission:   transfer.SubmissionState{Status: transfer.ReviewPending},
	}
	for _, name := range req.Requirements {
		if name == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "requirement name cannot be empty")
		}
		t.Requirements = append(t.Requirements, transfer.Requirement{
			ID:        domain.NewRequirementID(),
			Name:      name,
			Status:    transfer.ReviewPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := s.transfers.Save(ctx, t); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "save transfer", err)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "transfer created",
			"transferId", t.ID, "requirements", len(t.Requirements), "createdBy", t.CreatedBy)
	}
	return t, nil
}

// RegisterEvidenceRequest records the metadata of an uploaded document. The
// engine never stores file bytes; blob storage is handled upstream.
type RegisterEvidenceRequest struct {
	TransferID    domain.TransferID
	RequirementID domain.RequirementID
	Filename      string
	Size          int64
	UploadedBy    string
}

// RegisterEvidence attaches an evidence record to an existing transfer
// requirement, starting at PENDING.
func (s *Service) RegisterEvidence(ctx context.Context, req RegisterEvidenceRequest) (*evidence.Evidence, error) {
	ctx, span := s.tracer.Start(ctx, "intake.RegisterEvidence")
	defer span.End()

	if req.UploadedBy == "" {
		req.UploadedBy = requestcontext.ActorID(ctx)
	}
	if req.UploadedBy == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "uploading actor is required")
	}
	if req.Filename == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "filename is required")
	}

	t, err := s.transfers.Find(ctx, req.TransferID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "transfer not found")
	}
	if !hasRequirement(t, req.RequirementID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "requirement not found on transfer")
	}

	now := requestcontext.Now(ctx)
	item := &evidence.Evidence{
		ID:            domain.NewEvidenceID(),
		TransferID:    t.ID,
		RequirementID: req.RequirementID,
		Filename:      req.Filename,
		Size:          req.Size,
		UploadedBy:    req.UploadedBy,
		UploadedAt:    now,
		Status:        transfer.ReviewPending,
	}
	if err := s.evidence.Save(ctx, item); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "save evidence", err)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "evidence registered",
			"transferId", t.ID, "evidenceId", item.ID, "filename", item.Filename)
	}
	return item, nil
}

func hasRequirement(t *transfer.Transfer, id domain.RequirementID) bool {
	for _, r := range t.Requirements {
		if r.ID == id {
			return true
		}
	}
	return false
}
