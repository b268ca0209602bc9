// Package handler exposes transfer creation and evidence registration.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crossgate/internal/evidence"
	"crossgate/internal/intake"
	"crossgate/internal/transfer"
	"crossgate/internal/transport/http/shared"
	"crossgate/pkg/domain"
	"crossgate/pkg/requestcontext"
)

// Service defines the intake operations the HTTP layer depends on.
type Service interface {
	CreateTransfer(ctx context.Context, req intake.CreateTransferRequest) (*transfer.Transfer, error)
	RegisterEvidence(ctx context.Context, req intake.RegisterEvidenceRequest) (*evidence.Evidence, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the intake routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/transfers", h.handleCreate)
	r.Post("/transfers/{transferID}/evidence", h.handleRegisterEvidence)
}

type createRequest struct {
	Jurisdiction string               `json:"jurisdiction"`
	Entity       string               `json:"entity,omitempty"`
	SubjectType  string               `json:"subjectType,omitempty"`
	Requirements []string             `json:"requirements"`
	MER          *transfer.MERPayload `json:"mer,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body createRequest
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, err)
		return
	}

	t, err := h.service.CreateTransfer(ctx, intake.CreateTransferRequest{
		Jurisdiction: body.Jurisdiction,
		Entity:       body.Entity,
		SubjectType:  body.SubjectType,
		Requirements: body.Requirements,
		MER:          body.MER,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "transfer creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, t)
}

type registerEvidenceRequest struct {
	RequirementID string `json:"requirementId"`
	Filename      string `json:"filename"`
	Size          int64  `json:"size,omitempty"`
}

func (h *Handler) handleRegisterEvidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	transferID, err := domain.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var body registerEvidenceRequest
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, err)
		return
	}
	requirementID, err := domain.ParseRequirementID(body.RequirementID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	item, err := h.service.RegisterEvidence(ctx, intake.RegisterEvidenceRequest{
		TransferID:    transferID,
		RequirementID: requirementID,
		Filename:      body.Filename,
		Size:          body.Size,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "evidence registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"transfer_id", transferID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, item)
}
