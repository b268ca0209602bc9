// Package handler exposes the review endpoints over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crossgate/internal/audit"
	"crossgate/internal/evidence"
	"crossgate/internal/review"
	"crossgate/internal/transfer"
	"crossgate/internal/transport/http/shared"
	"crossgate/pkg/domain"
	dErrors "crossgate/pkg/domain-errors"
	"crossgate/pkg/requestcontext"
)

// Service defines the review operations the HTTP layer depends on.
type Service interface {
	Submit(ctx context.Context, req review.SubmitRequest) (*transfer.Transfer, error)
	Get(ctx context.Context, id domain.TransferID) (*transfer.Transfer, error)
	List(ctx context.Context) ([]*transfer.Transfer, error)
	Evidence(ctx context.Context, id domain.TransferID) ([]*evidence.Evidence, error)
	AuditTrail(ctx context.Context, id domain.TransferID) ([]audit.Entry, error)
}

// Handler handles review and read endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the review routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/transfers/{transferID}/review", h.handleSubmit)
	r.Get("/transfers", h.handleList)
	r.Get("/transfers/{transferID}", h.handleGet)
	r.Get("/transfers/{transferID}/evidence", h.handleEvidence)
	r.Get("/transfers/{transferID}/audit", h.handleAuditTrail)
}

type submitRequest struct {
	Decision    string               `json:"decision"`
	Comments    string               `json:"comments,omitempty"`
	Attachments []attachmentDecision `json:"attachments,omitempty"`
}

type attachmentDecision struct {
	AttachmentID string `json:"attachmentId,omitempty"`
	Kind         string `json:"kind,omitempty"`
	Decision     string `json:"decision,omitempty"`
	Note         string `json:"note,omitempty"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var body submitRequest
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, err)
		return
	}
	decision, err := transfer.ParseDecision(body.Decision)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req := review.SubmitRequest{
		TransferID: id,
		Decision:   decision,
		Comments:   body.Comments,
	}
	for _, a := range body.Attachments {
		req.Attachments = append(req.Attachments, transfer.AttachmentDecision{
			AttachmentID: a.AttachmentID,
			Kind:         transfer.AttachmentKind(a.Kind),
			Decision:     transfer.Decision(a.Decision),
			Note:         a.Note,
		})
	}

	t, err := h.service.Submit(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "review submission failed",
			"request_id", requestcontext.RequestID(ctx),
			"transfer_id", id,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "list transfers", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"transfers": items})
}

func (h *Handler) handleEvidence(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	items, err := h.service.Evidence(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"evidence": items})
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	entries, err := h.service.AuditTrail(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
