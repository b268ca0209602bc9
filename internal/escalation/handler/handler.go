// Package handler exposes the escalation workflow endpoints over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crossgate/internal/escalation"
	"crossgate/internal/evidence"
	"crossgate/internal/transfer"
	"crossgate/internal/transport/http/shared"
	"crossgate/pkg/domain"
	"crossgate/pkg/requestcontext"
)

// Service defines the escalation operations the HTTP layer depends on.
type Service interface {
	Escalate(ctx context.Context, req escalation.EscalateRequest) (*transfer.Transfer, error)
	Respond(ctx context.Context, req escalation.RespondRequest) (*transfer.Transfer, error)
	Deputize(ctx context.Context, req escalation.DeputizeRequest) (*evidence.Evidence, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the escalation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/transfers/{transferID}/escalate", h.handleEscalate)
	r.Post("/transfers/{transferID}/escalation/respond", h.handleRespond)
	r.Post("/transfers/{transferID}/deputize", h.handleDeputize)
}

type escalateRequest struct {
	Target string `json:"target"`
	Reason string `json:"reason"`
}

func (h *Handler) handleEscalate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var body escalateRequest
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, err)
		return
	}
	target, err := domain.ParseAuthorityTeam(body.Target)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	t, err := h.service.Escalate(ctx, escalation.EscalateRequest{
		TransferID: id,
		Target:     target,
		Reason:     body.Reason,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "escalation failed",
			"request_id", requestcontext.RequestID(ctx),
			"transfer_id", id,
			"target", body.Target,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, t)
}

type respondRequest struct {
	Comments          string   `json:"comments"`
	TaggedAuthorities []string `json:"taggedAuthorities,omitempty"`
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var body respondRequest
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, err)
		return
	}

	t, err := h.service.Respond(ctx, escalation.RespondRequest{
		TransferID:        id,
		Comments:          body.Comments,
		TaggedAuthorities: body.TaggedAuthorities,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "escalation response failed",
			"request_id", requestcontext.RequestID(ctx),
			"transfer_id", id,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, t)
}

type deputizeRequest struct {
	DeputyID   string `json:"deputyId"`
	DeputyType string `json:"deputyType,omitempty"`
}

func (h *Handler) handleDeputize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var body deputizeRequest
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, err)
		return
	}

	item, err := h.service.Deputize(ctx, escalation.DeputizeRequest{
		TransferID: id,
		DeputyID:   body.DeputyID,
		DeputyType: body.DeputyType,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "deputy assignment failed",
			"request_id", requestcontext.RequestID(ctx),
			"transfer_id", id,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, item)
}
