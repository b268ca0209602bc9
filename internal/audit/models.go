package audit

import (
	"time"

	"crossgate/internal/transfer"
	"crossgate/pkg/domain"
)

// Action classifies one workflow action for the audit trail.
type Action string

const (
	ActionReviewed              Action = "REVIEWED"
	ActionApproved              Action = "APPROVED"
	ActionRejected              Action = "REJECTED"
	ActionEscalated             Action = "ESCALATED"
	ActionClarificationProvided Action = "CLARIFICATION_PROVIDED"
	ActionDeputyAssigned        Action = "DEPUTY_ASSIGNED"
)

// Entry is the immutable record of one workflow action. Exactly one entry is
// written per successful state-changing operation; there is no update or
// delete path.
type Entry struct {
	ID            domain.AuditID       `json:"id"`
	TransferID    domain.TransferID    `json:"transferId"`
	RequirementID domain.RequirementID `json:"requirementId,omitempty"`
	Action        Action               `json:"action"`
	ActorID       string               `json:"actorId"`
	ActorRole     string               `json:"actorRole,omitempty"`
	PerformedAt   time.Time            `json:"performedAt"`

	PreviousStatus transfer.ReviewStatus `json:"previousStatus,omitempty"`
	NewStatus      transfer.ReviewStatus `json:"newStatus,omitempty"`

	EscalatedTo      domain.AuthorityTeam `json:"escalatedTo,omitempty"`
	EscalationReason string               `json:"escalationReason,omitempty"`
	Note             string               `json:"note,omitempty"`

	// Transport-derived context, recorded so the trail answers "who did
	// what, from where".
	RequestID string `json:"requestId,omitempty"`
	ClientIP  string `json:"clientIp,omitempty"`
	ClientUA  string `json:"clientUa,omitempty"`
}
