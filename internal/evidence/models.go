package evidence

import (
	"encoding/json"
	"fmt"
	"time"

	"crossgate/internal/transfer"
	"crossgate/pkg/domain"
)

// Evidence is one uploaded artifact attached to a transfer requirement. Only
// upload metadata is recorded here; blob storage belongs to the host
// environment. Records are never deleted.
type Evidence struct {
	ID            domain.EvidenceID    `json:"id"`
	TransferID    domain.TransferID    `json:"transferId"`
	RequirementID domain.RequirementID `json:"requirementId"`
	Filename      string               `json:"filename"`
	Size          int64                `json:"size"`
	UploadedBy    string               `json:"uploadedBy"`
	UploadedAt    time.Time            `json:"uploadedAt"`

	Status       transfer.ReviewStatus `json:"status"`
	ReviewerID   string                `json:"reviewerId,omitempty"`
	ReviewerNote string                `json:"reviewerNote,omitempty"`
	ReviewedAt   *time.Time            `json:"reviewedAt,omitempty"`

	// Escalation fields are populated only once the item is escalated.
	// Invariant: EscalatedTo is non-empty iff Status == ESCALATED.
	// Invariant: EscalationHistory only grows.
	EscalatedTo       domain.AuthorityTeam       `json:"escalatedTo,omitempty"`
	EscalatedBy       string                     `json:"escalatedBy,omitempty"`
	EscalatedAt       *time.Time                 `json:"escalatedAt,omitempty"`
	EscalationReason  string                     `json:"escalationReason,omitempty"`
	EscalationHistory []transfer.EscalationEvent `json:"escalationHistory,omitempty"`

	// Deputy fields change who is expected to act next, never the status.
	AssignedDeputy     string     `json:"assignedDeputy,omitempty"`
	AssignedDeputyType string     `json:"assignedDeputyType,omitempty"`
	DeputyAssignedAt   *time.Time `json:"deputyAssignedAt,omitempty"`
	DeputyAssignedBy   string     `json:"deputyAssignedBy,omitempty"`

	Version int64 `json:"version"`
}

// Clone returns a deep copy through the JSON codec.
func (e *Evidence) Clone() (*Evidence, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("clone evidence: %w", err)
	}
	var out Evidence
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clone evidence: %w", err)
	}
	return &out, nil
}
