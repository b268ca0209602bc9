package transfer

import (
	"encoding/json"
	"fmt"
	"time"

	"crossgate/pkg/domain"
)

// Transfer is one compliance submission: a cross-border data-transfer
// justification or an MER template submission. Records are never deleted;
// terminal outcomes are expressed through requirement statuses.
type Transfer struct {
	ID           domain.TransferID `json:"id"`
	CreatedBy    string            `json:"createdBy"`
	CreatedAt    time.Time         `json:"createdAt"`
	Jurisdiction string            `json:"jurisdiction"`
	Entity       string            `json:"entity"`
	SubjectType  string            `json:"subjectType"`
	Status       Status            `json:"status"`

	// MER carries the filled template payload for MER-type submissions. The
	// engine treats it as opaque beyond attachment enumeration.
	MER *MERPayload `json:"mer,omitempty"`

	Requirements []Requirement `json:"requirements"`

	// Submission carries the submission-level review/escalation state. It
	// replaces the derived-key pseudo-evidence record the engine previously
	// synthesized per submission.
	Submission SubmissionState `json:"submission"`

	// Review is the last full decision snapshot, re-rendered by the UI.
	Review *ReviewSnapshot `json:"review,omitempty"`

	// Version supports optimistic concurrency; stores reject writes whose
	// version does not match the stored record.
	Version int64 `json:"version"`
}

// Requirement is one line item inside a transfer needing a decision. It is
// owned exclusively by its parent and never referenced independently.
type Requirement struct {
	ID        domain.RequirementID `json:"id"`
	Name      string               `json:"name"`
	Status    ReviewStatus         `json:"status"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// MERPayload references the structured template and its extracted values.
type MERPayload struct {
	TemplateRef string         `json:"templateRef"`
	Fields      map[string]any `json:"fields,omitempty"`
}

// SubmissionState tracks the review and escalation state of the submission as
// a whole.
//
// Invariant: EscalatedTo is non-empty if and only if Status == ESCALATED.
// Invariant: History only grows; entries are never edited or removed.
type SubmissionState struct {
	Status       ReviewStatus `json:"status"`
	ReviewerID   string       `json:"reviewerId,omitempty"`
	ReviewerNote string       `json:"reviewerNote,omitempty"`
	ReviewedAt   *time.Time   `json:"reviewedAt,omitempty"`

	EscalatedTo      domain.AuthorityTeam `json:"escalatedTo,omitempty"`
	EscalatedBy      string               `json:"escalatedBy,omitempty"`
	EscalatedAt      *time.Time           `json:"escalatedAt,omitempty"`
	EscalationReason string               `json:"escalationReason,omitempty"`

	History []EscalationEvent `json:"escalationHistory,omitempty"`
}

// EscalationEvent is one hop in an escalation/response chain.
type EscalationEvent struct {
	ID                string               `json:"id"`
	Target            domain.AuthorityTeam `json:"target"`
	Actor             string               `json:"actor"`
	Timestamp         time.Time            `json:"timestamp"`
	Reason            string               `json:"reason,omitempty"`
	Comments          string               `json:"comments,omitempty"`
	TaggedAuthorities []string             `json:"taggedAuthorities,omitempty"`
}

// AttachmentKind distinguishes template-derived attachments from uploaded
// evidence files.
type AttachmentKind string

const (
	AttachmentTemplate AttachmentKind = "template"
	AttachmentEvidence AttachmentKind = "evidence"
)

// AttachmentDecision is a reviewer's judgment on one attachment. An empty
// Decision means the reviewer left the attachment pending. It is persisted
// only inside the transfer's review snapshot, not as its own record.
type AttachmentDecision struct {
	AttachmentID string         `json:"attachmentId"`
	Kind         AttachmentKind `json:"kind"`
	Decision     Decision       `json:"decision,omitempty"`
	Note         string         `json:"note,omitempty"`
}

// ReviewSnapshot is the persisted form of one full review submission,
// including the per-attachment breakdown.
type ReviewSnapshot struct {
	Decision    Decision             `json:"decision"`
	Comments    string               `json:"comments,omitempty"`
	Attachments []AttachmentDecision `json:"attachments,omitempty"`
	ReviewedBy  string               `json:"reviewedBy"`
	ReviewedAt  time.Time            `json:"reviewedAt"`
}

// Clone returns a deep copy through the JSON codec, the same representation
// the Redis and Postgres stores persist.
func (t *Transfer) Clone() (*Transfer, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("clone transfer: %w", err)
	}
	var out Transfer
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clone transfer: %w", err)
	}
	return &out, nil
}
