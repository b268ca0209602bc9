package domain

import (
	"github.com/google/uuid"

	dErrors "crossgate/pkg/domain-errors"
)

// Typed IDs keep record families distinct at compile time. Construct via the
// Parse helpers at trust boundaries; direct casting bypasses validation.
type (
	// TransferID identifies one compliance submission.
	TransferID uuid.UUID

	// RequirementID identifies one line item inside a transfer.
	RequirementID uuid.UUID

	// EvidenceID identifies one uploaded artifact.
	EvidenceID uuid.UUID

	// AuditID identifies one immutable audit entry.
	AuditID uuid.UUID
)

func NewTransferID() TransferID       { return TransferID(uuid.New()) }
func NewRequirementID() RequirementID { return RequirementID(uuid.New()) }
func NewEvidenceID() EvidenceID       { return EvidenceID(uuid.New()) }
func NewAuditID() AuditID             { return AuditID(uuid.New()) }

func (id TransferID) String() string    { return uuid.UUID(id).String() }
func (id RequirementID) String() string { return uuid.UUID(id).String() }
func (id EvidenceID) String() string    { return uuid.UUID(id).String() }
func (id AuditID) String() string       { return uuid.UUID(id).String() }

func (id TransferID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id RequirementID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EvidenceID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AuditID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// ParseTransferID constructs a TransferID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or the
// nil UUID; no other errors are expected.
func ParseTransferID(s string) (TransferID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return TransferID{}, err
	}
	return TransferID(u), nil
}

func ParseRequirementID(s string) (RequirementID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RequirementID{}, err
	}
	return RequirementID(u), nil
}

func ParseEvidenceID(s string) (EvidenceID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EvidenceID{}, err
	}
	return EvidenceID(u), nil
}

func ParseAuditID(s string) (AuditID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return AuditID{}, err
	}
	return AuditID(u), nil
}

// Text marshaling keeps IDs as canonical UUID strings in JSON and store
// payloads; named array types do not inherit uuid.UUID's methods.

func (id TransferID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id RequirementID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EvidenceID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id AuditID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }

func (id *TransferID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = TransferID(u)
	return nil
}

func (id *RequirementID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = RequirementID(u)
	return nil
}

func (id *EvidenceID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = EvidenceID(u)
	return nil
}

func (id *AuditID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = AuditID(u)
	return nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
