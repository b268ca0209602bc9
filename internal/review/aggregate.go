package review

import (
	"crossgate/internal/audit"
	"crossgate/internal/evidence"
	"crossgate/internal/transfer"
)

// actionForDecision maps the overall decision to the audit action recorded
// for the submission-level entry. REQUEST_CHANGES audits as REVIEWED since it
// settles nothing.
func actionForDecision(d transfer.Decision) audit.Action {
	switch d {
	case transfer.DecisionApprove:
		return audit.ActionApproved
	case transfer.DecisionReject:
		return audit.ActionRejected
	default:
		return audit.ActionReviewed
	}
}

// matchAttachment finds the reviewer's verdict for one evidence item.
// Identity wins over filename so a renamed upload cannot shadow another
// item's decision.
func matchAttachment(item *evidence.Evidence, decisions []transfer.AttachmentDecision) *transfer.AttachmentDecision {
	for i := range decisions {
		if decisions[i].AttachmentID == item.ID.String() {
			return &decisions[i]
		}
	}
	for i := range decisions {
		if decisions[i].AttachmentID != "" && decisions[i].AttachmentID == item.Filename {
			return &decisions[i]
		}
	}
	return nil
}
