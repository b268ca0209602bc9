package transfer

import (
	"fmt"

	dErrors "crossgate/pkg/domain-errors"
)

// Status is the coarse transfer-level state used by list views. It is a
// reflection of the requirement statuses (see AggregateStatus), except while a
// submission awaits first review.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusEscalated Status = "ESCALATED"
)

// ReviewStatus is the state of one requirement, one evidence item, or the
// submission-level review itself.
type ReviewStatus string

const (
	ReviewPending     ReviewStatus = "PENDING"
	ReviewUnderReview ReviewStatus = "UNDER_REVIEW"
	ReviewApproved    ReviewStatus = "APPROVED"
	ReviewRejected    ReviewStatus = "REJECTED"
	ReviewEscalated   ReviewStatus = "ESCALATED"
)

// Terminal reports whether no further transitions are legal from s.
func (s ReviewStatus) Terminal() bool {
	return s == ReviewApproved || s == ReviewRejected
}

// reviewTransitions is the closed transition table. PENDING admits direct
// approval/rejection because a first review decides all requirements in one
// bulk operation; ESCALATED is non-terminal and returns to UNDER_REVIEW when
// the escalation is answered.
var reviewTransitions = map[ReviewStatus]map[ReviewStatus]bool{
	ReviewPending: {
		ReviewUnderReview: true,
		ReviewApproved:    true,
		ReviewRejected:    true,
		ReviewEscalated:   true,
	},
	ReviewUnderReview: {
		ReviewUnderReview: true, // repeated change requests stay in review
		ReviewApproved:    true,
		ReviewRejected:    true,
		ReviewEscalated:   true,
	},
	ReviewEscalated: {
		ReviewUnderReview: true,
	},
	ReviewApproved: {},
	ReviewRejected: {},
}

// CanTransition reports whether from → to is a legal state change.
func (s ReviewStatus) CanTransition(to ReviewStatus) bool {
	allowed, ok := reviewTransitions[s]
	if !ok {
		return false
	}
	return allowed[to]
}

// Transition validates from → to and returns the new status, or a coded
// invalid-transition error carrying both states.
func Transition(from, to ReviewStatus) (ReviewStatus, error) {
	if !from.CanTransition(to) {
		return from, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move %s to %s", from, to))
	}
	return to, nil
}

// Decision is a reviewer's overall verdict on a submission.
type Decision string

const (
	DecisionApprove        Decision = "APPROVE"
	DecisionReject         Decision = "REJECT"
	DecisionRequestChanges Decision = "REQUEST_CHANGES"
)

// ParseDecision constructs a Decision from external input.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionApprove, DecisionReject, DecisionRequestChanges:
		return Decision(s), nil
	case "":
		return "", dErrors.New(dErrors.CodeInvalidInput, "decision cannot be empty")
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported decision: "+s)
	}
}

// ReviewStatus maps an overall decision to the status it drives requirements
// and the submission into. The switch is exhaustive over the closed set.
func (d Decision) ReviewStatus() (ReviewStatus, error) {
	switch d {
	case DecisionApprove:
		return ReviewApproved, nil
	case DecisionReject:
		return ReviewRejected, nil
	case DecisionRequestChanges:
		return ReviewUnderReview, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported decision: "+string(d))
	}
}

// AggregateStatus derives the transfer-level status from requirement states.
// Escalation dominates; a transfer completes only when every requirement
// reached a terminal state.
func AggregateStatus(requirements []Requirement) Status {
	if len(requirements) == 0 {
		return StatusPending
	}
	allTerminal := true
	anyUnderReview := false
	for _, req := range requirements {
		switch req.Status {
		case ReviewEscalated:
			return StatusEscalated
		case ReviewUnderReview:
			anyUnderReview = true
			allTerminal = false
		case ReviewPending:
			allTerminal = false
		}
	}
	if allTerminal {
		return StatusCompleted
	}
	if anyUnderReview {
		return StatusActive
	}
	return StatusPending
}
