package enums

import "fmt"

// EvaluationStatus tracks the lifecycle of a vehicle evaluation. The status
// gates every content mutation and valuation run: only editable statuses may
// change, only pending ones may be decided, and final ones never move again
// except for the time-driven approved -> expired transition.
type EvaluationStatus string

const (
	EvaluationStatusDraft           EvaluationStatus = "draft"
	EvaluationStatusInProgress      EvaluationStatus = "in_progress"
	EvaluationStatusPendingApproval EvaluationStatus = "pending_approval"
	EvaluationStatusApproved        EvaluationStatus = "approved"
	EvaluationStatusRejected        EvaluationStatus = "rejected"
	EvaluationStatusExpired         EvaluationStatus = "expired"
	EvaluationStatusCanceled        EvaluationStatus = "canceled"
)

var validEvaluationStatuses = []EvaluationStatus{
	EvaluationStatusDraft,
	EvaluationStatusInProgress,
	EvaluationStatusPendingApproval,
	EvaluationStatusApproved,
	EvaluationStatusRejected,
	EvaluationStatusExpired,
	EvaluationStatusCanceled,
}

// transitions encodes the only legal direct moves between statuses. The
// approved -> expired edge is driven by the expiry job, never by a caller.
var evaluationTransitions = map[EvaluationStatus][]EvaluationStatus{
	EvaluationStatusDraft: {
		EvaluationStatusInProgress,
		EvaluationStatusPendingApproval,
		EvaluationStatusCanceled,
	},
	EvaluationStatusInProgress: {
		EvaluationStatusPendingApproval,
		EvaluationStatusCanceled,
	},
	EvaluationStatusPendingApproval: {
		EvaluationStatusApproved,
		EvaluationStatusRejected,
	},
	EvaluationStatusApproved: {
		EvaluationStatusExpired,
	},
}

// String implements fmt.Stringer.
func (s EvaluationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EvaluationStatus.
func (s EvaluationStatus) IsValid() bool {
	for _, candidate := range validEvaluationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsEditable reports whether evaluation content (vehicle data, depreciation
// items, checklist) may still change.
func (s EvaluationStatus) IsEditable() bool {
	return s == EvaluationStatusDraft || s == EvaluationStatusInProgress
}

// CanBeSubmitted reports whether the evaluation may move to pending approval.
func (s EvaluationStatus) CanBeSubmitted() bool {
	return s == EvaluationStatusDraft || s == EvaluationStatusInProgress
}

// CanBeApproved reports whether an approver may approve the evaluation.
func (s EvaluationStatus) CanBeApproved() bool {
	return s == EvaluationStatusPendingApproval
}

// CanBeRejected reports whether an approver may reject the evaluation.
func (s EvaluationStatus) CanBeRejected() bool {
	return s == EvaluationStatusPendingApproval
}

// CanBeCanceled reports whether the evaluator may cancel the evaluation.
func (s EvaluationStatus) CanBeCanceled() bool {
	return s == EvaluationStatusDraft || s == EvaluationStatusInProgress
}

// IsFinal reports whether the status terminates the lifecycle.
func (s EvaluationStatus) IsFinal() bool {
	return s == EvaluationStatusApproved || s == EvaluationStatusRejected || s == EvaluationStatusCanceled
}

// IsActive reports whether the evaluation still counts for business purposes.
func (s EvaluationStatus) IsActive() bool {
	return s != EvaluationStatusCanceled && s != EvaluationStatusExpired
}

// CanTransitionTo reports whether moving directly from s to next is legal.
func (s EvaluationStatus) CanTransitionTo(next EvaluationStatus) bool {
	for _, candidate := range evaluationTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseEvaluationStatus converts raw input into an EvaluationStatus.
func ParseEvaluationStatus(value string) (EvaluationStatus, error) {
	for _, candidate := range validEvaluationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid evaluation status %q", value)
}
